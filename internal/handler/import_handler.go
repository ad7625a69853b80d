package handler

import (
	"io"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/enexview/internal/pkg/errcode"
	"github.com/xxxsen/enexview/internal/pkg/response"
	"github.com/xxxsen/enexview/internal/service"
)

var hashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

type ImportHandler struct {
	imports       *service.ImportService
	maxUploadSize int64
}

func NewImportHandler(imports *service.ImportService, maxUploadSize int64) *ImportHandler {
	return &ImportHandler{imports: imports, maxUploadSize: maxUploadSize}
}

func (h *ImportHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidMultipart, "file is required")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, errcode.ErrInvalid, "file exceeds upload limit of "+formatUploadLimit(h.maxUploadSize))
		return
	}
	hash := strings.TrimSpace(c.PostForm("hash"))
	if hash != "" {
		if !hashPattern.MatchString(hash) {
			response.Error(c, errcode.ErrInvalidHash, "hash must be 64 hex characters")
			return
		}
		hash = strings.ToLower(hash)
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidMultipart, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, errcode.ErrInvalidMultipart, "failed to read file")
		return
	}
	result, err := h.imports.ImportEnex(c.Request.Context(), data, hash)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ImportHandler) LookupByHash(c *gin.Context) {
	hash := strings.TrimSpace(c.Query("hash"))
	if !hashPattern.MatchString(hash) {
		response.Error(c, errcode.ErrInvalidHash, "hash must be 64 hex characters")
		return
	}
	importID, err := h.imports.FindImportIDByHash(c.Request.Context(), strings.ToLower(hash))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"importId": importID})
}

func (h *ImportHandler) ClearAll(c *gin.Context) {
	if err := h.imports.ClearAll(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
