package handler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/enexview/internal/model"
	"github.com/xxxsen/enexview/internal/pkg/errcode"
	"github.com/xxxsen/enexview/internal/pkg/response"
	"github.com/xxxsen/enexview/internal/service"
)

type ResourceHandler struct {
	resources *service.ResourceService
}

func NewResourceHandler(resources *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

func (h *ResourceHandler) Download(c *gin.Context) {
	download, err := h.resources.FetchResourceDownload(c.Request.Context(),
		c.Param("id"), c.Param("noteId"), c.Param("resourceId"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer download.Content.Close()

	c.Header("Content-Type", download.Mime)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	if download.Size != nil {
		c.Header("Content-Length", strconv.FormatInt(*download.Size, 10))
	}
	if _, err := io.Copy(c.Writer, download.Content); err != nil {
		logutil.GetLogger(c.Request.Context()).Error("stream resource failed", zap.Error(err))
	}
}

type bundleRequest struct {
	Resources []model.ResourceRef `json:"resources"`
}

func (h *ResourceHandler) Bundle(c *gin.Context) {
	var req bundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid bundle request body")
		return
	}
	bundle, err := h.resources.PrepareBundle(c.Request.Context(), c.Param("id"), req.Resources)
	if err != nil {
		handleError(c, err)
		return
	}
	defer bundle.Close()

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "resources-"+c.Param("id")+".zip"))
	if err := bundle.WriteZip(c.Writer); err != nil {
		// Headers are already out; all that is left is to log.
		logutil.GetLogger(c.Request.Context()).Error("stream bundle failed", zap.Error(err))
	}
}
