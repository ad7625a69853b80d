package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/enexview/internal/enex"
	"github.com/xxxsen/enexview/internal/middleware"
	"github.com/xxxsen/enexview/internal/pkg/errcode"
	apperr "github.com/xxxsen/enexview/internal/pkg/errors"
	"github.com/xxxsen/enexview/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	var parseErr *enex.ParseError
	switch {
	case errors.As(err, &parseErr):
		code := errcode.ErrInvalidXML
		if parseErr.Code == enex.CodeInvalidEnex {
			code = errcode.ErrInvalidEnex
		}
		response.Error(c, code, parseErr.Error())
	case errors.Is(err, apperr.ErrImportNotFound):
		response.Error(c, errcode.ErrImportNotFound, "import session not found")
	case errors.Is(err, apperr.ErrNoteNotFound):
		response.Error(c, errcode.ErrNoteNotFound, "note not found")
	case errors.Is(err, apperr.ErrResourceNotFound):
		response.Error(c, errcode.ErrResourceNotFound, "resource not found")
	case errors.Is(err, apperr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, apperr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
