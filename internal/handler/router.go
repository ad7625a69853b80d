package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/enexview/internal/pkg/response"
)

type RouterDeps struct {
	Imports   *ImportHandler
	Notes     *NoteHandler
	Resources *ResourceHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", health)

	api.POST("/enex", deps.Imports.Upload)
	api.GET("/imports/lookup", deps.Imports.LookupByHash)
	api.DELETE("/imports", deps.Imports.ClearAll)

	api.GET("/imports/:id/notes", deps.Notes.List)
	api.GET("/imports/:id/notes/:noteId", deps.Notes.Detail)

	api.GET("/imports/:id/notes/:noteId/resources/:resourceId", deps.Resources.Download)
	api.POST("/imports/:id/resources/bundle", deps.Resources.Bundle)
}

func health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
