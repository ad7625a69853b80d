package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/enexview/internal/pkg/response"
	"github.com/xxxsen/enexview/internal/service"
)

type NoteHandler struct {
	notes *service.NoteService
}

func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

func (h *NoteHandler) List(c *gin.Context) {
	result, err := h.notes.ListNotes(c.Request.Context(), c.Param("id"), service.ListNotesInput{
		Query:  c.Query("q"),
		Limit:  c.Query("limit"),
		Offset: c.Query("offset"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *NoteHandler) Detail(c *gin.Context) {
	note, err := h.notes.FetchNoteDetail(c.Request.Context(), c.Param("id"), c.Param("noteId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}
