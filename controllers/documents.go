package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"askdocs/internal/documents"
	"askdocs/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DocumentPatchInput is the body of a document update. Omitted fields are
// left unchanged.
type DocumentPatchInput struct {
	Filename *string `json:"filename"`
	Starred  *bool   `json:"is_starred"`
	Deleted  *bool   `json:"is_deleted"`
}

type DocumentsController struct {
	Documents      *documents.Manager
	Logger         *zap.SugaredLogger
	MaxUploadBytes int64
}

func (dc DocumentsController) Upload(c *gin.Context) {
	if dc.MaxUploadBytes > 0 {
		if c.Request.ContentLength > dc.MaxUploadBytes {
			RespondCustomStatusErr(c, http.StatusRequestEntityTooLarge, []error{ErrRequestTooLarge})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dc.MaxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			RespondCustomStatusErr(c, http.StatusRequestEntityTooLarge, []error{ErrRequestTooLarge})
			return
		}
		RespondBadRequestErr(c, []error{ErrMissingFile})
		return
	}

	file, err := header.Open()
	if err != nil {
		dc.Logger.Errorw("Error opening uploaded file", "error", err)
		RespondInternalErr(c)
		return
	}
	defer file.Close()

	summary, err := dc.Documents.Upload(c.Request.Context(), documents.UploadInput{
		Filename:  header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Reader:    file,
	})
	if err != nil {
		respondServiceErr(c, dc.Logger, "Error uploading document", err)
		return
	}

	RespondOK(c, summary)
}

func (dc DocumentsController) GetDocuments(c *gin.Context) {
	filter, err := models.ParseDocumentFilter(c.Query("filter"))
	if err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	summaries, err := dc.Documents.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceErr(c, dc.Logger, "Error getting documents", err)
		return
	}

	RespondOK(c, summaries)
}

func (dc DocumentsController) GetDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	summary, err := dc.Documents.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceErr(c, dc.Logger, "Error getting document", err)
		return
	}

	RespondOK(c, summary)
}

func (dc DocumentsController) PatchDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	input := DocumentPatchInput{}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	summary, err := dc.Documents.Update(c.Request.Context(), id, models.DocumentPatch{
		Filename: input.Filename,
		Starred:  input.Starred,
		Deleted:  input.Deleted,
	})
	if err != nil {
		respondServiceErr(c, dc.Logger, "Error updating document", err)
		return
	}

	RespondOK(c, summary)
}

func (dc DocumentsController) DeleteDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	if err := dc.Documents.HardDelete(c.Request.Context(), id); err != nil {
		respondServiceErr(c, dc.Logger, "Error deleting document", err)
		return
	}

	RespondOK(c, gin.H{"message": "Document deleted successfully"})
}

func documentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		RespondBadRequestErr(c, []error{ErrInvalidID})
		return 0, false
	}

	return uint(id), true
}
