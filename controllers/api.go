package controllers

import (
	"errors"
	"net/http"

	"askdocs/internal/documents"
	"askdocs/internal/extract"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	ErrInternalError    = errors.New("Internal error")
	ErrNotFound         = errors.New("Not found")
	ErrRequestTooLarge  = errors.New("Request too large")
	ErrMissingFile      = errors.New("Missing file")
	ErrUnsupportedMedia = errors.New("Unsupported file type")
	ErrEmptyDocument    = errors.New("No text could be extracted from the file")
	ErrInvalidID        = errors.New("Invalid id")
	ErrEmptyMessage     = errors.New("Message must not be empty")
	ErrInvalidLimit     = errors.New("Invalid limit")
)

type apiResponse struct {
	Errors []string `json:"errors,omitempty"`
	Data   any      `json:"data,omitempty"`
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

func RespondOK(c *gin.Context, obj any) {
	c.JSON(http.StatusOK, apiResponse{Data: obj})
}

func RespondBadRequestErr(c *gin.Context, errors []error) {
	RespondCustomStatusErr(c, http.StatusBadRequest, errors)
}

func RespondCustomStatusErr(c *gin.Context, status int, errors []error) {
	c.AbortWithStatusJSON(status, apiResponse{Errors: errorStrings(errors)})
}

func RespondInternalErr(c *gin.Context) {
	RespondCustomStatusErr(c, http.StatusInternalServerError, []error{ErrInternalError})
}

// respondServiceErr maps errors from the services to a status code. Anything
// unrecognised is logged and reported as an internal error.
func respondServiceErr(c *gin.Context, logger *zap.SugaredLogger, msg string, err error) {
	switch {
	case errors.Is(err, documents.ErrNotFound):
		RespondCustomStatusErr(c, http.StatusNotFound, []error{ErrNotFound})
	case errors.Is(err, documents.ErrInvalidInput):
		RespondBadRequestErr(c, []error{err})
	case errors.Is(err, extract.ErrUnsupportedFormat):
		RespondCustomStatusErr(c, http.StatusUnsupportedMediaType, []error{ErrUnsupportedMedia})
	case errors.Is(err, documents.ErrEmptyDocument):
		RespondCustomStatusErr(c, http.StatusUnprocessableEntity, []error{ErrEmptyDocument})
	default:
		logger.Errorw(msg, "error", err)
		RespondInternalErr(c)
	}
}
