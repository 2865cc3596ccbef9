// Package handlers implements the HTTP endpoints of the ciudamos service.
package handlers

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"ciudamos/authority"
	"ciudamos/classify"
	"ciudamos/geocode"
	"ciudamos/mlmodel"
	"ciudamos/nlp"
	"ciudamos/rewards"
	"ciudamos/store"
)

// Handlers carries the collaborators the endpoints need. Geocoder and
// Redactor are optional.
type Handlers struct {
	Store      *store.Store
	Classifier mlmodel.Classifier
	Directory  *authority.Directory
	Geocoder   geocode.Geocoder
	Redactor   nlp.Redactor
}

func errorJSON(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// statusFor maps domain errors to HTTP status codes. Persistence failures
// and anything unrecognised are 500s.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, authority.ErrUnknownAuthority), errors.Is(err, rewards.ErrUnknownOffer):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, store.ErrReportClosed), errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidStatus), errors.Is(err, store.ErrEvidenceRequired),
		errors.Is(err, store.ErrEvidenceWithoutDone), errors.Is(err, classify.ErrCategoryRequired),
		errors.Is(err, rewards.ErrInsufficientTokens):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	errorJSON(c, code, err.Error())
}
