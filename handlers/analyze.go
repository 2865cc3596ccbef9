package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"ciudamos/classify"
	"ciudamos/metrics"
	"ciudamos/mlmodel"
)

const (
	// MaxImageBytes is the largest accepted upload.
	MaxImageBytes = 6 * 1024 * 1024

	// multipartOverhead leaves room for boundaries and headers around the file.
	multipartOverhead = 64 * 1024

	msgMissingImage = "Falta imagen"
	msgTooLarge     = "File too large"
)

// AnalyzeReport handles POST /ai/analyze-report. The body is the classifier's
// JSON object, unchanged.
func (h *Handlers) AnalyzeReport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageBytes+multipartOverhead)

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			errorJSON(c, http.StatusBadRequest, msgMissingImage)
			return
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			errorJSON(c, http.StatusInternalServerError, msgTooLarge)
			return
		}
		log.WithError(err).Error("reading analyze-report upload")
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	if fh.Size == 0 {
		errorJSON(c, http.StatusBadRequest, msgMissingImage)
		return
	}
	if fh.Size > MaxImageBytes {
		errorJSON(c, http.StatusInternalServerError, msgTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()
	image, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	mode := h.Classifier.Mode()
	start := time.Now()
	raw, err := h.Classifier.Classify(c.Request.Context(), image, fh.Header.Get("Content-Type"))
	metrics.ClassificationDurationSeconds.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClassificationsTotal.WithLabelValues(mode, "error").Inc()
		log.WithError(err).WithField("mode", mode).Error("classification failed")
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ClassificationsTotal.WithLabelValues(mode, "ok").Inc()

	if res, err := mlmodel.ParseResult(raw); err == nil && res.Confianza < classify.LowConfidence {
		metrics.LowConfidenceTotal.Inc()
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
