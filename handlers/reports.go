package handlers

import (
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"ciudamos/authority"
	"ciudamos/classify"
	"ciudamos/store"
	"ciudamos/types"
)

type createReportRequest struct {
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	PhotoURI    string   `json:"photoUri"`
	Urgency     string   `json:"urgency"`
	Area        string   `json:"area"`
}

type statusRequest struct {
	Status      types.Status `json:"status" binding:"required"`
	EvidenceURI string       `json:"evidenceUri"`
}

// ListReports returns every report, newest first.
func (h *Handlers) ListReports(c *gin.Context) {
	c.JSON(http.StatusOK, authority.SortByRecency(h.Store.Reports()))
}

func (h *Handlers) GetReport(c *gin.Context) {
	r, err := h.Store.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// CreateReport confirms a citizen draft and stores it. The category must
// resolve to a canonical one; urgency and pin color are derived.
func (h *Handlers) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := classify.ConfirmDraft(types.Draft{}, *req.Latitude, *req.Longitude, req.PhotoURI, classify.Overrides{
		Title:       req.Title,
		Category:    req.Category,
		Urgency:     req.Urgency,
		Description: req.Description,
		Area:        req.Area,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.Redactor != nil && report.Description != "" {
		clean, err := h.Redactor.Redact(ctx, report.Description)
		if err != nil {
			log.WithError(err).Warn("description redaction failed")
			errorJSON(c, http.StatusInternalServerError, "could not check description for personal data")
			return
		}
		report.Description = clean
	}
	if h.Geocoder != nil {
		addr, err := h.Geocoder.ReverseGeocode(ctx, report.Latitude, report.Longitude)
		if err != nil {
			log.WithError(err).Warn("reverse geocoding failed")
		} else {
			report.Address = addr
		}
	}

	saved, err := h.Store.Add(ctx, report)
	if err != nil {
		fail(c, err)
		return
	}
	log.WithFields(log.Fields{"id": saved.ID, "category": saved.Category, "urgency": saved.Urgency}).Info("report created")
	c.JSON(http.StatusCreated, saved)
}

func (h *Handlers) DeleteReport(c *gin.Context) {
	if err := h.Store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ClearReports(c *gin.Context) {
	if err := h.Store.Clear(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) MarkSeen(c *gin.Context) {
	r, err := h.Store.MarkSeen(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdateStatus moves a report forward in its lifecycle. Closing requires an
// evidenceUri.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	status := types.Status(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	patch := store.Patch{Status: &status}
	if req.EvidenceURI != "" {
		patch.EvidenceURI = &req.EvidenceURI
	}

	r, err := h.Store.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	log.WithFields(log.Fields{"id": r.ID, "status": r.Status}).Info("report status updated")
	c.JSON(http.StatusOK, r)
}
