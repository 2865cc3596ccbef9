package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ciudamos/authority"
	"ciudamos/types"
)

type dashboardResponse struct {
	Authority types.Authority `json:"authority"`
	authority.Dashboard
}

func (h *Handlers) ListAuthorities(c *gin.Context) {
	c.JSON(http.StatusOK, h.Directory.List())
}

// AuthorityReports serves an authority's dashboard. Optional query
// parameters: urgency (Alta, Media, Baja or ALL) and lat, lon, radiusKm to
// narrow the list to an area around a point.
func (h *Handlers) AuthorityReports(c *gin.Context) {
	a, err := h.Directory.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	reports := h.Store.Reports()
	if radius := c.Query("radiusKm"); radius != "" {
		radiusKM, err1 := strconv.ParseFloat(radius, 64)
		lat, err2 := strconv.ParseFloat(c.Query("lat"), 64)
		lon, err3 := strconv.ParseFloat(c.Query("lon"), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			errorJSON(c, http.StatusBadRequest, "lat, lon and radiusKm must be numbers")
			return
		}
		reports = authority.Near(reports, lat, lon, radiusKM)
	}

	dash := authority.Filter(reports, a.Areas, c.DefaultQuery("urgency", authority.UrgencyAll))
	c.JSON(http.StatusOK, dashboardResponse{Authority: a, Dashboard: dash})
}
