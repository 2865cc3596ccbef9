package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ciudamos/rewards"
)

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// Rewards reports the token balance earned by the stored reports.
func (h *Handlers) Rewards(c *gin.Context) {
	n := len(h.Store.Reports())
	c.JSON(http.StatusOK, gin.H{
		"reports":   n,
		"perReport": rewards.PerReport,
		"tokens":    rewards.Balance(n),
	})
}

func (h *Handlers) Offers(c *gin.Context) {
	c.JSON(http.StatusOK, rewards.Offers())
}

func (h *Handlers) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := rewards.Redeem(rewards.Balance(len(h.Store.Reports())), req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
