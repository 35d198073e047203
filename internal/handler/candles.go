package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetCandleHistory returns archived candles for one product, newest first.
func (h *Handler) GetCandleHistory(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "candle persistence disabled"})
		return
	}

	symbol := c.Param("symbol")
	limit := parseCandleLimit(c.Query("limit"))
	candles, err := h.archive.GetCandles(c.Request.Context(), symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(candles) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no candles archived for " + symbol})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "candles": candles})
}

// Default one week of hourly candles, cap at one month.
func parseCandleLimit(v string) int {
	if v == "" {
		return 168
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > 744 {
		return 168
	}
	return n
}
