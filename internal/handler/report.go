package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetLastReport returns the most recent completed cycle.
func (h *Handler) GetLastReport(c *gin.Context) {
	report := h.trader.LastReport()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has completed yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetRecentReports returns persisted cycle reports, newest first.
func (h *Handler) GetRecentReports(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade history persistence disabled"})
		return
	}

	limit := parseLimit(c.Query("limit"), 10)
	reports, err := h.history.RecentReports(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetRecentOrders returns persisted order results, newest first.
func (h *Handler) GetRecentOrders(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade history persistence disabled"})
		return
	}

	limit := parseLimit(c.Query("limit"), 25)
	orders, err := h.history.RecentOrderResults(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func parseLimit(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > 100 {
		return fallback
	}
	return n
}
