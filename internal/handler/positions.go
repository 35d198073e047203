package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetPositions returns the live portfolio: balances joined with entry and
// current prices.
func (h *Handler) GetPositions(c *gin.Context) {
	ctx := c.Request.Context()

	balances, err := h.portfolio.Balances(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	positions, err := h.portfolio.Positions(ctx, balances)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	type positionView struct {
		Currency     string   `json:"currency"`
		CoinAmount   float64  `json:"coin_amount"`
		USDValue     float64  `json:"usd_value"`
		EntryPrice   *float64 `json:"entry_price"`
		CurrentPrice *float64 `json:"current_price"`
	}
	views := make([]positionView, 0, len(positions))
	for _, pos := range positions {
		views = append(views, positionView{
			Currency:     pos.Currency,
			CoinAmount:   pos.CoinAmount,
			USDValue:     pos.USDValue,
			EntryPrice:   pos.EntryPrice,
			CurrentPrice: pos.CurrentPrice,
		})
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances, "positions": views})
}
