package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"coinpilot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	brokerageBaseURL = "https://api.coinbase.com"
	publicBaseURL    = "https://api.exchange.coinbase.com"

	candleGranularitySecs = 3600
)

// CoinbaseClient talks to the Coinbase brokerage REST API (authenticated)
// and the public exchange API (candles). It implements MarketData, Account
// and OrderSubmitter.
type CoinbaseClient struct {
	client       *http.Client
	brokerageURL string
	publicURL    string
	apiKey       string
	apiSecret    string
	tracer       trace.Tracer
	limiter      *RateLimiter
}

// NewCoinbaseClient creates a client with built-in rate limiting.
// Limited to 10 requests per second against the brokerage API.
func NewCoinbaseClient(apiKey, apiSecret string, tracer trace.Tracer) *CoinbaseClient {
	return &CoinbaseClient{
		client:       &http.Client{Timeout: 30 * time.Second},
		brokerageURL: brokerageBaseURL,
		publicURL:    publicBaseURL,
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		tracer:       tracer,
		limiter:      NewRateLimiter(10, 100*time.Millisecond),
	}
}

// ListProducts fetches all tradable pairs with 24h stats.
func (c *CoinbaseClient) ListProducts(ctx context.Context) ([]Product, error) {
	_, span := c.tracer.Start(ctx, "coinbase.list-products")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/brokerage/products", nil)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	var raw struct {
		Products []rawProduct `json:"products"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse products: %w", err)
	}

	products := make([]Product, 0, len(raw.Products))
	for _, p := range raw.Products {
		products = append(products, p.toProduct())
	}
	return products, nil
}

// GetProduct fetches a single pair, including its base size increment.
func (c *CoinbaseClient) GetProduct(ctx context.Context, productID string) (Product, error) {
	_, span := c.tracer.Start(ctx, "coinbase.get-product")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/brokerage/products/"+productID, nil)
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}

	var p rawProduct
	if err := json.Unmarshal(body, &p); err != nil {
		return Product{}, fmt.Errorf("parse product %s: %w", productID, err)
	}
	return p.toProduct(), nil
}

// Candles fetches hourly OHLCV history over the lookback window from the
// public exchange endpoint. Candles are returned oldest-first.
func (c *CoinbaseClient) Candles(ctx context.Context, productID string, lookback time.Duration) ([]domain.Candle, error) {
	_, span := c.tracer.Start(ctx, "coinbase.candles")
	defer span.End()

	end := time.Now().UTC()
	start := end.Add(-lookback)
	url := fmt.Sprintf("%s/products/%s/candles?granularity=%d&start=%s&end=%s",
		c.publicURL, productID, candleGranularitySecs,
		start.Format(time.RFC3339), end.Format(time.RFC3339))

	body, err := c.doPublicRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", productID, err)
	}

	// Each row is [time, low, high, open, close, volume], newest first.
	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse candles for %s: %w", productID, err)
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		candles = append(candles, domain.Candle{
			Symbol: productID,
			Time:   time.Unix(int64(row[0]), 0).UTC(),
			Low:    row[1],
			High:   row[2],
			Open:   row[3],
			Close:  row[4],
			Volume: row[5],
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}

// Balances returns available amounts for all currencies with a non-zero balance.
func (c *CoinbaseClient) Balances(ctx context.Context) (domain.Balances, error) {
	_, span := c.tracer.Start(ctx, "coinbase.balances")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/brokerage/accounts?limit=250", nil)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	var raw struct {
		Accounts []struct {
			Currency         string `json:"currency"`
			AvailableBalance struct {
				Value string `json:"value"`
			} `json:"available_balance"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse accounts: %w", err)
	}

	balances := make(domain.Balances, len(raw.Accounts))
	for _, acct := range raw.Accounts {
		amount := parseFloat(acct.AvailableBalance.Value)
		if amount > 0 {
			balances[acct.Currency] = amount
		}
	}
	return balances, nil
}

// Orders returns historical orders, newest first.
func (c *CoinbaseClient) Orders(ctx context.Context) ([]domain.HistoricalOrder, error) {
	_, span := c.tracer.Start(ctx, "coinbase.orders")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/brokerage/orders/historical/batch", nil)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	var raw struct {
		Orders []struct {
			ProductID           string `json:"product_id"`
			Side                string `json:"side"`
			Status              string `json:"status"`
			FilledSize          string `json:"filled_size"`
			TotalValueAfterFees string `json:"total_value_after_fees"`
			CreatedTime         string `json:"created_time"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}

	orders := make([]domain.HistoricalOrder, 0, len(raw.Orders))
	for _, o := range raw.Orders {
		created, _ := time.Parse(time.RFC3339, o.CreatedTime)
		orders = append(orders, domain.HistoricalOrder{
			ProductID:           o.ProductID,
			Side:                domain.Side(strings.ToUpper(o.Side)),
			Status:              o.Status,
			FilledSize:          parseFloat(o.FilledSize),
			TotalValueAfterFees: parseFloat(o.TotalValueAfterFees),
			CreatedAt:           created,
		})
	}
	return orders, nil
}

// MarketOrder submits a single immediate-or-cancel market order.
func (c *CoinbaseClient) MarketOrder(ctx context.Context, req MarketOrderRequest) (OrderResponse, error) {
	_, span := c.tracer.Start(ctx, "coinbase.market-order")
	defer span.End()

	marketIOC := map[string]string{}
	if req.BaseSize != "" {
		marketIOC["base_size"] = req.BaseSize
	}
	if req.QuoteSize != "" {
		marketIOC["quote_size"] = req.QuoteSize
	}
	payload := map[string]any{
		"client_order_id": req.ClientOrderID,
		"product_id":      req.ProductID,
		"side":            string(req.Side),
		"order_configuration": map[string]any{
			"market_market_ioc": marketIOC,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return OrderResponse{}, err
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/api/v3/brokerage/orders", data)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("submit order %s %s: %w", req.Side, req.ProductID, err)
	}

	var raw struct {
		Success         bool `json:"success"`
		SuccessResponse struct {
			OrderID string `json:"order_id"`
		} `json:"success_response"`
		ErrorResponse struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"error_response"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return OrderResponse{}, fmt.Errorf("parse order response: %w", err)
	}

	resp := OrderResponse{
		OrderID: raw.SuccessResponse.OrderID,
		Success: raw.Success,
	}
	if !raw.Success {
		resp.Detail = strings.TrimSpace(raw.ErrorResponse.Error + " " + raw.ErrorResponse.Message)
		return resp, fmt.Errorf("order rejected: %s", resp.Detail)
	}
	return resp, nil
}

func (c *CoinbaseClient) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.brokerageURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.sign(req, method, path, payload)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coinbase API error %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func (c *CoinbaseClient) doPublicRequest(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coinbase API error %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// sign attaches CB-ACCESS headers: HMAC-SHA256 over timestamp+method+path+body.
func (c *CoinbaseClient) sign(req *http.Request, method, path string, payload []byte) {
	if c.apiKey == "" || c.apiSecret == "" {
		return
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	message := timestamp + method + path + string(payload)
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(message))
	req.Header.Set("CB-ACCESS-KEY", c.apiKey)
	req.Header.Set("CB-ACCESS-SIGN", hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
}

type rawProduct struct {
	ProductID                string `json:"product_id"`
	Price                    string `json:"price"`
	PricePercentageChange24h string `json:"price_percentage_change_24h"`
	Volume24h                string `json:"volume_24h"`
	Status                   string `json:"status"`
	IsDisabled               bool   `json:"is_disabled"`
	BaseIncrement            string `json:"base_increment"`
}

func (p rawProduct) toProduct() Product {
	return Product{
		ID:            p.ProductID,
		Price:         parseFloat(p.Price),
		Change24hPct:  parseFloat(p.PricePercentageChange24h),
		Volume24h:     parseFloat(p.Volume24h),
		Status:        p.Status,
		Disabled:      p.IsDisabled,
		BaseIncrement: parseFloat(p.BaseIncrement),
	}
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}
