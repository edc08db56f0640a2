// Package price получает котировки активов в USD.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xbit_backend/internal/client"

	"github.com/shopspring/decimal"
)

var ErrNoQuote = errors.New("price: quote not available")

type CryptoCompare struct {
	baseURL string
	http    *http.Client
}

var _ client.PriceSource = (*CryptoCompare)(nil)

func NewCryptoCompare(baseURL string, timeout time.Duration) *CryptoCompare {
	return &CryptoCompare{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Quote GET /data/price?fsym=BTC&tsyms=USD -> {"USD": 82000.5}
func (c *CryptoCompare) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("fsym", strings.ToUpper(symbol))
	q.Set("tsyms", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price: %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price: %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("price: %s: decode: %w", symbol, err)
	}

	raw, ok := body["USD"]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoQuote, symbol)
	}
	var p decimal.Decimal
	if err := p.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, fmt.Errorf("price: %s: %w", symbol, err)
	}
	if !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoQuote, symbol)
	}
	return p, nil
}
