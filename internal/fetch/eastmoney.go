package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/lof-premium/internal/config"
	"github.com/yourorg/lof-premium/internal/model"
	"golang.org/x/time/rate"
)

// EastmoneyClient fetches the LOF universe and per-fund NAV history from the
// Eastmoney endpoints. All requests go through a shared rate limiter; the
// upstream throttles aggressive clients.
type EastmoneyClient struct {
	listingURL string
	navURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewEastmoneyClient creates a client from the configuration.
func NewEastmoneyClient(cfg config.Config) *EastmoneyClient {
	return &EastmoneyClient{
		listingURL: cfg.ListingURL,
		navURL:     cfg.NavURL,
		httpClient: newRetryClient(cfg.RequestTimeout),
		limiter:    newLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

// listingRow mirrors one entry of the clist payload. Prices come back as a
// number normally but as "-" for halted funds, hence the raw field.
type listingRow struct {
	Code  string          `json:"f12"`
	Name  string          `json:"f14"`
	Price json.RawMessage `json:"f2"`
}

// ListInstruments retrieves the full LOF spot listing. Rows with a missing
// or non-numeric price (halted funds) are dropped; a payload without the
// required fields at all surfaces ErrMissingColumns.
func (c *EastmoneyClient) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{
		"pn":   {"1"},
		"pz":   {"10000"},
		"po":   {"1"},
		"np":   {"1"},
		"fltt": {"2"},
		"invt": {"2"},
		"fid":  {"f3"},
		"fs":   {"b:MK0404,b:MK0405,b:MK0406,b:MK0407"},
		// f12 = code, f14 = name, f2 = latest price
		"fields": {"f2,f12,f14"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listingURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating listing request: %w", err)
	}

	logrus.Debugf("Fetching LOF listing from %s", c.listingURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("listing API error: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload struct {
		Data *struct {
			Total int          `json:"total"`
			Diff  []listingRow `json:"diff"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding listing response: %w", err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("listing response carries no data")
	}

	instruments := make([]model.Instrument, 0, len(payload.Data.Diff))
	dropped := 0
	sawAllFields := false
	for _, row := range payload.Data.Diff {
		if row.Code != "" && row.Name != "" && len(row.Price) > 0 {
			sawAllFields = true
		}
		price, ok := parsePrice(row.Price)
		if row.Code == "" || row.Name == "" || !ok {
			dropped++
			continue
		}
		instruments = append(instruments, model.Instrument{
			Code:        row.Code,
			Name:        row.Name,
			MarketPrice: price,
		})
	}

	if len(payload.Data.Diff) > 0 && !sawAllFields {
		return nil, fmt.Errorf("%w: need code (f12), name (f14) and price (f2)", ErrMissingColumns)
	}

	logrus.WithFields(logrus.Fields{
		"total":   len(payload.Data.Diff),
		"kept":    len(instruments),
		"dropped": dropped,
	}).Info("LOF listing fetched")

	return instruments, nil
}

// navRow mirrors one entry of the f10/lsjz payload; values arrive as strings.
type navRow struct {
	Date    string `json:"FSRQ"`
	UnitNav string `json:"DWJZ"`
}

// NavHistory retrieves the most recent NAV entries for a fund. The upstream
// returns newest-first; the result is reversed into chronological order so
// callers can take the last entry as the latest observation.
func (c *EastmoneyClient) NavHistory(ctx context.Context, code string) ([]model.NavPoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{
		"fundCode":  {code},
		"pageIndex": {"1"},
		"pageSize":  {"30"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.navURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating nav request: %w", err)
	}
	// The endpoint rejects requests without a fund page referer
	req.Header.Set("Referer", "https://fundf10.eastmoney.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching nav history for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nav API error for %s: status %d, body: %s", code, resp.StatusCode, truncate(string(body), 200))
	}

	var payload struct {
		Data *struct {
			List []navRow `json:"LSJZList"`
		} `json:"Data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding nav response for %s: %w", code, err)
	}
	if payload.Data == nil || len(payload.Data.List) == 0 {
		return nil, fmt.Errorf("no nav history for %s", code)
	}

	// Newest-first upstream, chronological out
	points := make([]model.NavPoint, 0, len(payload.Data.List))
	for i := len(payload.Data.List) - 1; i >= 0; i-- {
		row := payload.Data.List[i]
		nav, err := strconv.ParseFloat(strings.TrimSpace(row.UnitNav), 64)
		if err != nil {
			continue
		}
		points = append(points, model.NavPoint{Date: row.Date, UnitNav: nav})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("nav history for %s has no parseable entries", code)
	}

	logrus.Debugf("Received %d nav points for %s", len(points), code)
	return points, nil
}

// parsePrice interprets the raw f2 value, which is a float for trading funds
// and the string "-" for halted ones.
func parsePrice(raw json.RawMessage) (float64, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, false
	}

	var price float64
	if err := json.Unmarshal(raw, &price); err == nil {
		return price, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if price, err := strconv.ParseFloat(s, 64); err == nil {
			return price, true
		}
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
