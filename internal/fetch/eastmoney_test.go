package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/lof-premium/internal/config"
)

func testClient(listingURL, navURL string) *EastmoneyClient {
	return NewEastmoneyClient(config.Config{
		ListingURL:     listingURL,
		NavURL:         navURL,
		RequestTimeout: 5 * time.Second,
		RateLimitRPS:   1000,
		RateLimitBurst: 100,
	})
}

func TestListInstruments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("fields"), "f12")
		fmt.Fprint(w, `{"data":{"total":3,"diff":[
			{"f12":"161116","f14":"易方达黄金主题","f2":2.10},
			{"f12":"511880","f14":"银华日利","f2":100.05},
			{"f12":"160416","f14":"停牌基金","f2":"-"}
		]}}`)
	}))
	defer srv.Close()

	instruments, err := testClient(srv.URL, srv.URL).ListInstruments(context.Background())
	require.NoError(t, err)

	// The halted fund with price "-" is dropped, like a null row
	require.Len(t, instruments, 2)
	assert.Equal(t, "161116", instruments[0].Code)
	assert.Equal(t, "易方达黄金主题", instruments[0].Name)
	assert.Equal(t, 2.10, instruments[0].MarketPrice)
}

func TestListInstrumentsMissingColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Payload has rows but none carries the required fields
		fmt.Fprint(w, `{"data":{"total":2,"diff":[{"f3":1.2},{"f3":-0.4}]}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).ListInstruments(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestListInstrumentsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":null}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).ListInstruments(context.Background())
	assert.Error(t, err)
}

func TestListInstrumentsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).ListInstruments(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 418")
}

func TestNavHistoryChronologicalOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "161116", r.URL.Query().Get("fundCode"))
		assert.NotEmpty(t, r.Header.Get("Referer"))
		// Upstream responds newest-first
		fmt.Fprint(w, `{"Data":{"LSJZList":[
			{"FSRQ":"2024-01-02","DWJZ":"2.0000"},
			{"FSRQ":"2024-01-01","DWJZ":"1.9500"},
			{"FSRQ":"2023-12-29","DWJZ":"1.9000"}
		]}}`)
	}))
	defer srv.Close()

	points, err := testClient(srv.URL, srv.URL).NavHistory(context.Background(), "161116")
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, "2023-12-29", points[0].Date)
	assert.Equal(t, "2024-01-02", points[2].Date)
	assert.Equal(t, 2.0, points[2].UnitNav)
}

func TestNavHistoryEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Data":{"LSJZList":[]}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).NavHistory(context.Background(), "161116")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no nav history")
}

func TestNavHistorySkipsUnparseableEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Data":{"LSJZList":[
			{"FSRQ":"2024-01-02","DWJZ":"2.0000"},
			{"FSRQ":"2024-01-01","DWJZ":""}
		]}}`)
	}))
	defer srv.Close()

	points, err := testClient(srv.URL, srv.URL).NavHistory(context.Background(), "161116")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-01-02", points[0].Date)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{`2.10`, 2.10, true},
		{`"3.45"`, 3.45, true},
		{`"-"`, 0, false},
		{``, 0, false},
		{`null`, 0, false},
	}

	for _, tt := range tests {
		got, ok := parsePrice([]byte(tt.raw))
		assert.Equal(t, tt.valid, ok, "raw=%q", tt.raw)
		if tt.valid {
			assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
		}
	}
}
