package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const chartWithGap = `{"chart":{"result":[{
  "timestamp":[1736121600,1736208000,1736294400],
  "indicators":{"quote":[{
    "open":[99.0,101.0,null],
    "high":[101.0,106.0,null],
    "low":[98.0,100.0,null],
    "close":[100.0,105.0,null],
    "volume":[1000,2000,null]
  }]}
}],"error":null}}`

func testHTTPOptions() HTTPOptions {
	return HTTPOptions{Timeout: 2 * time.Second, Retries: 2, RetryWait: time.Millisecond, UserAgent: "Mozilla/5.0"}
}

func TestYahooSourceParsesChart(t *testing.T) {
	var gotPath, gotRange, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartWithGap))
	}))
	defer srv.Close()

	src := NewYahooSource(srv.URL, testHTTPOptions(), zap.NewNop())
	q := src.Fetch(context.Background(), "GC=F", "5d")

	require.False(t, q.IsError(), q.Error)
	assert.Equal(t, "/v8/finance/chart/GC=F", gotPath)
	assert.Equal(t, "5d", gotRange)
	assert.Equal(t, "Mozilla/5.0", gotUA)

	assert.Equal(t, "GC=F", q.Symbol)
	assert.Equal(t, 105.0, q.CurrentPrice)
	assert.Equal(t, 5.0, q.Change.Unwrap())
	assert.Equal(t, 5.0, q.ChangePercent.Unwrap())
	assert.Equal(t, 106.0, q.High.Unwrap())
	assert.Equal(t, int64(2000), q.Volume.Unwrap())

	require.Len(t, q.History, 3)
	assert.True(t, q.History[2].Close.IsNone())
	assert.Equal(t, "2025-01-06", q.History[0].Date)
}

func TestYahooSourceRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(chartWithGap))
	}))
	defer srv.Close()

	q := NewYahooSource(srv.URL, testHTTPOptions(), zap.NewNop()).Fetch(context.Background(), "^DJI", "1mo")

	require.False(t, q.IsError(), q.Error)
	assert.Equal(t, int32(3), calls.Load())
}

func TestYahooSourceGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	q := NewYahooSource(srv.URL, testHTTPOptions(), zap.NewNop()).Fetch(context.Background(), "SI=F", "5d")

	require.True(t, q.IsError())
	assert.Contains(t, q.Error, "Error fetching data for SI=F")
	assert.Contains(t, q.Error, "429")
	assert.Equal(t, int32(3), calls.Load())
}

func TestYahooSourceChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	q := NewYahooSource(srv.URL, testHTTPOptions(), zap.NewNop()).Fetch(context.Background(), "^VNI", "5d")

	require.True(t, q.IsError())
	assert.Equal(t, "Error: No data found for ^VNI: No data found, symbol may be delisted", q.Error)
	assert.Nil(t, q.Observation)
}

func TestYahooSourceEmptyAndInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"timestamp":[1736121600],"indicators":{"quote":[{"close":[null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	src := NewYahooSource(srv.URL, testHTTPOptions(), zap.NewNop())

	q := src.Fetch(context.Background(), "EURUSD=X", "5d")
	require.True(t, q.IsError())
	assert.Equal(t, "Error: No data found for EURUSD=X", q.Error)

	q = src.Fetch(context.Background(), "EURUSD=X", "fortnight")
	require.True(t, q.IsError())
	assert.Contains(t, q.Error, "unsupported period")
}

func TestYahooSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	opts := testHTTPOptions()
	opts.Retries = 0
	q := NewYahooSource(url, opts, zap.NewNop()).Fetch(context.Background(), "GC=F", "5d")

	require.True(t, q.IsError())
	assert.Contains(t, q.Error, "Error fetching data for GC=F")
}
