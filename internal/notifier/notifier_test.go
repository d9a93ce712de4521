package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
)

func telegramServer(t *testing.T, failures int32, got *sendMessageRequest) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) <= failures {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Gateway"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSendPostsMessage(t *testing.T) {
	var got sendMessageRequest
	srv, calls := telegramServer(t, 0, &got)
	n := NewTelegramNotifier("token", "42", zap.NewNop(), WithAPIBaseURL(srv.URL))

	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "<b>hi</b>", got.Text)
	assert.Equal(t, "HTML", got.ParseMode)
}

func TestSendReportsAPIError(t *testing.T) {
	srv, _ := telegramServer(t, 1, nil)
	n := NewTelegramNotifier("token", "42", zap.NewNop(), WithAPIBaseURL(srv.URL))

	err := n.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotificationFailed))
	assert.Contains(t, err.Error(), "Bad Gateway")
}

func TestSendWithRetry(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		srv, calls := telegramServer(t, 2, nil)
		n := NewTelegramNotifier("token", "42", zap.NewNop(), WithAPIBaseURL(srv.URL), WithBackoff(time.Millisecond))

		require.NoError(t, n.SendWithRetry(context.Background(), "hi", 3))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("exhausted", func(t *testing.T) {
		srv, calls := telegramServer(t, 10, nil)
		n := NewTelegramNotifier("token", "42", zap.NewNop(), WithAPIBaseURL(srv.URL), WithBackoff(time.Millisecond))

		err := n.SendWithRetry(context.Background(), "hi", 2)
		require.Error(t, err)
		assert.Equal(t, int32(3), calls.Load())
		assert.Contains(t, err.Error(), "all 3 attempts exhausted")
	})

	t.Run("cancelled", func(t *testing.T) {
		srv, _ := telegramServer(t, 10, nil)
		n := NewTelegramNotifier("token", "42", zap.NewNop(), WithAPIBaseURL(srv.URL), WithBackoff(time.Hour))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, n.SendWithRetry(ctx, "hi", 3), context.DeadlineExceeded)
	})
}

type recordingSender struct {
	messages []string
}

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int) error {
	r.messages = append(r.messages, text)
	return nil
}

func snapshotWith(quotes map[string]model.Quote) *model.Snapshot {
	return &model.Snapshot{
		Timestamp: "2025-01-02T03:04:05Z",
		Categories: map[string]model.CategoryBlock{
			model.CategoryPreciousMetals: {Timestamp: "2025-01-02T03:04:05Z", Quotes: quotes},
		},
	}
}

func TestQualityAlert(t *testing.T) {
	healthy := snapshotWith(map[string]model.Quote{
		"gold": model.NewQuote(model.Observation{Symbol: "GC=F", CurrentPrice: 2000, Timestamp: "2025-01-02T03:04:05Z"}),
	})
	broken := snapshotWith(map[string]model.Quote{
		"gold":   model.ErrorQuote("Error fetching data for GC=F: timeout"),
		"silver": model.ErrorQuote("Error fetching data for SI=F: <status 503>"),
	})

	sender := &recordingSender{}
	alert := NewQualityAlert(sender, "C", zap.NewNop())
	assert.Equal(t, "telegram", alert.Name())

	require.NoError(t, alert.Handle(context.Background(), healthy))
	assert.Empty(t, sender.messages)

	require.NoError(t, alert.Handle(context.Background(), broken))
	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Contains(t, msg, "Grade F")
	assert.Contains(t, msg, "Valid fields: 2/4")
	assert.Contains(t, msg, "precious_metals/gold: Error fetching data for GC=F: timeout")
	assert.Contains(t, msg, "&lt;status 503&gt;")
	assert.Less(t, strings.Index(msg, "/gold"), strings.Index(msg, "/silver"))
}
