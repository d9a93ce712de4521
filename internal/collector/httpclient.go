package collector

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// MaxRetries caps HTTPOptions.Retries.
const MaxRetries = 3

// HTTPOptions configures the client each HTTP source builds for itself.
type HTTPOptions struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	Proxy     string
	UserAgent string
}

// DefaultHTTPOptions matches the stock fetch config.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:   15 * time.Second,
		Retries:   2,
		RetryWait: 500 * time.Millisecond,
		UserAgent: "Mozilla/5.0",
	}
}

func newHTTPClient(baseURL string, opts HTTPOptions, logger *zap.Logger) *resty.Client {
	retries := opts.Retries
	if retries > MaxRetries {
		retries = MaxRetries
	}
	if retries < 0 {
		retries = 0
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(2*opts.RetryWait).
		SetLogger(logger.Sugar()).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := resp.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})

	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}
	return client
}
