package collector

import (
	"time"

	"go.uber.org/zap"

	"MarketDigest/internal/config"
)

// Registry maps a source kind (as named in config) to its Source.
type Registry map[string]Source

// NewRegistry builds the HTTP-backed sources from cfg. Polygon is always registered
// so assets pointing at it without a key degrade to error quotes.
func NewRegistry(cfg *config.Config, logger *zap.Logger) Registry {
	opts := HTTPOptions{
		Timeout:   time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		Retries:   cfg.Fetch.Retries,
		RetryWait: time.Duration(cfg.Fetch.RetryWaitMillis) * time.Millisecond,
		Proxy:     cfg.Proxy,
		UserAgent: "Mozilla/5.0",
	}

	r := Registry{}
	r.Register(NewYahooSource(cfg.Sources.Yahoo.BaseURL, opts, logger.Named("yahoo")))
	r.Register(NewFredSource(cfg.Sources.Fred.BaseURL, cfg.FredKey(), opts, logger.Named("fred")))
	r.Register(NewPolygonSource(cfg.Sources.Polygon.APIKey, logger.Named("polygon")))
	r.Register(NewStaticSource(cfg.Sources.Static.Closes))
	return r
}

// Register adds s under its Name, replacing any source of the same kind.
func (r Registry) Register(s Source) {
	r[s.Name()] = s
}

// Lookup returns the source registered for kind.
func (r Registry) Lookup(kind string) (Source, bool) {
	s, ok := r[kind]
	return s, ok
}
