package mocks

//go:generate mockgen -destination=./mock_source.go -package=mocks MarketDigest/internal/collector Source
//go:generate mockgen -destination=./mock_sink.go -package=mocks MarketDigest/internal/aggregator Sink
