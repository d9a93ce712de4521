package collector

import (
	"context"

	"go.uber.org/zap"

	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
)

// Source wraps one upstream provider. Fetch never fails: every problem comes back
// as an error Quote naming the id and the cause.
type Source interface {
	Fetch(ctx context.Context, id, period string) model.Quote
	Name() string
}

// settle turns a provider call's outcome into a Quote and logs failures. Missing
// credentials are expected in development and only logged at info.
func settle(logger *zap.Logger, source, id string, obs *model.Observation, err error) model.Quote {
	if err == nil {
		return model.NewQuote(*obs)
	}

	fields := []zap.Field{
		zap.String("source", source),
		zap.String("id", id),
		zap.String("code", errors.GetCode(err).String()),
		zap.Error(err),
	}
	if errors.HasCode(err, errors.ErrCodeMissingCredential) {
		logger.Info("source skipped", fields...)
	} else {
		logger.Warn("source fetch failed", fields...)
	}

	return model.ErrorQuote(errors.Describe(err))
}
