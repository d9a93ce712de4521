package notifier

import (
	"context"

	"go.uber.org/zap"

	"MarketDigest/internal/model"
	"MarketDigest/internal/quality"
)

// Sender delivers a message, retrying up to maxRetries times.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// QualityAlert sends a message whenever a snapshot grades below a threshold.
type QualityAlert struct {
	sender     Sender
	alertBelow string
	retries    int
	logger     *zap.Logger
}

// NewQualityAlert alerts through sender when the grade ranks below alertBelow.
func NewQualityAlert(sender Sender, alertBelow string, logger *zap.Logger) *QualityAlert {
	return &QualityAlert{sender: sender, alertBelow: alertBelow, retries: 3, logger: logger}
}

// Name identifies the alert sink.
func (a *QualityAlert) Name() string { return "telegram" }

// Handle scores snapshot and sends the alert if needed.
func (a *QualityAlert) Handle(ctx context.Context, snapshot *model.Snapshot) error {
	report := quality.ScoreSnapshot(snapshot)
	if quality.GradeRank(report.QualityGrade) >= quality.GradeRank(a.alertBelow) {
		return nil
	}

	a.logger.Info("quality below threshold, alerting",
		zap.String("grade", report.QualityGrade),
		zap.String("alert_below", a.alertBelow),
	)
	return a.sender.SendWithRetry(ctx, FormatQualityAlert(snapshot, report), a.retries)
}
