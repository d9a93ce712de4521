package recorder

import "context"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ context.Context, _ *CycleRecord) error { return nil }
func (n *NoopRecorder) RecentCycles(_ context.Context, _ int) ([]CycleRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
