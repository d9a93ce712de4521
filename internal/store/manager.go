package store

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"MarketDigest/internal/config"
	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
	"MarketDigest/internal/quality"
	"MarketDigest/internal/recorder"
	"MarketDigest/internal/report"
)

// Files written under the data directory.
const (
	LatestFile  = "latest_data.json"
	SummaryFile = "summary_data.json"
	HistoryFile = "historical_data.json"
	ArchiveDir  = "archive"
)

const (
	DefaultHistoryLimit = 90
	UpdateTimeLayout    = "2006-01-02 15:04:05 UTC"
	fileStampLayout     = "20060102_150405"
)

// Manager persists each snapshot and maintains the derived summary and history.
type Manager struct {
	dataDir      string
	historyLimit int
	catalog      []config.SummaryAsset
	recorder     recorder.Recorder
	archive      ArchiveSaver
	formatter    *report.Formatter
	reportPath   string
	logger       *zap.Logger
	now          func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithHistoryLimit caps the history ledger at n entries.
func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.historyLimit = n
		}
	}
}

// WithRecorder records every derived summary as a cycle.
func WithRecorder(r recorder.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithArchive writes every snapshot's rows with saver. A nil saver disables archiving.
func WithArchive(saver ArchiveSaver) Option {
	return func(m *Manager) { m.archive = saver }
}

// WithReport renders the text report to path after every cycle.
func WithReport(path string, formatter *report.Formatter) Option {
	return func(m *Manager) {
		m.reportPath = path
		m.formatter = formatter
	}
}

// WithClock overrides the time source used for file names and summary stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager writing under dataDir. catalog selects which quotes
// reach the summary.
func NewManager(dataDir string, catalog []config.SummaryAsset, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		dataDir:      dataDir,
		historyLimit: DefaultHistoryLimit,
		catalog:      catalog,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name identifies the manager as a sink.
func (m *Manager) Name() string { return "store" }

// Handle runs every persistence step for snapshot. Each step is attempted even when
// an earlier one failed; all failures are returned joined.
func (m *Manager) Handle(ctx context.Context, snapshot *model.Snapshot) error {
	var errs []error

	if err := m.SaveSnapshot(snapshot); err != nil {
		errs = append(errs, err)
	}

	summary := m.DeriveSummary(snapshot)
	if err := m.WriteSummary(summary); err != nil {
		errs = append(errs, err)
	}
	if err := m.appendHistory(summary); err != nil {
		errs = append(errs, err)
	}

	if m.formatter != nil {
		if err := m.WriteReport(snapshot, summary.DataQuality); err != nil {
			errs = append(errs, err)
		}
	}

	if m.archive != nil {
		if _, err := m.SaveArchive(snapshot); err != nil {
			errs = append(errs, err)
		}
	}

	if m.recorder != nil {
		if err := m.recorder.RecordCycle(ctx, recorder.NewCycleRecord(summary)); err != nil {
			errs = append(errs, errors.Wrap(errors.ErrCodePersistenceFailure, "record cycle", err))
		}
	}

	if len(errs) == 0 {
		m.logger.Info("cycle persisted",
			zap.Float64("quality_score", summary.DataQuality.QualityScore),
			zap.String("quality_grade", summary.DataQuality.QualityGrade),
			zap.Int("assets", len(summary.Assets)),
		)
	}

	return errors.Join(errs...)
}

// SaveSnapshot writes the timestamped snapshot file and overwrites latest_data.json.
// Both writes are attempted.
func (m *Manager) SaveSnapshot(snapshot *model.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailure, "encode snapshot", err)
	}

	stamped := filepath.Join(m.dataDir, "financial_data_"+m.now().UTC().Format(fileStampLayout)+".json")
	latest := filepath.Join(m.dataDir, LatestFile)

	var errs []error
	written := 0
	for _, path := range []string{stamped, latest} {
		if err := writeFileAtomic(path, data); err != nil {
			errs = append(errs, errors.Wrapf(errors.ErrCodePersistenceFailure, err, "write %s", path))
			continue
		}
		written++
	}

	if written == 1 {
		m.logger.Warn("snapshot partially written", zap.Errors("errors", errs))
	}

	return errors.Join(errs...)
}

// DeriveSummary projects snapshot onto the summary catalog. Missing and failed quotes
// are left out; absent change fields become 0.
func (m *Manager) DeriveSummary(snapshot *model.Snapshot) model.Summary {
	now := m.now()
	summary := model.Summary{
		Timestamp:   model.FormatTimestamp(now),
		UpdateTime:  now.UTC().Format(UpdateTimeLayout),
		DataQuality: quality.ScoreSnapshot(snapshot),
		Assets:      make(map[string]model.AssetSummary, len(m.catalog)),
	}

	for _, asset := range m.catalog {
		q, ok := snapshot.Quote(asset.Category, asset.Quote)
		if !ok || q.IsError() {
			continue
		}
		summary.Assets[asset.Key] = model.AssetSummary{
			Name:          asset.Name,
			Price:         q.CurrentPrice,
			Change:        q.Change.Unwrap(),
			ChangePercent: q.ChangePercent.Unwrap(),
			Currency:      asset.Currency,
			Unit:          asset.Unit,
		}
	}

	return summary
}

// WriteSummary overwrites summary_data.json.
func (m *Manager) WriteSummary(summary model.Summary) error {
	return m.writeJSON(SummaryFile, summary)
}

// UpdateHistory appends the summary of snapshot to the history ledger, keeping the
// most recent entries up to the configured limit.
func (m *Manager) UpdateHistory(snapshot *model.Snapshot) error {
	return m.appendHistory(m.DeriveSummary(snapshot))
}

func (m *Manager) appendHistory(summary model.Summary) error {
	entries, err := m.readHistory()
	if err != nil {
		// a corrupt ledger is replaced rather than blocking the cycle
		m.logger.Warn("history ledger unreadable, starting fresh", zap.Error(err))
		entries = nil
	}

	now := m.now()
	entries = append(entries, model.HistoryEntry{
		Timestamp: model.FormatTimestamp(now),
		Date:      now.UTC().Format(model.DateLayout),
		Data:      summary,
	})
	if len(entries) > m.historyLimit {
		entries = entries[len(entries)-m.historyLimit:]
	}

	return m.writeJSON(HistoryFile, entries)
}

// WriteReport renders the text report for snapshot.
func (m *Manager) WriteReport(snapshot *model.Snapshot, q model.QualityReport) error {
	if m.formatter == nil {
		return nil
	}
	text := m.formatter.Render(snapshot, q, m.now())
	if err := writeFileAtomic(m.reportPath, []byte(text)); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailure, err, "write %s", m.reportPath)
	}
	return nil
}

// SaveArchive writes snapshot's rows to archive/quotes_<ts>.<ext> and returns the path.
func (m *Manager) SaveArchive(snapshot *model.Snapshot) (string, error) {
	if m.archive == nil {
		return "", nil
	}
	dir := filepath.Join(m.dataDir, ArchiveDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodePersistenceFailure, err, "create %s", dir)
	}

	path := filepath.Join(dir, "quotes_"+m.now().UTC().Format(fileStampLayout)+"."+m.archive.Extension())
	tmp := path + ".tmp"
	if err := m.archive.Save(Rows(snapshot), tmp); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrapf(errors.ErrCodePersistenceFailure, err, "archive %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrapf(errors.ErrCodePersistenceFailure, err, "archive %s", path)
	}
	return path, nil
}

// LoadSummary reads the last written summary.
func (m *Manager) LoadSummary() (model.Summary, error) {
	var summary model.Summary
	data, err := os.ReadFile(filepath.Join(m.dataDir, SummaryFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return summary, errors.Wrap(errors.ErrCodeEmptyResult, "no summary written yet", err)
		}
		return summary, errors.Wrap(errors.ErrCodePersistenceFailure, "read summary", err)
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, errors.Wrap(errors.ErrCodeParseFailed, "decode summary", err)
	}
	return summary, nil
}

// LoadHistory returns the history ledger, oldest first. A missing ledger is empty.
func (m *Manager) LoadHistory() ([]model.HistoryEntry, error) {
	entries, err := m.readHistory()
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return entries, nil
}

func (m *Manager) readHistory() ([]model.HistoryEntry, error) {
	path := filepath.Join(m.dataDir, HistoryFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Info("no history ledger yet", zap.String("path", path))
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "read history", err)
	}

	var entries []model.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptHistory, "decode history", err)
	}
	return entries, nil
}

func (m *Manager) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailure, err, "encode %s", name)
	}
	path := filepath.Join(m.dataDir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailure, err, "write %s", path)
	}
	return nil
}

// writeFileAtomic replaces path with data through a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
