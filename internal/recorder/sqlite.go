package recorder

import (
	"context"
	"database/sql"
	"sync"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"MarketDigest/internal/errors"
)

// SQLiteRecorder persists cycle history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "open sqlite", err)
	}

	// WAL so the API can read while a cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "set WAL mode", err)
	}

	r := &SQLiteRecorder{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: logger,
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "migrate", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id            TEXT PRIMARY KEY,
			timestamp     TEXT NOT NULL,
			total_fields  INTEGER,
			valid_fields  INTEGER,
			error_fields  INTEGER,
			quality_score REAL,
			quality_grade TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS asset_prices (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id       TEXT NOT NULL REFERENCES cycles(id),
			asset          TEXT NOT NULL,
			price          REAL,
			change         REAL,
			change_percent REAL,
			currency       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_asset_prices_cycle ON asset_prices(cycle_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(errors.ErrCodePersistenceFailure, err, "exec %q", s[:40])
		}
	}
	return nil
}

// RecordCycle writes the cycle row and its asset rows in one transaction.
func (r *SQLiteRecorder) RecordCycle(ctx context.Context, rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailure, "begin cycle insert", err)
	}

	_, err = r.sq.
		Insert("cycles").
		Columns("id", "timestamp", "total_fields", "valid_fields", "error_fields", "quality_score", "quality_grade").
		Values(rec.ID, rec.Timestamp, rec.TotalFields, rec.ValidFields, rec.ErrorFields, rec.QualityScore, rec.QualityGrade).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(errors.ErrCodePersistenceFailure, "insert cycle", err)
	}

	if len(rec.Assets) > 0 {
		insert := r.sq.
			Insert("asset_prices").
			Columns("cycle_id", "asset", "price", "change", "change_percent", "currency")
		for _, a := range rec.Assets {
			insert = insert.Values(rec.ID, a.Asset, a.Price, a.Change, a.ChangePercent, a.Currency)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			tx.Rollback()
			return errors.Wrap(errors.ErrCodePersistenceFailure, "insert asset prices", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailure, "commit cycle", err)
	}
	return nil
}

// RecentCycles returns up to limit cycles, newest first, with their assets.
func (r *SQLiteRecorder) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.sq.
		Select("id", "timestamp", "total_fields", "valid_fields", "error_fields", "quality_score", "quality_grade").
		From("cycles").
		OrderBy("timestamp DESC", "rowid DESC").
		Limit(uint64(limit)).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "query cycles", err)
	}
	defer rows.Close()

	var cycles []CycleRecord
	index := map[string]int{}
	for rows.Next() {
		var c CycleRecord
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.TotalFields, &c.ValidFields, &c.ErrorFields, &c.QualityScore, &c.QualityGrade); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "scan cycle", err)
		}
		index[c.ID] = len(cycles)
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "iterate cycles", err)
	}
	if len(cycles) == 0 {
		return cycles, nil
	}

	ids := make([]string, len(cycles))
	for i, c := range cycles {
		ids[i] = c.ID
	}

	assetRows, err := r.sq.
		Select("cycle_id", "asset", "price", "change", "change_percent", "currency").
		From("asset_prices").
		Where(squirrel.Eq{"cycle_id": ids}).
		OrderBy("cycle_id", "asset").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "query asset prices", err)
	}
	defer assetRows.Close()

	for assetRows.Next() {
		var cycleID string
		var a AssetPrice
		if err := assetRows.Scan(&cycleID, &a.Asset, &a.Price, &a.Change, &a.ChangePercent, &a.Currency); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "scan asset price", err)
		}
		i := index[cycleID]
		cycles[i].Assets = append(cycles[i].Assets, a)
	}
	if err := assetRows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailure, "iterate asset prices", err)
	}

	return cycles, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
