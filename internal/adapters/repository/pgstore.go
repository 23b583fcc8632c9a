package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
	"github.com/grbuguj/Sinker-IOT/pkg/metrics"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS sensor_data (
	id            BIGSERIAL PRIMARY KEY,
	moisture      DOUBLE PRECISION NOT NULL,
	accel_x       DOUBLE PRECISION NOT NULL,
	accel_y       DOUBLE PRECISION NOT NULL,
	accel_z       DOUBLE PRECISION NOT NULL,
	gyro_x        DOUBLE PRECISION NOT NULL,
	gyro_y        DOUBLE PRECISION NOT NULL,
	gyro_z        DOUBLE PRECISION NOT NULL,
	vibration_raw DOUBLE PRECISION NOT NULL,
	risk_level    INT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sensor_data_created_at ON sensor_data (created_at);

CREATE TABLE IF NOT EXISTS thresholds (
	name  TEXT PRIMARY KEY,
	value DOUBLE PRECISION NOT NULL
);
`

const recordColumns = `id, moisture, accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z, vibration_raw, risk_level, created_at`

// PGStore implements both the history Store and thresholds.Store on a
// Postgres pool. The BIGSERIAL sequence is the id serialization point.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects, pings and bootstraps the schema. A failure here is
// fatal for the caller: the service must not accept readings without a
// working store.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Append inserts one classified reading and returns the assigned record.
func (s *PGStore) Append(ctx context.Context, r model.Reading, level model.RiskLevel, createdAt time.Time) (model.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	}()

	const q = `
INSERT INTO sensor_data (moisture, accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z, vibration_raw, risk_level, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`

	rec := model.Record{
		Moisture:     r.Moisture,
		AccelX:       r.Accel.X,
		AccelY:       r.Accel.Y,
		AccelZ:       r.Accel.Z,
		GyroX:        r.Gyro.X,
		GyroY:        r.Gyro.Y,
		GyroZ:        r.Gyro.Z,
		VibrationRaw: r.VibrationRaw,
		RiskLevel:    level,
		CreatedAt:    createdAt,
	}
	err := s.pool.QueryRow(ctx, q,
		r.Moisture, r.Accel.X, r.Accel.Y, r.Accel.Z,
		r.Gyro.X, r.Gyro.Y, r.Gyro.Z,
		r.VibrationRaw, int(level), createdAt,
	).Scan(&rec.ID)
	if err != nil {
		return model.Record{}, fmt.Errorf("insert sensor_data: %w", err)
	}
	return rec, nil
}

// Latest returns the most recent record by id.
func (s *PGStore) Latest(ctx context.Context) (model.Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM sensor_data ORDER BY id DESC LIMIT 1`, recordColumns)
	rec, err := scanRecord(s.pool.QueryRow(ctx, q))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Record{}, ErrEmpty
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("query latest: %w", err)
	}
	return rec, nil
}

// Query returns matching records newest first; the recency window wins
// over an explicit range.
func (s *PGStore) Query(ctx context.Context, q Query) ([]model.Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	sql := fmt.Sprintf(`SELECT %s FROM sensor_data`, recordColumns)
	args := []any{}
	switch {
	case q.Minutes > 0:
		sql += ` WHERE created_at >= $1`
		args = append(args, time.Now().Add(-time.Duration(q.Minutes)*time.Minute))
	case !q.Start.IsZero() && !q.End.IsZero():
		sql += ` WHERE created_at BETWEEN $1 AND $2`
		args = append(args, q.Start, q.End)
	}
	sql += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]model.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records, zero on query failure.
func (s *PGStore) Count(ctx context.Context) int {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM sensor_data`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close releases the pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// Snapshot implements thresholds.Store.
func (s *PGStore) Snapshot(ctx context.Context) (thresholds.Snapshot, error) {
	values, err := s.thresholdValues(ctx)
	if err != nil {
		return thresholds.Snapshot{}, err
	}
	return thresholds.FromMap(values), nil
}

// All implements thresholds.Store, ordered by name.
func (s *PGStore) All(ctx context.Context) ([]thresholds.Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, value FROM thresholds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query thresholds: %w", err)
	}
	defer rows.Close()

	var out []thresholds.Entry
	for rows.Next() {
		var e thresholds.Entry
		if err := rows.Scan(&e.Name, &e.Value); err != nil {
			return nil, fmt.Errorf("scan threshold row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threshold rows: %w", err)
	}
	return out, nil
}

// Upsert implements thresholds.Store, last write wins.
func (s *PGStore) Upsert(ctx context.Context, name string, value float64) (thresholds.Entry, error) {
	if name == "" {
		return thresholds.Entry{}, thresholds.ErrEmptyName
	}
	const q = `
INSERT INTO thresholds (name, value) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`
	if _, err := s.pool.Exec(ctx, q, name, value); err != nil {
		return thresholds.Entry{}, fmt.Errorf("upsert threshold: %w", err)
	}
	return thresholds.Entry{Name: name, Value: value}, nil
}

// Seed implements thresholds.Store; existing names are never overwritten.
func (s *PGStore) Seed(ctx context.Context, defaults map[string]float64) error {
	const q = `INSERT INTO thresholds (name, value) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	for name, value := range defaults {
		if _, err := s.pool.Exec(ctx, q, name, value); err != nil {
			return fmt.Errorf("seed threshold %s: %w", name, err)
		}
	}
	return nil
}

func (s *PGStore) thresholdValues(ctx context.Context) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, value FROM thresholds`)
	if err != nil {
		return nil, fmt.Errorf("query thresholds: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan threshold row: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threshold rows: %w", err)
	}
	return values, nil
}

// scanRecord reads one record row in recordColumns order.
func scanRecord(row pgx.Row) (model.Record, error) {
	var rec model.Record
	var level int
	err := row.Scan(
		&rec.ID, &rec.Moisture,
		&rec.AccelX, &rec.AccelY, &rec.AccelZ,
		&rec.GyroX, &rec.GyroY, &rec.GyroZ,
		&rec.VibrationRaw, &level, &rec.CreatedAt,
	)
	if err != nil {
		return model.Record{}, err
	}
	rec.RiskLevel = model.RiskLevel(level)
	return rec, nil
}
