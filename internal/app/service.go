// Package service wires the ingestion pipeline: classify, persist,
// broadcast. It implements the dependencies required by the HTTP API and
// the MQTT bridge.
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	repository "github.com/grbuguj/Sinker-IOT/internal/adapters/repository"
	"github.com/grbuguj/Sinker-IOT/internal/adapters/ws"
	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/internal/domain/risk"
	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
	"github.com/grbuguj/Sinker-IOT/pkg/logger"
	"github.com/grbuguj/Sinker-IOT/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultTimezone     = "Asia/Seoul"
	csvTimestampLayout  = "2006-01-02 15:04:05"
	clientNaiveTSLayout = "2006-01-02T15:04:05"
)

// csvHeader is the fixed bulk-export column order.
var csvHeader = []string{
	"created_at", "moisture",
	"accel_x", "accel_y", "accel_z",
	"gyro_x", "gyro_y", "gyro_z",
	"vibration_raw", "risk_level",
}

// Ack is the result of one accepted reading.
type Ack struct {
	ID        int64
	RiskLevel model.RiskLevel
}

// HistoryQuery mirrors the query surface: a recency window in minutes XOR
// an explicit range, plus a limit. Minutes wins when both are supplied.
type HistoryQuery = repository.Query

// Service is the ingestion pipeline plus its read surfaces. One instance
// is constructed per server and injected into the transport adapters.
type Service struct {
	mu sync.RWMutex

	// Core components.
	history    repository.Store
	thresholds thresholds.Store
	strategy   risk.Strategy
	hub        *ws.Hub

	// Configuration.
	strategyName string
	timezone     string
	location     *time.Location
	queryLimit   int
	exportLimit  int
	hubQueueSize int

	// State.
	started bool
	now     func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithHistoryStore injects a history store; the default is in-memory.
func WithHistoryStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.history = store
		}
	}
}

// WithThresholdStore injects a threshold store; the default is in-memory.
func WithThresholdStore(store thresholds.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.thresholds = store
		}
	}
}

// WithStrategy selects the risk strategy by name (fusion or delta).
func WithStrategy(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.strategyName = name
		}
	}
}

// WithTimezone sets the service timezone used to normalize timestamps.
func WithTimezone(tz string) Option {
	return func(s *Service) {
		if tz != "" {
			s.timezone = tz
		}
	}
}

// WithQueryLimit caps interactive history queries.
func WithQueryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.queryLimit = limit
		}
	}
}

// WithExportLimit caps bulk CSV exports.
func WithExportLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.exportLimit = limit
		}
	}
}

// WithHubQueueSize sets the per-subscriber outbound queue size.
func WithHubQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.hubQueueSize = size
		}
	}
}

// WithClock overrides the wall clock. Tests use this for deterministic
// receipt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		strategyName: risk.StrategyFusion,
		timezone:     defaultTimezone,
		queryLimit:   repository.DefaultQueryLimit,
		exportLimit:  repository.ExportQueryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the pipeline. Any failure here is fatal to the caller:
// the service must not accept readings when classification or persistence
// cannot occur.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}

	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", s.timezone, err)
	}
	s.location = loc

	strategy, err := risk.Select(s.strategyName)
	if err != nil {
		return err
	}
	s.strategy = strategy

	if s.history == nil {
		s.history = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory history store")
	}
	if s.thresholds == nil {
		s.thresholds = thresholds.NewMemStore()
		s.logger.Info(ctx, "using in-memory threshold store")
	}
	if err := s.thresholds.Seed(ctx, thresholds.Defaults()); err != nil {
		return fmt.Errorf("seed thresholds: %w", err)
	}

	// Validate the effective parameter set before accepting anything.
	snap, err := s.thresholds.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read threshold snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	hubOpts := []ws.Option{ws.WithLogger(s.logger.Named("hub"))}
	if s.hubQueueSize > 0 {
		hubOpts = append(hubOpts, ws.WithQueueSize(s.hubQueueSize))
	}
	s.hub = ws.NewHub(hubOpts...)

	s.started = true
	s.logger.Info(ctx, "ingestion pipeline started",
		logger.String("strategy", s.strategyName),
		logger.String("timezone", s.timezone),
		logger.Int("queryLimit", s.queryLimit),
		logger.Int("exportLimit", s.exportLimit),
	)
	return nil
}

// Stop shuts the pipeline down and releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.hub.Shutdown()
	if err := s.history.Close(); err != nil {
		s.logger.Error(context.Background(), "closing history store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(context.Background(), "ingestion pipeline stopped")
}

// Accept runs one reading through classify, persist and broadcast.
//
// The broadcast step is best-effort: once the record is persisted the call
// succeeds regardless of subscriber failures.
func (s *Service) Accept(ctx context.Context, r model.Reading) (Ack, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIngestLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return Ack{}, ErrNotStarted
	}

	if err := risk.Validate(r); err != nil {
		metrics.RecordReadingRejected()
		return Ack{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	snap, err := s.thresholds.Snapshot(ctx)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: %s", ErrPersistence, err)
	}
	level, err := s.strategy.Classify(r, snap)
	if err != nil {
		metrics.RecordReadingRejected()
		return Ack{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	createdAt := s.recordTimestamp(r.Timestamp)
	rec, err := s.history.Append(ctx, r, level, createdAt)
	if err != nil {
		metrics.RecordPersistenceError()
		s.logger.Error(ctx, "failed to persist reading", logger.Error(err))
		return Ack{}, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	metrics.RecordReadingAccepted(level.String())
	s.logger.Debug(ctx, "reading accepted",
		logger.Int64("id", rec.ID),
		logger.String("riskLevel", level.String()),
		logger.Float64("moisture", r.Moisture),
		logger.Float64("vibrationRaw", r.VibrationRaw),
	)

	s.hub.Publish(ctx, rec)

	return Ack{ID: rec.ID, RiskLevel: level}, nil
}

// recordTimestamp prefers a valid client-supplied timestamp normalized to
// the service timezone and falls back to server receipt time.
func (s *Service) recordTimestamp(clientTS string) time.Time {
	if clientTS != "" {
		if t, err := time.Parse(time.RFC3339, clientTS); err == nil {
			return t.In(s.location)
		}
		// Devices without a zone-aware clock send naive local timestamps.
		if t, err := time.ParseInLocation(clientNaiveTSLayout, clientTS, s.location); err == nil {
			return t
		}
	}
	return s.now().In(s.location)
}

// Latest returns the most recent record.
func (s *Service) Latest(ctx context.Context) (model.Record, error) {
	return s.history.Latest(ctx)
}

// History returns matching records newest first, capped at the
// interactive query limit.
func (s *Service) History(ctx context.Context, q HistoryQuery) ([]model.Record, error) {
	if q.Limit <= 0 || q.Limit > s.queryLimit {
		q.Limit = s.queryLimit
	}
	return s.history.Query(ctx, q)
}

// ExportCSV streams matching records as CSV, oldest first, in the fixed
// export column order. Returns the number of data rows written.
func (s *Service) ExportCSV(ctx context.Context, q HistoryQuery, w io.Writer) (int, error) {
	q.Limit = s.exportLimit
	records, err := s.history.Query(ctx, q)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	// Query is newest first; serialization is oldest first.
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		row := []string{
			rec.CreatedAt.Format(csvTimestampLayout),
			formatFloat(rec.Moisture),
			formatFloat(rec.AccelX), formatFloat(rec.AccelY), formatFloat(rec.AccelZ),
			formatFloat(rec.GyroX), formatFloat(rec.GyroY), formatFloat(rec.GyroZ),
			formatFloat(rec.VibrationRaw),
			strconv.Itoa(int(rec.RiskLevel)),
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(records), nil
}

// Thresholds lists all threshold entries.
func (s *Service) Thresholds(ctx context.Context) ([]thresholds.Entry, error) {
	return s.thresholds.All(ctx)
}

// UpsertThreshold creates or overwrites one threshold. The new value is
// observed by the next classification's snapshot.
func (s *Service) UpsertThreshold(ctx context.Context, name string, value float64) (thresholds.Entry, error) {
	entry, err := s.thresholds.Upsert(ctx, name, value)
	if err != nil {
		return thresholds.Entry{}, err
	}
	metrics.RecordThresholdUpdate()
	s.logger.Info(ctx, "threshold updated",
		logger.String("name", entry.Name),
		logger.Float64("value", entry.Value),
	)
	return entry, nil
}

// Subscribe registers a live observer connection with the hub.
func (s *Service) Subscribe(conn ws.Conn) *ws.Subscriber {
	return s.hub.Connect(conn)
}

// Unsubscribe removes a live observer; safe on already-removed handles.
func (s *Service) Unsubscribe(sub *ws.Subscriber) {
	s.hub.Disconnect(sub)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":  s.started,
		"strategy": s.strategyName,
		"timezone": s.timezone,
	}
	if s.started {
		stats["historyRecords"] = s.history.Count(context.Background())
		stats["subscribers"] = s.hub.Count()
	}
	return stats
}

// formatFloat renders a float the way the export consumers expect:
// shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
