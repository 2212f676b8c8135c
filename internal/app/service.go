// Package service provides the staging pipeline service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/encore/internal/adapters/blobstore"
	"github.com/okian/encore/internal/domain/aggregate"
	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/scoring"
	"github.com/okian/encore/internal/domain/types"
	"github.com/okian/encore/internal/domain/validate"
	"github.com/okian/encore/pkg/logger"
	"github.com/okian/encore/pkg/metrics"
)

// Layer names used in blob keys, metrics labels and stats.
const (
	layerRaw        = "raw"
	layerValidated  = "validated"
	layerAggregated = "aggregated"
)

const keyTimeLayout = "20060102_150405"

// Service wires the staging layers over a single blob store. Each batch
// moves forward through Raw, Validated and Aggregated; re-running a stage
// overwrites that layer's output for the batch and never touches earlier
// layers.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       blobstore.Store
	builder     *aggregate.Builder
	recommender *scoring.Recommender

	// Configuration
	rawFolder        string
	validatedFolder  string
	aggregatedFolder string
	weightCost       float64
	weightRemaining  float64
	weightExperience float64
	topN             int

	// Clock, swappable in tests so key timestamps are deterministic.
	now func() time.Time

	// Counters for the stats endpoint
	batchesStaged int64
	rowsValidated int64
	rowsRejected  int64
	recommendHits int64

	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the blob store backing all three staging layers.
func WithStore(store blobstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFolders sets the key prefixes of the three staging layers.
func WithFolders(raw, validated, aggregated string) Option {
	return func(s *Service) {
		if raw != "" {
			s.rawFolder = raw
		}
		if validated != "" {
			s.validatedFolder = validated
		}
		if aggregated != "" {
			s.aggregatedFolder = aggregated
		}
	}
}

// WithWeights sets the scoring weights for recommendations.
func WithWeights(cost, remaining, experience float64) Option {
	return func(s *Service) {
		if cost >= 0 && remaining >= 0 && experience >= 0 {
			s.weightCost = cost
			s.weightRemaining = remaining
			s.weightExperience = experience
		}
	}
}

// WithTopN sets the default number of recommendations returned.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithExperienceFunc overrides the experience-value formula used by the
// aggregation layer.
func WithExperienceFunc(fn aggregate.ExperienceFunc) Option {
	return func(s *Service) {
		if fn != nil {
			s.builder = aggregate.NewBuilder(aggregate.WithExperienceFunc(fn))
		}
	}
}

// WithClock overrides the time source used for blob key timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		rawFolder:        "raw/",
		validatedFolder:  "validated/",
		aggregatedFolder: "aggregated/",
		weightCost:       0.40,
		weightRemaining:  0.30,
		weightExperience: 0.30,
		topN:             10,
		builder:          aggregate.NewBuilder(),
		now:              time.Now,
		logger:           nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start finalizes configuration and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		return ErrStoreRequired
	}

	s.recommender = scoring.NewRecommender(
		scoring.WithWeights(s.weightCost, s.weightRemaining, s.weightExperience),
		scoring.WithTopN(s.topN),
	)

	s.started = true
	s.logger.Info(ctx, "staging pipeline service started",
		logger.String("rawFolder", s.rawFolder),
		logger.String("validatedFolder", s.validatedFolder),
		logger.String("aggregatedFolder", s.aggregatedFolder),
		logger.Int("topN", s.topN),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "staging pipeline service stopped")
}

// WriteRaw stores an upload verbatim in the Raw layer under a fresh batch
// id and returns the handle all later stages key off.
func (s *Service) WriteRaw(ctx context.Context, data []byte, sourceName string) (model.RawHandle, error) {
	start := time.Now()

	batchID := uuid.New().String()
	key := s.layerKey(s.rawFolder, batchID, layerRaw)

	if err := s.store.Put(ctx, key, data); err != nil {
		return model.RawHandle{}, fmt.Errorf("staging raw batch %s: %w", batchID, err)
	}

	metrics.RecordBatchStaged(layerRaw)
	metrics.RecordStageLatency(layerRaw, float64(time.Since(start).Milliseconds()))

	s.logger.Info(ctx, "raw batch staged",
		logger.String("batchID", batchID),
		logger.String("key", key),
		logger.String("source", sourceName),
		logger.Int("bytes", len(data)),
	)

	return model.RawHandle{
		BatchID:    batchID,
		Key:        key,
		SourceName: sourceName,
	}, nil
}

// Validate reads a batch's raw bytes, enforces the concert schema and
// writes the surviving rows to the Validated layer. Rejected rows are
// tallied on the returned batch, not raised.
func (s *Service) Validate(ctx context.Context, handle model.RawHandle) (model.ValidatedBatch, error) {
	start := time.Now()

	data, err := s.store.Get(ctx, handle.Key)
	if err != nil {
		return model.ValidatedBatch{}, fmt.Errorf("reading raw batch %s: %w", handle.BatchID, err)
	}

	records, rejected, err := validate.ParseBatch(data)
	if err != nil {
		metrics.RecordEmptyBatch()
		metrics.RecordRowsRejected(rejected)
		return model.ValidatedBatch{}, fmt.Errorf("validating batch %s: %w", handle.BatchID, err)
	}

	encoded, err := validate.EncodeBatch(records)
	if err != nil {
		return model.ValidatedBatch{}, fmt.Errorf("encoding validated batch %s: %w", handle.BatchID, err)
	}

	key := s.layerKey(s.validatedFolder, handle.BatchID, layerValidated)
	if err := s.store.Put(ctx, key, encoded); err != nil {
		return model.ValidatedBatch{}, fmt.Errorf("staging validated batch %s: %w", handle.BatchID, err)
	}

	metrics.RecordBatchStaged(layerValidated)
	metrics.RecordStageLatency(layerValidated, float64(time.Since(start).Milliseconds()))
	metrics.RecordRowsValidated(len(records))
	metrics.RecordRowsRejected(rejected)

	s.mu.Lock()
	s.batchesStaged++
	s.rowsValidated += int64(len(records))
	s.rowsRejected += int64(rejected)
	s.mu.Unlock()

	s.logger.Info(ctx, "validated batch staged",
		logger.String("batchID", handle.BatchID),
		logger.String("key", key),
		logger.Int("records", len(records)),
		logger.Int("rejected", rejected),
	)

	return model.ValidatedBatch{
		Handle:        handle,
		Records:       records,
		RejectedCount: rejected,
	}, nil
}

// Aggregate derives batch-relative metrics for every validated record and
// writes them to the Aggregated layer. The output depends only on the
// batch contents, never on any budget.
func (s *Service) Aggregate(ctx context.Context, batch model.ValidatedBatch) (model.AggregatedBatch, error) {
	start := time.Now()

	entries := s.builder.Build(batch.Records)

	encoded, err := aggregate.EncodeBatch(entries)
	if err != nil {
		return model.AggregatedBatch{}, fmt.Errorf("encoding aggregated batch %s: %w", batch.Handle.BatchID, err)
	}

	key := s.layerKey(s.aggregatedFolder, batch.Handle.BatchID, layerAggregated)
	if err := s.store.Put(ctx, key, encoded); err != nil {
		return model.AggregatedBatch{}, fmt.Errorf("staging aggregated batch %s: %w", batch.Handle.BatchID, err)
	}

	metrics.RecordBatchStaged(layerAggregated)
	metrics.RecordStageLatency(layerAggregated, float64(time.Since(start).Milliseconds()))

	s.logger.Info(ctx, "aggregated batch staged",
		logger.String("batchID", batch.Handle.BatchID),
		logger.String("key", key),
		logger.Int("entries", len(entries)),
	)

	return model.AggregatedBatch{
		Handle:  batch.Handle,
		Entries: entries,
	}, nil
}

// Ingest runs a raw upload through all three staging layers and returns
// the fully aggregated batch.
func (s *Service) Ingest(ctx context.Context, data []byte, sourceName string) (model.AggregatedBatch, int, error) {
	handle, err := s.WriteRaw(ctx, data, sourceName)
	if err != nil {
		return model.AggregatedBatch{}, 0, err
	}

	validated, err := s.Validate(ctx, handle)
	if err != nil {
		return model.AggregatedBatch{}, validated.RejectedCount, err
	}

	aggregated, err := s.Aggregate(ctx, validated)
	if err != nil {
		return model.AggregatedBatch{}, validated.RejectedCount, err
	}

	return aggregated, validated.RejectedCount, nil
}

// Recommend scores a batch's aggregated entries against a budget and
// returns the ranked, affordable subset. The newest Aggregated object in
// the batch's namespace wins when a stage has been re-run.
func (s *Service) Recommend(ctx context.Context, batchID string, budget float64, topN int) ([]types.Recommendation, error) {
	start := time.Now()
	metrics.RecordRecommendRequest()

	prefix := s.aggregatedFolder + batchID + "/"
	keys, err := s.store.List(ctx, prefix)
	if err != nil {
		metrics.RecordScoringError()
		return nil, fmt.Errorf("listing aggregated layer for batch %s: %w", batchID, err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no aggregated output for batch %s: %w", batchID, blobstore.ErrNotFound)
	}

	// Keys embed the staging timestamp, so lexical order is stage order.
	newest := keys[len(keys)-1]

	data, err := s.store.Get(ctx, newest)
	if err != nil {
		metrics.RecordScoringError()
		return nil, fmt.Errorf("reading aggregated batch %s: %w", batchID, err)
	}

	entries, err := aggregate.DecodeBatch(data)
	if err != nil {
		metrics.RecordScoringError()
		return nil, fmt.Errorf("decoding aggregated batch %s: %w", batchID, err)
	}

	recs, err := s.recommender.Recommend(ctx, entries, budget, topN)
	if err != nil {
		metrics.RecordScoringError()
		return nil, err
	}

	metrics.RecordRecommendLatency(float64(time.Since(start).Milliseconds()))
	if len(recs) == 0 {
		metrics.RecordRecommendEmpty()
	}

	s.mu.Lock()
	s.recommendHits++
	s.mu.Unlock()

	s.logger.Info(ctx, "recommendations served",
		logger.String("batchID", batchID),
		logger.Float64("budget", budget),
		logger.Int("returned", len(recs)),
	)

	return recs, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started":          s.started,
		"batchesStaged":    s.batchesStaged,
		"rowsValidated":    s.rowsValidated,
		"rowsRejected":     s.rowsRejected,
		"recommendations":  s.recommendHits,
		"rawFolder":        s.rawFolder,
		"validatedFolder":  s.validatedFolder,
		"aggregatedFolder": s.aggregatedFolder,
	}
}

// layerKey builds the blob key for one layer's output of a batch.
func (s *Service) layerKey(folder, batchID, layer string) string {
	name := fmt.Sprintf("concerts_%s_%s.csv", layer, s.now().UTC().Format(keyTimeLayout))
	return folder + path.Join(batchID, name)
}
