// Package session owns the currently loaded record set and exposes each
// tracker action as one method, wrapping the core analytics with logging,
// metrics and tracing.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/rso-tracker/core"
	"github.com/signalsfoundry/rso-tracker/internal/logging"
	"github.com/signalsfoundry/rso-tracker/internal/observability"
	"github.com/signalsfoundry/rso-tracker/internal/store"
	"github.com/signalsfoundry/rso-tracker/kb"
	"github.com/signalsfoundry/rso-tracker/model"
)

var (
	// ErrNotLoaded indicates an action ran before any dataset was loaded.
	ErrNotLoaded = errors.New("no dataset loaded")
	// ErrInvalidBand indicates a longitude band whose lower bound is not
	// below its upper bound.
	ErrInvalidBand = errors.New("invalid longitude band")
	// ErrInvalidSuffix indicates a report suffix that would leave the
	// report directory.
	ErrInvalidSuffix = errors.New("invalid report suffix")
	// ErrNotFound indicates no loaded record has the requested id.
	ErrNotFound = errors.New("record not found")
)

// Sink labels used when counting written rows.
const (
	SinkDataset       = "dataset"
	SinkImpact        = "long_term_impact"
	SinkDensityReport = "density_report"
	SinkSQLite        = "sqlite"
)

// ImpactFileName is the default destination for the long-term impact list.
const ImpactFileName = "long_term_impact.csv"

// MetricsRecorder receives pipeline observations from the session.
type MetricsRecorder interface {
	ObserveLoad(loaded, rejected int)
	ObserveWrite(sink string, rows int)
	ObserveStage(stage string, d time.Duration)
	SetSummary(s core.Summary)
	ObserveCatalogEvent(eventType string)
}

// Session coordinates the catalog with the record store for one user.
// It is not safe for concurrent use.
type Session struct {
	catalog     *kb.Catalog
	unsubscribe func()
	source      string
	loaded      bool

	rejected []*store.RowError

	strict  bool
	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// Option customises Session construction.
type Option func(*Session)

// WithMetricsRecorder attaches an optional pipeline metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracer overrides the tracer used for session spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = t
	}
}

// WithStrict makes Load fail on the first malformed row.
func WithStrict(strict bool) Option {
	return func(s *Session) {
		s.strict = strict
	}
}

// New wires a session around catalog and subscribes to its change events.
// A nil catalog gets a fresh one. log is used where the operation context
// carries no logger of its own; see logging.ContextWithLogger.
func New(catalog *kb.Catalog, log logging.Logger, opts ...Option) *Session {
	if catalog == nil {
		catalog = kb.NewCatalog()
	}
	if log == nil {
		log = logging.Noop()
	}
	s := &Session{
		catalog: catalog,
		log:     log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = observability.Tracer()
	}
	s.unsubscribe = catalog.Subscribe(s.onCatalogEvent)
	return s
}

// Close detaches the session from its catalog.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) onCatalogEvent(ev kb.Event) {
	if s.metrics != nil {
		s.metrics.ObserveCatalogEvent(ev.Type.String())
	}
	s.log.Debug(context.Background(), "catalog changed",
		logging.String("event", ev.Type.String()),
		logging.Int("changed", ev.Changed),
		logging.Int("total", ev.Total),
	)
}

// logger prefers the logger carried by ctx over the session's own.
func (s *Session) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

// Catalog exposes the underlying record collection.
func (s *Session) Catalog() *kb.Catalog { return s.catalog }

// Source returns the path of the last successful load.
func (s *Session) Source() string { return s.source }

// Rejected returns the rows skipped by the last load.
func (s *Session) Rejected() []*store.RowError { return s.rejected }

// Load replaces the session's records with the dataset at path.
func (s *Session) Load(ctx context.Context, path string) (*store.Result, error) {
	ctx, span := s.start(ctx, "session.Load", attribute.String("path", path))
	defer span.End()
	started := time.Now()

	res, err := store.LoadRecords(path, store.LoadOptions{Strict: s.strict})
	if err != nil {
		s.fail(ctx, span, "dataset load failed", err, logging.String("path", path))
		return nil, err
	}

	s.catalog.Replace(res.Records)
	s.source = path
	s.loaded = true
	s.rejected = res.Rejected

	for _, rej := range res.Rejected {
		s.logger(ctx).Warn(ctx, "row rejected", logging.String("path", path), logging.Int("line", rej.Line), logging.Err(rej.Err))
	}
	s.observeStage("load", started)
	if s.metrics != nil {
		s.metrics.ObserveLoad(len(res.Records), len(res.Rejected))
		s.metrics.SetSummary(core.Summarize(res.Records))
	}
	span.SetAttributes(
		attribute.Int("records", len(res.Records)),
		attribute.Int("rejected", len(res.Rejected)),
	)
	s.logger(ctx).Info(ctx, "dataset loaded",
		logging.String("path", path),
		logging.Int("records", len(res.Records)),
		logging.Int("rejected", len(res.Rejected)),
		logging.Int64("elapsed_ms", time.Since(started).Milliseconds()),
	)
	return res, nil
}

// AssessRisk recomputes every record's risk level and returns how many
// labels changed.
func (s *Session) AssessRisk(ctx context.Context) (int, error) {
	return s.classify(ctx, "session.AssessRisk", "assess_risk", kb.EventRiskUpdated, core.ClassifyRisk)
}

// AssessOrbitStatus recomputes every record's still-in-orbit flag and
// returns how many flags changed.
func (s *Session) AssessOrbitStatus(ctx context.Context) (int, error) {
	return s.classify(ctx, "session.AssessOrbitStatus", "assess_orbit", kb.EventOrbitStatusUpdated, core.ClassifyOrbitStatus)
}

func (s *Session) classify(ctx context.Context, name, stage string, kind kb.EventType, pass func([]*model.SpaceObject) int) (int, error) {
	ctx, span := s.start(ctx, name)
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "assessment rejected", err)
		return 0, err
	}
	started := time.Now()

	records := s.catalog.Records()
	changed := pass(records)
	s.catalog.MarkChanged(kind, changed)

	s.observeStage(stage, started)
	summary := core.Summarize(records)
	if s.metrics != nil {
		s.metrics.SetSummary(summary)
	}
	span.SetAttributes(attribute.Int("records", len(records)), attribute.Int("changed", changed))
	s.logger(ctx).Info(ctx, "assessment complete",
		logging.String("event", kind.String()),
		logging.Int("records", len(records)),
		logging.Int("changed", changed),
		logging.Int("high_risk", summary.ByRisk[model.RiskHigh]),
		logging.Int("out_of_orbit", summary.OutOfOrbit),
	)
	return changed, nil
}

// TrackObjectType returns the records whose object type contains objectType.
func (s *Session) TrackObjectType(ctx context.Context, objectType string) ([]*model.SpaceObject, error) {
	ctx, span := s.start(ctx, "session.TrackObjectType", attribute.String("object_type", objectType))
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "track rejected", err)
		return nil, err
	}
	started := time.Now()
	out := core.FilterByObjectType(s.catalog.Records(), objectType)
	s.observeStage("track", started)
	span.SetAttributes(attribute.Int("matches", len(out)))
	s.logger(ctx).Info(ctx, "object type list requested", logging.String("object_type", objectType), logging.Int("matches", len(out)))
	return out, nil
}

// TrackLEO returns the records in low Earth orbit.
func (s *Session) TrackLEO(ctx context.Context) ([]*model.SpaceObject, error) {
	ctx, span := s.start(ctx, "session.TrackLEO")
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "leo list rejected", err)
		return nil, err
	}
	out := core.FilterByOrbitRegion(s.catalog.Records(), core.RegionLEO)
	span.SetAttributes(attribute.Int("matches", len(out)))
	s.logger(ctx).Info(ctx, "leo list requested", logging.Int("matches", len(out)))
	return out, nil
}

// LongTermImpact returns the LEO records old enough and involved in
// conjunctions. When out is non-empty the projection is also written there.
func (s *Session) LongTermImpact(ctx context.Context, out string) ([]*model.SpaceObject, error) {
	ctx, span := s.start(ctx, "session.LongTermImpact", attribute.String("out", out))
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "impact analysis rejected", err)
		return nil, err
	}
	started := time.Now()

	leo := core.FilterByOrbitRegion(s.catalog.Records(), core.RegionLEO)
	flagged := core.AnalyzeLongTermImpact(leo)
	if out != "" {
		if err := store.WriteProjection(core.ImpactProjection(flagged), out); err != nil {
			s.fail(ctx, span, "impact report write failed", err, logging.String("path", out))
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.ObserveWrite(SinkImpact, len(flagged))
		}
	}
	s.observeStage("impact", started)
	span.SetAttributes(attribute.Int("leo", len(leo)), attribute.Int("flagged", len(flagged)))
	s.logger(ctx).Info(ctx, "long term impact analysed",
		logging.Int("leo", len(leo)),
		logging.Int("flagged", len(flagged)),
		logging.String("path", out),
	)
	return flagged, nil
}

// DensityReport writes the records strictly inside (lower, upper) to
// density_report_<suffix>.csv under dir and returns the file path and row
// count. An empty suffix is replaced by a generated one.
func (s *Session) DensityReport(ctx context.Context, lower, upper float64, suffix, dir string) (string, int, error) {
	ctx, span := s.start(ctx, "session.DensityReport",
		attribute.Float64("lower", lower),
		attribute.Float64("upper", upper),
	)
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "density report rejected", err)
		return "", 0, err
	}
	if !(lower < upper) {
		err := fmt.Errorf("%w: lower %v must be below upper %v", ErrInvalidBand, lower, upper)
		s.fail(ctx, span, "density report rejected", err)
		return "", 0, err
	}
	suffix = strings.TrimSpace(suffix)
	if strings.ContainsAny(suffix, `/\`) {
		err := fmt.Errorf("%w: %q must not contain a path separator", ErrInvalidSuffix, suffix)
		s.fail(ctx, span, "density report rejected", err)
		return "", 0, err
	}
	if suffix == "" {
		suffix = GenerateSuffix()
	}
	started := time.Now()
	path := filepath.Join(dir, core.DensityReportName(suffix))

	band := core.FilterByLongitudeBand(s.catalog.Records(), lower, upper)
	if err := store.WriteProjection(core.GenerateDensityReport(band), path); err != nil {
		s.fail(ctx, span, "density report write failed", err, logging.String("path", path))
		return "", 0, err
	}
	if s.metrics != nil {
		s.metrics.ObserveWrite(SinkDensityReport, len(band))
	}
	s.observeStage("density", started)
	span.SetAttributes(attribute.String("path", path), attribute.Int("rows", len(band)))
	s.logger(ctx).Info(ctx, "density report written",
		logging.String("path", path),
		logging.Float64("lower", lower),
		logging.Float64("upper", upper),
		logging.Int("rows", len(band)),
	)
	return path, len(band), nil
}

// Object returns the loaded record with the given id. Duplicate ids resolve
// to the first loaded record.
func (s *Session) Object(ctx context.Context, id string) (*model.SpaceObject, error) {
	ctx, span := s.start(ctx, "session.Object", attribute.String("record_id", id))
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "object lookup rejected", err)
		return nil, err
	}
	obj := s.catalog.Get(id)
	if obj == nil {
		err := fmt.Errorf("%w: %q", ErrNotFound, id)
		s.fail(ctx, span, "object lookup failed", err)
		return nil, err
	}
	s.logger(ctx).Info(ctx, "object requested", logging.String("record_id", id))
	return obj, nil
}

// GenerateSuffix returns a short random identifier for report file names.
func GenerateSuffix() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// Summary counts the loaded records per risk level and orbit state.
func (s *Session) Summary(ctx context.Context) (core.Summary, error) {
	ctx, span := s.start(ctx, "session.Summary")
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "summary rejected", err)
		return core.Summary{}, err
	}
	summary := core.Summarize(s.catalog.Records())
	if s.metrics != nil {
		s.metrics.SetSummary(summary)
	}
	span.SetAttributes(attribute.Int("records", summary.Total))
	s.logger(ctx).Debug(ctx, "summary computed", logging.Int("records", summary.Total))
	return summary, nil
}

// Persist writes the full collection to path and clears the changed signal.
func (s *Session) Persist(ctx context.Context, path string) error {
	ctx, span := s.start(ctx, "session.Persist", attribute.String("path", path))
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "persist rejected", err)
		return err
	}
	started := time.Now()

	records := s.catalog.Records()
	if err := store.PersistRecords(records, path); err != nil {
		s.fail(ctx, span, "dataset write failed", err, logging.String("path", path))
		return err
	}
	s.catalog.MarkClean()
	if s.metrics != nil {
		s.metrics.ObserveWrite(SinkDataset, len(records))
	}
	s.observeStage("persist", started)
	s.logger(ctx).Info(ctx, "dataset written",
		logging.String("path", path),
		logging.Int("records", len(records)),
		logging.Int64("elapsed_ms", time.Since(started).Milliseconds()),
	)
	return nil
}

// PersistIfChanged writes the collection only when an analytics pass has
// changed it since the last load or write. It reports whether it wrote.
func (s *Session) PersistIfChanged(ctx context.Context, path string) (bool, error) {
	if !s.catalog.Dirty() {
		return false, nil
	}
	if err := s.Persist(ctx, path); err != nil {
		return false, err
	}
	return true, nil
}

// ExportSQLite copies the collection into the SQLite database at dbPath.
func (s *Session) ExportSQLite(ctx context.Context, dbPath string) (int, error) {
	ctx, span := s.start(ctx, "session.ExportSQLite", attribute.String("db", dbPath))
	defer span.End()
	if err := s.requireLoaded(); err != nil {
		s.fail(ctx, span, "sqlite export rejected", err)
		return 0, err
	}
	started := time.Now()

	n, err := store.ExportSQLite(ctx, s.catalog.Records(), dbPath)
	if err != nil {
		s.fail(ctx, span, "sqlite export failed", err, logging.String("db", dbPath))
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.ObserveWrite(SinkSQLite, n)
	}
	s.observeStage("export_sqlite", started)
	span.SetAttributes(attribute.Int("rows", n))
	s.logger(ctx).Info(ctx, "sqlite export complete", logging.String("db", dbPath), logging.Int("rows", n))
	return n, nil
}

func (s *Session) requireLoaded() error {
	if !s.loaded {
		return ErrNotLoaded
	}
	return nil
}

func (s *Session) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if id := logging.SessionIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("session_id", id))
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Session) fail(ctx context.Context, span trace.Span, msg string, err error, fields ...logging.Field) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger(ctx).Error(ctx, msg, append(fields, logging.Err(err))...)
}

func (s *Session) observeStage(stage string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, time.Since(started))
	}
}
