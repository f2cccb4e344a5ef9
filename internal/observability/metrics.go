package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/rso-tracker/core"
	"github.com/signalsfoundry/rso-tracker/model"
)

// PipelineCollector bundles Prometheus metrics for the load, analyse and
// write stages of a tracker run.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	RecordsLoaded   prometheus.Counter
	RecordsRejected prometheus.Counter
	RecordsWritten  *prometheus.CounterVec
	StageDurations  *prometheus.HistogramVec
	CatalogEvents   *prometheus.CounterVec

	RecordsByRisk *prometheus.GaugeVec
	RecordsOrbit  *prometheus.GaugeVec
}

// NewPipelineCollector registers pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	loaded, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rso_records_loaded_total",
		Help: "Records parsed successfully from the input dataset.",
	}), "rso_records_loaded_total")
	if err != nil {
		return nil, err
	}
	rejected, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rso_records_rejected_total",
		Help: "Input rows rejected because a field failed to parse.",
	}), "rso_records_rejected_total")
	if err != nil {
		return nil, err
	}

	written := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rso_records_written_total",
		Help: "Rows written to output files, labeled by sink.",
	}, []string{"sink"})
	written, err = registerCounterVec(reg, written, "rso_records_written_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rso_stage_duration_seconds",
		Help:    "Duration of tracker stages in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"stage"})
	durations, err = registerHistogramVec(reg, durations, "rso_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rso_catalog_events_total",
		Help: "Catalog change events, labeled by event type.",
	}, []string{"type"}), "rso_catalog_events_total")
	if err != nil {
		return nil, err
	}

	byRisk, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rso_records_by_risk",
		Help: "Current number of loaded records per risk level.",
	}, []string{"level"}), "rso_records_by_risk")
	if err != nil {
		return nil, err
	}
	orbit, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rso_records_in_orbit",
		Help: "Current number of loaded records by orbit state.",
	}, []string{"state"}), "rso_records_in_orbit")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:        gatherer,
		RecordsLoaded:   loaded,
		RecordsRejected: rejected,
		RecordsWritten:  written,
		StageDurations:  durations,
		CatalogEvents:   events,
		RecordsByRisk:   byRisk,
		RecordsOrbit:    orbit,
	}, nil
}

// WriteTextfile dumps the gathered metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func (c *PipelineCollector) WriteTextfile(path string) error {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// ObserveLoad satisfies the session MetricsRecorder.
func (c *PipelineCollector) ObserveLoad(loaded, rejected int) {
	if c == nil {
		return
	}
	c.RecordsLoaded.Add(float64(loaded))
	c.RecordsRejected.Add(float64(rejected))
}

// ObserveWrite counts rows written to sink.
func (c *PipelineCollector) ObserveWrite(sink string, rows int) {
	if c == nil {
		return
	}
	c.RecordsWritten.WithLabelValues(sink).Add(float64(rows))
}

// ObserveStage records how long stage took.
func (c *PipelineCollector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveCatalogEvent counts one catalog change of the given type.
func (c *PipelineCollector) ObserveCatalogEvent(eventType string) {
	if c == nil {
		return
	}
	c.CatalogEvents.WithLabelValues(eventType).Inc()
}

// SetSummary drives the risk and orbit gauges from a collection summary.
func (c *PipelineCollector) SetSummary(s core.Summary) {
	if c == nil {
		return
	}
	for _, level := range []model.RiskLevel{model.RiskLow, model.RiskModerate, model.RiskHigh} {
		c.RecordsByRisk.WithLabelValues(string(level)).Set(float64(s.ByRisk[level]))
	}
	c.RecordsOrbit.WithLabelValues("in_orbit").Set(float64(s.InOrbit))
	c.RecordsOrbit.WithLabelValues("out_of_orbit").Set(float64(s.OutOfOrbit))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
