package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/signalsfoundry/rso-tracker/internal/logging"
)

func TestTracingConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  TracingConfig
		ok   bool
	}{
		{"disabled ignores fields", TracingConfig{Exporter: "zipkin", SampleRatio: 7}, true},
		{"stdout", TracingConfig{Enabled: true, Exporter: "STDOUT", SampleRatio: 1}, true},
		{"otlp", TracingConfig{Enabled: true, Exporter: "otlp", SampleRatio: 0.25}, true},
		{"unknown exporter", TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 1}, false},
		{"ratio above one", TracingConfig{Enabled: true, SampleRatio: 1.5}, false},
		{"negative ratio", TracingConfig{Enabled: true, SampleRatio: -0.1}, false},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: Validate error = %v, want nil", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrTracingConfig) {
			t.Errorf("%s: Validate error = %v, want ErrTracingConfig", tc.name, err)
		}
	}
}

func TestInitTracingStdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.ContextWithSessionID(context.Background(), "run-42")
	shutdown, err := InitTracing(ctx, TracingConfig{
		Enabled:     true,
		Exporter:    ExporterStdout,
		SampleRatio: 1,
		Output:      &buf,
	}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}

	_, span := Tracer().Start(ctx, "session.Load")
	span.End()
	ShutdownWithTimeout(ctx, shutdown, logging.Noop())

	for _, want := range []string{`"Name": "session.Load"`, `"rsotrack.session_id"`, `"run-42"`, DefaultServiceName} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Fatalf("stdout exporter output missing %s:\n%s", want, buf.String())
		}
	}
}

func TestInitTracingRejectsInvalidConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := InitTracing(ctx, TracingConfig{Enabled: true, Exporter: "zipkin"}, nil); !errors.Is(err, ErrTracingConfig) {
		t.Fatalf("InitTracing with unknown exporter error = %v, want ErrTracingConfig", err)
	}
	shutdown, err := InitTracing(ctx, TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing disabled: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}
