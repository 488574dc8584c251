package telemetry

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/chaincodec/chaincodec/internal/stream"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestHooksTrackLagAndDecodeErrors(t *testing.T) {
	m := Init()
	h := NewHooks(m)

	before := counterValue(t, m.streamLagged.WithLabelValues("ethereum"))
	h.OnLag("ethereum", 3)
	after := counterValue(t, m.streamLagged.WithLabelValues("ethereum"))
	if after-before != 3 {
		t.Fatalf("expected lag counter to advance by 3, got %v", after-before)
	}

	beforeErrs := counterValue(t, m.decodeErrors.WithLabelValues("ethereum"))
	h.OnDecodeError("ethereum", nil)
	afterErrs := counterValue(t, m.decodeErrors.WithLabelValues("ethereum"))
	if afterErrs-beforeErrs != 1 {
		t.Fatalf("expected decode error counter to advance by 1, got %v", afterErrs-beforeErrs)
	}
}

func TestHooksSetsConnectedGauge(t *testing.T) {
	m := Init()
	h := NewHooks(m)

	gauge := m.streamConnected.WithLabelValues("solana")

	h.OnStateChange("solana", stream.StateRunning)
	var running dto.Metric
	if err := gauge.Write(&running); err != nil {
		t.Fatal(err)
	}
	if got := running.GetGauge().GetValue(); got != 1 {
		t.Fatalf("expected connected gauge 1 after Running, got %v", got)
	}

	h.OnStateChange("solana", stream.StateDisconnected)
	var disconnected dto.Metric
	if err := gauge.Write(&disconnected); err != nil {
		t.Fatal(err)
	}
	if got := disconnected.GetGauge().GetValue(); got != 0 {
		t.Fatalf("expected connected gauge 0 after Disconnected, got %v", got)
	}
}
