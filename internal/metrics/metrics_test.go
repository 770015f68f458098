package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abm32/proteinforge/internal/model"
)

func gaugeValue(t *testing.T, c *Collector, name string) float64 {
	t.Helper()
	families, err := c.Gather().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		metric := family.GetMetric()
		if len(metric) != 1 {
			t.Fatalf("metric %s has %d series", name, len(metric))
		}
		if gauge := metric[0].GetGauge(); gauge != nil {
			return gauge.GetValue()
		}
		if counter := metric[0].GetCounter(); counter != nil {
			return counter.GetValue()
		}
		t.Fatalf("metric %s is neither gauge nor counter", name)
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollectorTracksIterations(t *testing.T) {
	c := NewCollector()

	c.OnIteration(model.StructureRecord{Sequence: "ACDW"}, 0.4)
	c.OnIteration(model.StructureRecord{Sequence: "ACDY"}, 0.6)

	if got := gaugeValue(t, c, "proteinforge_iterations_total"); got != 2 {
		t.Fatalf("iterations_total = %g, want 2", got)
	}
	if got := gaugeValue(t, c, "proteinforge_best_fitness"); got != 0.6 {
		t.Fatalf("best_fitness = %g, want 0.6", got)
	}
}

func TestCollectorTracksDiagnostics(t *testing.T) {
	c := NewCollector()

	c.OnDiagnostics(model.IterationDiagnostics{
		Iteration:         1,
		MeanFitness:       0.35,
		Temperature:       0.99,
		Accepted:          5,
		Rejected:          3,
		PredictorFailures: 2,
		StallCount:        1,
	})
	c.OnDiagnostics(model.IterationDiagnostics{
		Iteration:   2,
		MeanFitness: 0.45,
		Temperature: 0.9801,
		Accepted:    4,
		Rejected:    4,
		StallCount:  0,
	})

	if got := gaugeValue(t, c, "proteinforge_candidates_accepted_total"); got != 9 {
		t.Fatalf("accepted_total = %g, want 9", got)
	}
	if got := gaugeValue(t, c, "proteinforge_predictor_failures_total"); got != 2 {
		t.Fatalf("predictor_failures_total = %g, want 2", got)
	}
	if got := gaugeValue(t, c, "proteinforge_temperature"); got != 0.9801 {
		t.Fatalf("temperature = %g, want 0.9801", got)
	}
	if got := gaugeValue(t, c, "proteinforge_stall_count"); got != 0 {
		t.Fatalf("stall_count = %g, want 0", got)
	}
}

func TestCollectorHandlerServesTextFormat(t *testing.T) {
	c := NewCollector()
	c.OnIteration(model.StructureRecord{Sequence: "ACDW"}, 0.5)

	recorder := httptest.NewRecorder()
	c.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	if recorder.Code != 200 {
		t.Fatalf("status %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "proteinforge_best_fitness 0.5") {
		t.Fatalf("missing best fitness sample in body:\n%s", body)
	}
}
