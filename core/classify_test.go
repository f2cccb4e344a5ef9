package core

import (
	"testing"

	"github.com/signalsfoundry/rso-tracker/model"
)

func TestComputeRiskLevelThresholds(t *testing.T) {
	cases := []struct {
		lon, avg float64
		want     model.RiskLevel
	}{
		{60, 0, model.RiskHigh},
		{25, 0, model.RiskModerate},
		{5, 0, model.RiskLow},
		{50, 0, model.RiskHigh},
		{10, 0, model.RiskModerate},
		{0, 50, model.RiskHigh},
		{-170, 170, model.RiskHigh},
		{9.999, 0, model.RiskLow},
		{49.999, 0, model.RiskModerate},
		{0, 0, model.RiskLow},
	}
	for _, tc := range cases {
		r := &model.SpaceObject{Longitude: tc.lon, AverageLongitude: tc.avg}
		if got := ComputeRiskLevel(r); got != tc.want {
			t.Errorf("ComputeRiskLevel(lon=%v, avg=%v) = %q, want %q", tc.lon, tc.avg, got, tc.want)
		}
	}
}

func TestComputeRiskLevelIdempotent(t *testing.T) {
	r := &model.SpaceObject{Longitude: 33, AverageLongitude: 2, Risk: model.RiskHigh}
	first := ComputeRiskLevel(r)
	r.Risk = first
	second := ComputeRiskLevel(r)
	if first != second || first != model.RiskModerate {
		t.Fatalf("ComputeRiskLevel = %q then %q, want Moderate twice", first, second)
	}
}

func TestComputeStillInOrbitRequiresZeroConjunctions(t *testing.T) {
	stale := &model.SpaceObject{OrbitType: "", Longitude: 0, DaysOld: 16000, ConjunctionCount: 0}
	if ComputeStillInOrbit(stale) {
		t.Fatalf("stale record with zero conjunctions should not be in orbit")
	}

	stale.ConjunctionCount = 1
	if !ComputeStillInOrbit(stale) {
		t.Fatalf("stale record with a conjunction should remain in orbit")
	}
}

func TestComputeStillInOrbitSignals(t *testing.T) {
	cases := []struct {
		name string
		obj  model.SpaceObject
		want bool
	}{
		{"healthy", model.SpaceObject{OrbitType: "LEO", Longitude: 10, DaysOld: 100}, true},
		{"no orbit type", model.SpaceObject{OrbitType: "  ", Longitude: 10, DaysOld: 100}, false},
		{"east of range", model.SpaceObject{OrbitType: "GEO", Longitude: 180.5, DaysOld: 100}, false},
		{"west of range", model.SpaceObject{OrbitType: "GEO", Longitude: -181, DaysOld: 100}, false},
		{"range edge", model.SpaceObject{OrbitType: "GEO", Longitude: 180, DaysOld: 100}, true},
		{"exactly stale", model.SpaceObject{OrbitType: "MEO", Longitude: 0, DaysOld: 15000}, false},
		{"just under stale", model.SpaceObject{OrbitType: "MEO", Longitude: 0, DaysOld: 14999}, true},
		{"out of range with activity", model.SpaceObject{Longitude: 500, ConjunctionCount: 7}, true},
	}
	for _, tc := range cases {
		obj := tc.obj
		if got := ComputeStillInOrbit(&obj); got != tc.want {
			t.Errorf("%s: ComputeStillInOrbit = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassifyIgnoresPreviousValue(t *testing.T) {
	records := []*model.SpaceObject{
		{OrbitType: "LEO", Longitude: 70, AverageLongitude: 0, Risk: model.RiskLow, StillInOrbit: false},
		{OrbitType: "LEO", Longitude: 1, AverageLongitude: 0, Risk: model.RiskLow, StillInOrbit: true},
	}

	if changed := ClassifyRisk(records); changed != 1 {
		t.Fatalf("ClassifyRisk changed = %d, want 1", changed)
	}
	if records[0].Risk != model.RiskHigh || records[1].Risk != model.RiskLow {
		t.Fatalf("risk after classify = %q, %q", records[0].Risk, records[1].Risk)
	}
	if changed := ClassifyRisk(records); changed != 0 {
		t.Fatalf("second ClassifyRisk changed = %d, want 0", changed)
	}

	if changed := ClassifyOrbitStatus(records); changed != 1 {
		t.Fatalf("ClassifyOrbitStatus changed = %d, want 1", changed)
	}
	if !records[0].StillInOrbit || !records[1].StillInOrbit {
		t.Fatalf("orbit status after classify = %v, %v", records[0].StillInOrbit, records[1].StillInOrbit)
	}
}

func TestSummarize(t *testing.T) {
	records := []*model.SpaceObject{
		{Risk: model.RiskHigh, StillInOrbit: true},
		{Risk: model.RiskHigh, StillInOrbit: false},
		{Risk: model.RiskLow, StillInOrbit: true},
	}
	s := Summarize(records)
	if s.Total != 3 || s.InOrbit != 2 || s.OutOfOrbit != 1 {
		t.Fatalf("Summarize = %+v", s)
	}
	if s.ByRisk[model.RiskHigh] != 2 || s.ByRisk[model.RiskModerate] != 0 || s.ByRisk[model.RiskLow] != 1 {
		t.Fatalf("Summarize.ByRisk = %v", s.ByRisk)
	}
}
