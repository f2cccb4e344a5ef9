package core

import (
	"math"
	"strings"

	"github.com/signalsfoundry/rso-tracker/model"
)

// Drift thresholds in degrees; each lower bound is inclusive.
const (
	HighRiskDriftDeg     = 50.0
	ModerateRiskDriftDeg = 10.0
)

// Retirement thresholds for ComputeStillInOrbit.
const (
	MinLongitudeDeg = -180.0
	MaxLongitudeDeg = 180.0
	StaleAfterDays  = 15000
)

// OrbitalDrift is the absolute difference between current and average longitude.
func OrbitalDrift(r *model.SpaceObject) float64 {
	return math.Abs(r.Longitude - r.AverageLongitude)
}

// ComputeRiskLevel classifies r by orbital drift.
func ComputeRiskLevel(r *model.SpaceObject) model.RiskLevel {
	drift := OrbitalDrift(r)
	switch {
	case drift >= HighRiskDriftDeg:
		return model.RiskHigh
	case drift >= ModerateRiskDriftDeg:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}

// ComputeStillInOrbit reports whether r is still considered in orbit.
//
// An object is retired only when it looks abandoned (no orbit type, a
// longitude outside [-180, 180], or at least StaleAfterDays old) and it also
// has zero recorded conjunctions. Either condition alone keeps it in orbit.
func ComputeStillInOrbit(r *model.SpaceObject) bool {
	abandoned := strings.TrimSpace(r.OrbitType) == "" ||
		r.Longitude < MinLongitudeDeg || r.Longitude > MaxLongitudeDeg ||
		r.DaysOld >= StaleAfterDays
	return !(abandoned && r.ConjunctionCount == 0)
}

// ClassifyRisk recomputes the risk level of every record in place and
// returns how many labels changed.
func ClassifyRisk(records []*model.SpaceObject) int {
	changed := 0
	for _, r := range records {
		next := ComputeRiskLevel(r)
		if next != r.Risk {
			changed++
		}
		r.Risk = next
	}
	return changed
}

// ClassifyOrbitStatus recomputes the still-in-orbit flag of every record in
// place and returns how many flags changed.
func ClassifyOrbitStatus(records []*model.SpaceObject) int {
	changed := 0
	for _, r := range records {
		next := ComputeStillInOrbit(r)
		if next != r.StillInOrbit {
			changed++
		}
		r.StillInOrbit = next
	}
	return changed
}

// Summary counts records per derived label.
type Summary struct {
	Total      int
	ByRisk     map[model.RiskLevel]int
	InOrbit    int
	OutOfOrbit int
}

// Summarize tallies the current derived labels of records without
// recomputing them.
func Summarize(records []*model.SpaceObject) Summary {
	s := Summary{
		Total: len(records),
		ByRisk: map[model.RiskLevel]int{
			model.RiskLow:      0,
			model.RiskModerate: 0,
			model.RiskHigh:     0,
		},
	}
	for _, r := range records {
		s.ByRisk[r.Risk]++
		if r.StillInOrbit {
			s.InOrbit++
		} else {
			s.OutOfOrbit++
		}
	}
	return s
}
