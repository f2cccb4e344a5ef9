package core

import (
	"strings"

	"github.com/signalsfoundry/rso-tracker/model"
)

// RegionLEO is the orbit-type label for low Earth orbit.
const RegionLEO = "LEO"

// Long-term impact thresholds; both bounds are exclusive.
const (
	ImpactMinDaysOld      = 200
	ImpactMinConjunctions = 0
)

// Filter returns the records for which keep reports true, in input order.
// The result never aliases records' backing array.
func Filter(records []*model.SpaceObject, keep func(*model.SpaceObject) bool) []*model.SpaceObject {
	out := make([]*model.SpaceObject, 0)
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByObjectType keeps records whose object type contains typeSubstring,
// ignoring case.
func FilterByObjectType(records []*model.SpaceObject, typeSubstring string) []*model.SpaceObject {
	needle := strings.ToLower(typeSubstring)
	return Filter(records, func(r *model.SpaceObject) bool {
		return strings.Contains(strings.ToLower(r.ObjectType), needle)
	})
}

// FilterByOrbitRegion keeps records whose orbit type contains region,
// ignoring case.
func FilterByOrbitRegion(records []*model.SpaceObject, region string) []*model.SpaceObject {
	needle := strings.ToLower(region)
	return Filter(records, func(r *model.SpaceObject) bool {
		return strings.Contains(strings.ToLower(r.OrbitType), needle)
	})
}

// FilterByLongitudeBand keeps records strictly inside (lower, upper).
func FilterByLongitudeBand(records []*model.SpaceObject, lower, upper float64) []*model.SpaceObject {
	return Filter(records, func(r *model.SpaceObject) bool {
		return r.Longitude > lower && r.Longitude < upper
	})
}

// AnalyzeLongTermImpact keeps the records of a LEO subset that are older than
// ImpactMinDaysOld days and have at least one conjunction.
func AnalyzeLongTermImpact(leo []*model.SpaceObject) []*model.SpaceObject {
	return Filter(leo, func(r *model.SpaceObject) bool {
		return r.DaysOld > ImpactMinDaysOld && r.ConjunctionCount > ImpactMinConjunctions
	})
}
