package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/signalsfoundry/rso-tracker/model"
)

// Column names of the metrics file, in output order.
const (
	ColRecordID         = "record_id"
	ColNoradCatID       = "norad_cat_id"
	ColSatelliteName    = "satellite_name"
	ColCountry          = "country"
	ColOrbitType        = "approximate_orbit_type"
	ColObjectType       = "object_type"
	ColLaunchYear       = "launch_year"
	ColLaunchSite       = "launch_site"
	ColLongitude        = "longitude"
	ColAvgLongitude     = "avg_longitude"
	ColGeohash          = "geohash"
	ColHRRCategory      = "HRR_Category"
	ColIsNominated      = "is_nominated"
	ColNominatedAt      = "nominated_at"
	ColHasDossier       = "has_dossier"
	ColLastUpdatedAt    = "last_updated_at"
	ColJustification    = "justification"
	ColFocusedAnalysis  = "focused_analysis"
	ColDaysOld          = "days_old"
	ColConjunctionCount = "conjunction_count"
	ColIsUnkObject      = "is_unk_object"
	ColAllManeuvers     = "all_maneuvers"
	ColDaysSinceOb      = "days_since_ob"
	ColRecentManeuvers  = "recent_maneuvers"
	ColDeltaV90Day      = "deltaV_90day"
	ColHasSisterDebris  = "has_sister_debris"
	ColStillInOrbit     = "still_in_orbit"
	ColRiskLevel        = "risk_level"
)

// Header is the documented column order written by SerializeRow.
var Header = []string{
	ColRecordID, ColNoradCatID, ColSatelliteName, ColCountry, ColOrbitType,
	ColObjectType, ColLaunchYear, ColLaunchSite, ColLongitude, ColAvgLongitude,
	ColGeohash, ColHRRCategory, ColIsNominated, ColNominatedAt, ColHasDossier,
	ColLastUpdatedAt, ColJustification, ColFocusedAnalysis, ColDaysOld,
	ColConjunctionCount, ColIsUnkObject, ColAllManeuvers, ColDaysSinceOb,
	ColRecentManeuvers, ColDeltaV90Day, ColHasSisterDebris, ColStillInOrbit,
	ColRiskLevel,
}

// RequiredColumns must be present in any header FromFields is used with.
var RequiredColumns = []string{
	ColRecordID, ColSatelliteName, ColCountry, ColOrbitType, ColObjectType,
	ColLaunchYear, ColLaunchSite, ColLongitude, ColAvgLongitude, ColGeohash,
	ColDaysOld, ColConjunctionCount,
}

// geohashPosition is always quoted on output.
const geohashPosition = 10

// UnknownObjectType is the object type label for unidentified objects.
const UnknownObjectType = "Unknown"

// FromFields builds a SpaceObject from one parsed row, resolving every column
// by name through ix. Numeric columns are parsed strictly; the first malformed
// one is returned as a *ParseError. Derived fields are computed before return.
func FromFields(fields []string, ix Index) (*model.SpaceObject, error) {
	get := func(col string) string { return ix.Lookup(fields, col) }

	launchYear, err := parseInt(ColLaunchYear, get(ColLaunchYear))
	if err != nil {
		return nil, err
	}
	longitude, err := parseFloat(ColLongitude, get(ColLongitude))
	if err != nil {
		return nil, err
	}
	avgLongitude, err := parseFloat(ColAvgLongitude, get(ColAvgLongitude))
	if err != nil {
		return nil, err
	}
	daysOld, err := parseInt(ColDaysOld, get(ColDaysOld))
	if err != nil {
		return nil, err
	}
	conjunctions, err := parseCount(ColConjunctionCount, get(ColConjunctionCount))
	if err != nil {
		return nil, err
	}

	id := get(ColRecordID)
	obj := &model.SpaceObject{
		RecordID:         id,
		NoradCatID:       id,
		SatelliteName:    get(ColSatelliteName),
		Country:          get(ColCountry),
		OrbitType:        get(ColOrbitType),
		ObjectType:       get(ColObjectType),
		LaunchYear:       launchYear,
		LaunchSite:       get(ColLaunchSite),
		Longitude:        longitude,
		AverageLongitude: avgLongitude,
		Geohash:          get(ColGeohash),
		DaysOld:          daysOld,
		ConjunctionCount: conjunctions,
		Extended: model.ExtendedMetadata{
			HRRCategory:     get(ColHRRCategory),
			IsNominated:     flagOrFalse(get(ColIsNominated)),
			NominatedAt:     get(ColNominatedAt),
			HasDossier:      flagOrFalse(get(ColHasDossier)),
			LastUpdatedAt:   get(ColLastUpdatedAt),
			Justification:   get(ColJustification),
			FocusedAnalysis: get(ColFocusedAnalysis),
			AllManeuvers:    get(ColAllManeuvers),
			DaysSinceOb:     get(ColDaysSinceOb),
			RecentManeuvers: get(ColRecentManeuvers),
			DeltaV90Day:     get(ColDeltaV90Day),
			HasSisterDebris: flagOrFalse(get(ColHasSisterDebris)),
		},
	}
	obj.UnknownObject = obj.ObjectType == UnknownObjectType
	obj.StillInOrbit = ComputeStillInOrbit(obj)
	obj.Risk = ComputeRiskLevel(obj)
	return obj, nil
}

// Fields returns the record's values in Header order.
func Fields(r *model.SpaceObject) []string {
	ext := r.Extended
	return []string{
		r.RecordID,
		r.NoradCatID,
		r.SatelliteName,
		r.Country,
		r.OrbitType,
		r.ObjectType,
		strconv.Itoa(r.LaunchYear),
		r.LaunchSite,
		formatDegrees(r.Longitude),
		formatDegrees(r.AverageLongitude),
		r.Geohash,
		ext.HRRCategory,
		flagOrFalse(ext.IsNominated),
		ext.NominatedAt,
		flagOrFalse(ext.HasDossier),
		ext.LastUpdatedAt,
		ext.Justification,
		ext.FocusedAnalysis,
		strconv.Itoa(r.DaysOld),
		strconv.FormatInt(r.ConjunctionCount, 10),
		strconv.FormatBool(r.UnknownObject),
		ext.AllManeuvers,
		ext.DaysSinceOb,
		ext.RecentManeuvers,
		ext.DeltaV90Day,
		flagOrFalse(ext.HasSisterDebris),
		strconv.FormatBool(r.StillInOrbit),
		r.Risk.Label(),
	}
}

// SerializeRow renders r as one row in Header order. The geohash is always
// quoted; any other field is quoted only when it holds the delimiter.
func SerializeRow(r *model.SpaceObject) string {
	fields := Fields(r)
	return JoinRow(fields, quotedPositions(fields, geohashPosition))
}

// HeaderRow renders the documented header line.
func HeaderRow() string {
	return JoinRow(Header, nil)
}

// quotedPositions marks always plus every field that embeds the delimiter.
func quotedPositions(fields []string, always ...int) map[int]bool {
	quoted := make(map[int]bool, len(always))
	for _, i := range always {
		quoted[i] = true
	}
	for i, f := range fields {
		if strings.ContainsRune(f, Delimiter) {
			quoted[i] = true
		}
	}
	return quoted
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func flagOrFalse(s string) string {
	if strings.TrimSpace(s) == "" {
		return "false"
	}
	return s
}

func parseInt(col, text string) (int, error) {
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, &ParseError{Column: col, Value: text, Err: numErr(err)}
	}
	return v, nil
}

func parseCount(col, text string) (int64, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, &ParseError{Column: col, Value: text, Err: numErr(err)}
	}
	if v < 0 {
		return 0, &ParseError{Column: col, Value: text, Err: fmt.Errorf("negative count")}
	}
	return v, nil
}

func parseFloat(col, text string) (float64, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ParseError{Column: col, Value: text, Err: numErr(err)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Column: col, Value: text, Err: fmt.Errorf("not a finite number")}
	}
	return v, nil
}

// numErr drops the strconv prefix, which repeats the offending text.
func numErr(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
