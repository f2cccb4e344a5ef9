package model

// RiskLevel classifies orbital drift.
type RiskLevel string

const (
	RiskUnset    RiskLevel = ""
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Label returns the text written to the risk_level column.
func (r RiskLevel) Label() string { return string(r) }

// SpaceObject represents a tracked resident space object (payload, rocket
// body, debris) as loaded from one row of the metrics file.
type SpaceObject struct {
	RecordID      string
	NoradCatID    string // equals RecordID once assigned
	SatelliteName string
	Country       string
	OrbitType     string // e.g. "LEO", "GEO"; empty when unset
	ObjectType    string // e.g. "PAYLOAD", "DEBRIS", "ROCKET BODY", "Unknown"
	LaunchYear    int
	LaunchSite    string

	Longitude        float64 // degrees
	AverageLongitude float64 // degrees
	Geohash          string  // may contain the delimiter

	DaysOld          int
	ConjunctionCount int64

	// Extended metadata is carried through for round-trip fidelity only.
	Extended ExtendedMetadata

	// Derived fields, recomputed by the analytics pass.
	UnknownObject bool
	StillInOrbit  bool
	Risk          RiskLevel
}

// ExtendedMetadata holds optional columns that are never computed here.
// Values are kept as raw text so they survive a load/persist cycle unchanged;
// flag columns that were never populated hold "false".
type ExtendedMetadata struct {
	HRRCategory     string
	IsNominated     string
	NominatedAt     string
	HasDossier      string
	LastUpdatedAt   string
	Justification   string
	FocusedAnalysis string
	AllManeuvers    string
	DaysSinceOb     string
	RecentManeuvers string
	DeltaV90Day     string
	HasSisterDebris string
}
