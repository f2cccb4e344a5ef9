package core

import (
	"strconv"

	"github.com/signalsfoundry/rso-tracker/model"
)

// Projection is a compact, column-subset view of a record collection.
type Projection struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows.
func (p Projection) Len() int { return len(p.Rows) }

// HeaderRow renders the projection's column names as one row.
func (p Projection) HeaderRow() string { return JoinRow(p.Columns, nil) }

// RowText renders row i; fields holding the delimiter are quoted.
func (p Projection) RowText(i int) string {
	row := p.Rows[i]
	return JoinRow(row, quotedPositions(row))
}

// ImpactColumns are the columns of the long-term impact projection.
var ImpactColumns = []string{
	ColRecordID, ColSatelliteName, ColCountry, ColOrbitType, ColObjectType,
	ColDaysOld, ColConjunctionCount,
}

// DensityColumns are the columns of the density report projection.
var DensityColumns = []string{
	ColRecordID, ColSatelliteName, ColCountry, ColOrbitType, ColLaunchYear,
	ColObjectType,
}

// TrackColumns are the columns printed for tracked-object listings.
var TrackColumns = []string{
	ColRecordID, ColSatelliteName, ColCountry, ColOrbitType, ColObjectType,
	ColLaunchYear, ColLongitude,
}

// ImpactProjection projects records already flagged by AnalyzeLongTermImpact.
func ImpactProjection(flagged []*model.SpaceObject) Projection {
	return project(ImpactColumns, flagged, func(r *model.SpaceObject) []string {
		return []string{
			r.RecordID, r.SatelliteName, r.Country, r.OrbitType, r.ObjectType,
			strconv.Itoa(r.DaysOld), strconv.FormatInt(r.ConjunctionCount, 10),
		}
	})
}

// GenerateDensityReport projects every record of a longitude-band subset.
func GenerateDensityReport(band []*model.SpaceObject) Projection {
	return project(DensityColumns, band, func(r *model.SpaceObject) []string {
		return []string{
			r.RecordID, r.SatelliteName, r.Country, r.OrbitType,
			strconv.Itoa(r.LaunchYear), r.ObjectType,
		}
	})
}

// TrackProjection projects records for an object listing.
func TrackProjection(records []*model.SpaceObject) Projection {
	return project(TrackColumns, records, func(r *model.SpaceObject) []string {
		return []string{
			r.RecordID, r.SatelliteName, r.Country, r.OrbitType, r.ObjectType,
			strconv.Itoa(r.LaunchYear), formatDegrees(r.Longitude),
		}
	})
}

// DensityReportName returns the file name of a density report for suffix.
func DensityReportName(suffix string) string {
	return "density_report_" + suffix + ".csv"
}

func project(columns []string, records []*model.SpaceObject, row func(*model.SpaceObject) []string) Projection {
	p := Projection{Columns: columns, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		p.Rows = append(p.Rows, row(r))
	}
	return p
}
