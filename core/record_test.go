package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signalsfoundry/rso-tracker/model"
)

// inputHeader mimics the source file: upper-case column and no derived columns.
var inputHeader = []string{
	"record_id", "norad_cat_id", "satellite_name", "country", "approximate_orbit_type",
	"object_type", "launch_year", "launch_site", "longitude", "avg_longitude",
	"geohash", "HRR_Category", "is_nominated", "nominated_at", "has_dossier",
	"last_updated_at", "justification", "focused_analysis", "days_old",
	"conjunction_count", "is_unk_object", "all_maneuvers", "days_since_ob",
	"recent_maneuvers", "deltaV_90day", "has_sister_debris",
}

func sampleRow(overrides map[string]string) []string {
	values := map[string]string{
		"record_id":              "25544",
		"norad_cat_id":           "25544",
		"satellite_name":         "ISS (ZARYA)",
		"country":                "ISS",
		"approximate_orbit_type": "LEO",
		"object_type":            "PAYLOAD",
		"launch_year":            "1998",
		"launch_site":            "TYMSC",
		"longitude":              "12.5",
		"avg_longitude":          "-2.25",
		"geohash":                "s000,s001",
		"days_old":               "9500",
		"conjunction_count":      "3",
	}
	for k, v := range overrides {
		values[k] = v
	}
	row := make([]string, len(inputHeader))
	for i, col := range inputHeader {
		row[i] = values[col]
	}
	return row
}

func TestFromFieldsByName(t *testing.T) {
	obj, err := FromFields(sampleRow(nil), BuildIndex(inputHeader))
	if err != nil {
		t.Fatalf("FromFields error: %v", err)
	}

	want := &model.SpaceObject{
		RecordID:         "25544",
		NoradCatID:       "25544",
		SatelliteName:    "ISS (ZARYA)",
		Country:          "ISS",
		OrbitType:        "LEO",
		ObjectType:       "PAYLOAD",
		LaunchYear:       1998,
		LaunchSite:       "TYMSC",
		Longitude:        12.5,
		AverageLongitude: -2.25,
		Geohash:          "s000,s001",
		DaysOld:          9500,
		ConjunctionCount: 3,
		Extended: model.ExtendedMetadata{
			IsNominated:     "false",
			HasDossier:      "false",
			HasSisterDebris: "false",
		},
		StillInOrbit: true,
		Risk:         model.RiskModerate,
	}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Fatalf("FromFields mismatch (-want +got):\n%s", diff)
	}
}

func TestFromFieldsColumnOrderIndependent(t *testing.T) {
	header := []string{"LONGITUDE", "avg_longitude", "days_old", "conjunction_count",
		"launch_year", "record_id", "object_type", "approximate_orbit_type"}
	row := []string{"100", "40", "16000", "0", "1970", "abc", "Unknown", ""}

	obj, err := FromFields(row, BuildIndex(header))
	if err != nil {
		t.Fatalf("FromFields error: %v", err)
	}
	if obj.RecordID != "abc" || obj.Longitude != 100 || obj.LaunchYear != 1970 {
		t.Fatalf("FromFields resolved wrong columns: %+v", obj)
	}
	if !obj.UnknownObject {
		t.Fatalf("UnknownObject = false, want true for object_type Unknown")
	}
	if obj.StillInOrbit {
		t.Fatalf("StillInOrbit = true, want false")
	}
	if obj.Risk != model.RiskHigh {
		t.Fatalf("Risk = %q, want High", obj.Risk)
	}
}

func TestFromFieldsParseErrors(t *testing.T) {
	cases := []struct {
		column string
		value  string
	}{
		{"launch_year", "19x8"},
		{"longitude", "east"},
		{"avg_longitude", ""},
		{"days_old", "1.5"},
		{"conjunction_count", "-1"},
		{"longitude", "NaN"},
		{"launch_year", " 1998"},
		{"days_old", "12 "},
		{"longitude", " 1.5 "},
	}
	ix := BuildIndex(inputHeader)
	for _, tc := range cases {
		_, err := FromFields(sampleRow(map[string]string{tc.column: tc.value}), ix)
		if !errors.Is(err, ErrParse) {
			t.Errorf("%s=%q: error = %v, want ErrParse", tc.column, tc.value, err)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Column != tc.column || pe.Value != tc.value {
			t.Errorf("%s=%q: ParseError = %+v", tc.column, tc.value, pe)
		}
	}
}

func TestFromFieldsMissingNumericColumnIsParseError(t *testing.T) {
	header := []string{"record_id", "longitude", "avg_longitude", "days_old", "conjunction_count"}
	_, err := FromFields([]string{"1", "0", "0", "0", "0"}, BuildIndex(header))
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Column != ColLaunchYear {
		t.Fatalf("FromFields error = %v, want ParseError on %s", err, ColLaunchYear)
	}
}

func TestSerializeRowColumnOrderAndFormatting(t *testing.T) {
	obj, err := FromFields(sampleRow(nil), BuildIndex(inputHeader))
	if err != nil {
		t.Fatalf("FromFields error: %v", err)
	}
	line := SerializeRow(obj)

	want := `25544,25544,ISS (ZARYA),ISS,LEO,PAYLOAD,1998,TYMSC,12.50000000,-2.25000000,"s000,s001",` +
		`,false,,false,,,,9500,3,false,,,,,false,true,Moderate`
	if line != want {
		t.Fatalf("SerializeRow =\n%s\nwant\n%s", line, want)
	}
	if n := len(ParseRow(line)); n != len(Header) {
		t.Fatalf("serialized row has %d fields, want %d", n, len(Header))
	}
}

func TestSerializeRowAlwaysQuotesGeohash(t *testing.T) {
	obj := &model.SpaceObject{RecordID: "1", Geohash: "u4pruyd", Risk: model.RiskLow}
	line := SerializeRow(obj)
	if !strings.Contains(line, `,"u4pruyd",`) {
		t.Fatalf("SerializeRow = %q, want quoted geohash", line)
	}
	obj.Geohash = ""
	if line := SerializeRow(obj); !strings.Contains(line, `,"",`) {
		t.Fatalf("SerializeRow = %q, want quoted empty geohash", line)
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	obj, err := FromFields(sampleRow(map[string]string{
		"satellite_name": "SL-8 R/B, STAGE 2",
		"justification":  "close pass, reviewed",
		"is_nominated":   "TRUE",
		"deltaV_90day":   "0.0031",
	}), BuildIndex(inputHeader))
	if err != nil {
		t.Fatalf("FromFields error: %v", err)
	}

	fields := ParseRow(SerializeRow(obj))
	if diff := cmp.Diff(Fields(obj), fields); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	again, err := FromFields(fields, BuildIndex(Header))
	if err != nil {
		t.Fatalf("FromFields on serialized row error: %v", err)
	}
	if diff := cmp.Diff(obj, again); diff != "" {
		t.Fatalf("reloaded record mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderRowMatchesHeader(t *testing.T) {
	if diff := cmp.Diff(Header, ParseRow(HeaderRow())); diff != "" {
		t.Fatalf("HeaderRow mismatch (-want +got):\n%s", diff)
	}
	if len(Header) != 28 {
		t.Fatalf("len(Header) = %d, want 28", len(Header))
	}
}
