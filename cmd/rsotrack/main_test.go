package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/rso-tracker/internal/session"
	"github.com/signalsfoundry/rso-tracker/internal/store"
	"github.com/signalsfoundry/rso-tracker/internal/users"
	"github.com/signalsfoundry/rso-tracker/model"
)

type fixture struct {
	dir      string
	input    string
	output   string
	users    string
	activity string
}

func newFixture(t *testing.T, withUsers bool) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		input:    filepath.Join(dir, "rso_metrics.csv"),
		output:   filepath.Join(dir, "Updated_RSO_Metrics.csv"),
		users:    filepath.Join(dir, "USERS.csv"),
		activity: filepath.Join(dir, "LOGS.txt"),
	}
	records := []*model.SpaceObject{
		{RecordID: "1", SatelliteName: "SAT A", Country: "US", OrbitType: "LEO", ObjectType: "PAYLOAD", LaunchYear: 2010, Longitude: 10, AverageLongitude: 5, Geohash: "g1", DaysOld: 300, ConjunctionCount: 2},
		{RecordID: "2", SatelliteName: "DEB B", Country: "PRC", OrbitType: "LEO", ObjectType: "DEBRIS", LaunchYear: 2007, Longitude: 100, AverageLongitude: 20, Geohash: "g2", DaysOld: 100},
		{RecordID: "3", SatelliteName: "R/B C", Country: "CIS", OrbitType: "GEO", ObjectType: "ROCKET BODY", LaunchYear: 1980, Longitude: -50, AverageLongitude: -30, Geohash: "g3", DaysOld: 16000},
		{RecordID: "4", SatelliteName: "DEB D", Country: "US", ObjectType: "DEBRIS", LaunchYear: 1999, Longitude: 170, AverageLongitude: 170, Geohash: "g4", DaysOld: 10, ConjunctionCount: 3},
	}
	if err := store.PersistRecords(records, f.input); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	if withUsers {
		body := "name,role,password\nsci,Scientist,pw\nrep,Space Agency Representative,pw\npol,Policy Maker,pw\n"
		if err := os.WriteFile(f.users, []byte(body), 0o600); err != nil {
			t.Fatalf("write users: %v", err)
		}
	}
	return f
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	base := []string{
		"--input", f.input,
		"--output", f.output,
		"--users", f.users,
		"--activity-log", f.activity,
	}
	err := run(context.Background(), append(append([]string{}, args...), base...), &stdout, &stderr)
	return stdout.String(), err
}

func TestTrackAsScientist(t *testing.T) {
	f := newFixture(t, true)
	out, err := f.run(t, "track", "debris", "--user", "sci", "--password", "pw")
	if err != nil {
		t.Fatalf("track error: %v", err)
	}
	for _, want := range []string{"DEB B", "DEB D", "2 debris objects"} {
		if !strings.Contains(out, want) {
			t.Fatalf("track output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "SAT A") {
		t.Fatalf("track output lists a payload:\n%s", out)
	}
}

func TestRoleGates(t *testing.T) {
	f := newFixture(t, true)
	cases := []struct {
		args []string
		user string
	}{
		{[]string{"leo"}, "rep"},
		{[]string{"assess"}, "pol"},
		{[]string{"impact"}, "sci"},
		{[]string{"density", "--lower", "0", "--upper", "10"}, "sci"},
	}
	for _, tc := range cases {
		args := append(tc.args, "--user", tc.user, "--password", "pw")
		if _, err := f.run(t, args...); !errors.Is(err, users.ErrForbidden) {
			t.Errorf("%s as %s error = %v, want ErrForbidden", tc.args[0], tc.user, err)
		}
	}
	if _, err := f.run(t, "summary", "--user", "pol", "--password", "pw"); err != nil {
		t.Fatalf("summary as policy maker error: %v", err)
	}
}

func TestLoginFailure(t *testing.T) {
	f := newFixture(t, true)
	if _, err := f.run(t, "leo", "--user", "sci", "--password", "wrong"); !errors.Is(err, users.ErrLoginFailed) {
		t.Fatalf("leo with bad password error = %v, want ErrLoginFailed", err)
	}
	raw, err := os.ReadFile(f.activity)
	if err != nil {
		t.Fatalf("read activity log: %v", err)
	}
	if !strings.Contains(string(raw), "login rejected") {
		t.Fatalf("activity log = %q, want login rejection", raw)
	}
}

func TestAssessWritesDataset(t *testing.T) {
	f := newFixture(t, true)
	out, err := f.run(t, "assess", "--orbit", "--user", "sci", "--password", "pw")
	if err != nil {
		t.Fatalf("assess error: %v", err)
	}
	if strings.Contains(out, "risk levels assessed") {
		t.Fatalf("assess --orbit ran the risk pass:\n%s", out)
	}
	if !strings.Contains(out, "orbit status assessed: 0 changed") || !strings.Contains(out, "wrote 4 records") {
		t.Fatalf("assess output = %q", out)
	}
	res, err := store.LoadRecords(f.output, store.LoadOptions{Strict: true})
	if err != nil {
		t.Fatalf("reload output: %v", err)
	}
	if len(res.Records) != 4 || res.Records[2].StillInOrbit {
		t.Fatalf("output records = %+v", res.Records)
	}
}

func TestDensityAndImpactAsAgencyRep(t *testing.T) {
	f := newFixture(t, true)
	creds := []string{"--user", "rep", "--password", "pw"}

	out, err := f.run(t, append([]string{"density", "--lower=-60", "--upper=120", "--suffix", "t1", "--dir", f.dir}, creds...)...)
	if err != nil {
		t.Fatalf("density error: %v", err)
	}
	report := filepath.Join(f.dir, "density_report_t1.csv")
	if !strings.Contains(out, "wrote 3 objects to "+report) {
		t.Fatalf("density output = %q", out)
	}
	if _, err := os.Stat(report); err != nil {
		t.Fatalf("density report missing: %v", err)
	}

	impact := filepath.Join(f.dir, "long_term_impact.csv")
	out, err = f.run(t, append([]string{"impact", "--out", impact}, creds...)...)
	if err != nil {
		t.Fatalf("impact error: %v", err)
	}
	if !strings.Contains(out, "SAT A") || !strings.Contains(out, "1 objects with long-term impact") {
		t.Fatalf("impact output = %q", out)
	}
	if _, err := os.Stat(impact); err != nil {
		t.Fatalf("impact file missing: %v", err)
	}
}

func TestSummaryWithoutUsersFileWritesMetrics(t *testing.T) {
	f := newFixture(t, false)
	metrics := filepath.Join(f.dir, "rsotrack.prom")
	out, err := f.run(t, "summary", "--metrics-file", metrics)
	if err != nil {
		t.Fatalf("summary error: %v", err)
	}
	for _, want := range []string{"risk Low", "out of orbit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary output missing %q:\n%s", want, out)
		}
	}

	raw, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	if !strings.Contains(string(raw), "rso_records_loaded_total 4") {
		t.Fatalf("metrics file = %s", raw)
	}

	log, err := os.ReadFile(f.activity)
	if err != nil {
		t.Fatalf("read activity log: %v", err)
	}
	if !strings.Contains(string(log), "dataset loaded") || !strings.Contains(string(log), "session_id=") {
		t.Fatalf("activity log = %q", log)
	}
}

func TestShowAndSkippedRows(t *testing.T) {
	f := newFixture(t, false)
	bad := "9,9,BAD,US,LEO,DEBRIS,19x9,AFETR,0,0,g9,,,,,,,,1,0,False,,,,,"
	fh, err := os.OpenFile(f.input, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	if _, err := fh.WriteString(bad + "\n"); err != nil {
		t.Fatalf("append row: %v", err)
	}
	fh.Close()

	var stdout, stderr bytes.Buffer
	args := []string{"show", "3", "--input", f.input, "--users", f.users, "--activity-log", ""}
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("show error: %v", err)
	}
	for _, want := range []string{"satellite_name", "R/B C", "ROCKET BODY"} {
		if !strings.Contains(stdout.String(), want) {
			t.Fatalf("show output missing %q:\n%s", want, stdout.String())
		}
	}
	if !strings.Contains(stderr.String(), "skipped 1 malformed rows") || !strings.Contains(stderr.String(), "line 6") {
		t.Fatalf("stderr = %q, want skipped row report", stderr.String())
	}

	if _, err := f.run(t, "show", "99"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("show 99 error = %v, want ErrNotFound", err)
	}
	if _, err := f.run(t, "density", "--lower", "0", "--upper", "10", "--suffix", "../x"); !errors.Is(err, session.ErrInvalidSuffix) {
		t.Fatalf("density with path suffix error = %v, want ErrInvalidSuffix", err)
	}
}

func TestExportSQLiteCommand(t *testing.T) {
	f := newFixture(t, false)
	db := filepath.Join(f.dir, "rso.db")
	out, err := f.run(t, "export-sqlite", "--db", db)
	if err != nil {
		t.Fatalf("export-sqlite error: %v", err)
	}
	if !strings.Contains(out, "exported 4 objects") {
		t.Fatalf("export-sqlite output = %q", out)
	}
}

func TestMissingInputFails(t *testing.T) {
	f := newFixture(t, false)
	f.input = filepath.Join(f.dir, "absent.csv")
	if _, err := f.run(t, "summary"); !errors.Is(err, store.ErrIO) {
		t.Fatalf("summary on missing input error = %v, want ErrIO", err)
	}
}
