package session

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/analysis"
)

func autosaveCell(s *Session, nuclear, cytoplasm float64) {
	s.AddCell(
		&NuclearMeasurement{OverallMean: nuclear},
		&CytoplasmMeasurement{Result: analysis.ThresholdResult{Mean: cytoplasm}},
	)
}

func TestAutosaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	s, err := New("sample.tif", 50)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.EnableAutosave(path)
	autosaveCell(s, 100, 50)
	autosaveCell(s, 90, 30)
	s.Close()

	envs, err := LoadEnvelopes(path)
	if err != nil {
		t.Fatalf("LoadEnvelopes: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("envelopes = %d, want 2", len(envs))
	}
	for i, env := range envs {
		if env.Meta.SessionID != s.ID {
			t.Fatalf("line %d session id = %q, want %q", i+1, env.Meta.SessionID, s.ID)
		}
		if env.Meta.SchemaVersion != SchemaVersion {
			t.Fatalf("line %d schema = %d, want %d", i+1, env.Meta.SchemaVersion, SchemaVersion)
		}
		if env.Meta.ImageName != "sample.tif" || env.Meta.ThresholdPercent != 50 {
			t.Fatalf("line %d meta = %+v", i+1, env.Meta)
		}
		if _, err := time.Parse(time.RFC3339Nano, env.Meta.TimestampUTC); err != nil {
			t.Fatalf("line %d timestamp %q: %v", i+1, env.Meta.TimestampUTC, err)
		}
	}
	if envs[0].Cell.CellNumber != 1 || envs[1].Cell.CellNumber != 2 {
		t.Fatalf("cell numbers = %d, %d", envs[0].Cell.CellNumber, envs[1].Cell.CellNumber)
	}
	if envs[1].Cell.Ratio != 3 {
		t.Fatalf("cell 2 ratio = %v, want 3", envs[1].Cell.Ratio)
	}
}

func TestLoadEnvelopesSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	s, _ := New("sample.tif", 50)
	s.EnableAutosave(path)
	autosaveCell(s, 100, 50)
	s.Close()

	// Simulate a crash mid-write, a line from a future schema, and a cell
	// missing its measurements.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fmt.Fprintln(f, `{"meta":{"session_id":"future","schema_version":999},"cell":{"cell_number":1}}`)
	fmt.Fprintln(f, `{"meta":{"session_id":"bare","schema_version":1},"cell":{"cell_number":1}}`)
	fmt.Fprint(f, `{"meta":{"session_id":"trunc`)
	f.Close()

	envs, err := LoadEnvelopes(path)
	if err != nil {
		t.Fatalf("LoadEnvelopes: %v", err)
	}
	if len(envs) != 1 {
		t.Fatalf("envelopes = %d, want 1", len(envs))
	}
	if envs[0].Meta.SessionID != s.ID {
		t.Fatalf("kept line session id = %q, want %q", envs[0].Meta.SessionID, s.ID)
	}
}

func TestLoadEnvelopesMissingFile(t *testing.T) {
	if _, err := LoadEnvelopes(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRebuildPicksLatestSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")

	first, _ := New("first.tif", 40)
	first.EnableAutosave(path)
	autosaveCell(first, 10, 5)
	first.Close()

	second, _ := New("second.tif", 60)
	second.EnableAutosave(path)
	autosaveCell(second, 100, 50)
	autosaveCell(second, 90, 45)
	second.Close()

	envs, err := LoadEnvelopes(path)
	if err != nil {
		t.Fatalf("LoadEnvelopes: %v", err)
	}
	if len(envs) != 3 {
		t.Fatalf("envelopes = %d, want 3", len(envs))
	}

	latest, err := Rebuild(envs, "")
	if err != nil {
		t.Fatalf("Rebuild latest: %v", err)
	}
	if latest.ID != second.ID || latest.ImageName != "second.tif" || latest.ThresholdPercent != 60 {
		t.Fatalf("latest = %+v", latest)
	}
	if len(latest.Records) != 2 {
		t.Fatalf("latest records = %d, want 2", len(latest.Records))
	}

	chosen, err := Rebuild(envs, first.ID)
	if err != nil {
		t.Fatalf("Rebuild by id: %v", err)
	}
	if chosen.ImageName != "first.tif" || len(chosen.Records) != 1 {
		t.Fatalf("chosen = %+v", chosen)
	}

	if _, err := Rebuild(envs, "no-such-session"); err == nil {
		t.Fatal("expected error for unknown session id")
	}
	if _, err := Rebuild(nil, ""); err == nil {
		t.Fatal("expected error for empty envelope list")
	}
}
