package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRunRecord_JSONRoundTrip(t *testing.T) {
	rec := createTestRun("json-run")
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"runId", "status", "tour", "length", "initialLength", "iterations", "timestamp", "config"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing JSON field %q", key)
		}
	}
	if _, ok := fields["system"]; ok {
		t.Error("nil system info should be omitted")
	}
}

func TestRunRecord_Validate_Valid(t *testing.T) {
	if err := createTestRun("ok").Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}

	cancelled := createTestRun("stopped")
	cancelled.Status = StatusCancelled
	cancelled.Iterations = 0
	cancelled.Length = cancelled.InitialLength
	if err := cancelled.Validate(); err != nil {
		t.Errorf("cancelled record at iteration 0 should be valid, got %v", err)
	}
}

func TestRunRecord_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		mutate func(*RunRecord)
	}{
		{"empty id", "RunID", func(r *RunRecord) { r.RunID = "" }},
		{"bad status", "Status", func(r *RunRecord) { r.Status = "running" }},
		{"no instance", "Config.InstancePath", func(r *RunRecord) { r.Config.InstancePath = "" }},
		{"one city", "Config.Cities", func(r *RunRecord) { r.Config.Cities = 1 }},
		{"no rule", "Config.Rule", func(r *RunRecord) { r.Config.Rule = "" }},
		{"zero budget", "Config.Iterations", func(r *RunRecord) { r.Config.Iterations = 0 }},
		{"short tour", "Tour", func(r *RunRecord) { r.Tour = []int{0, 1, 2} }},
		{"duplicate city", "Tour", func(r *RunRecord) { r.Tour = []int{0, 1, 1, 3} }},
		{"negative length", "Length", func(r *RunRecord) { r.Length = -1 }},
		{"negative initial", "InitialLength", func(r *RunRecord) { r.InitialLength = -1 }},
		{"worse than start", "Length", func(r *RunRecord) { r.Length = r.InitialLength + 1 }},
		{"too many iterations", "Iterations", func(r *RunRecord) { r.Iterations = r.Config.Iterations + 1 }},
		{"zero timestamp", "Timestamp", func(r *RunRecord) { r.Timestamp = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := createTestRun("bad")
			tt.mutate(rec)

			err := rec.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %s, want %s", verr.Field, tt.field)
			}
		})
	}
}

func TestRunRecord_IsCompatible(t *testing.T) {
	rec := createTestRun("base")

	same := rec.Config
	same.Rule = "swap"
	same.Iterations = 50000
	same.Seed = 7
	if err := rec.IsCompatible(same); err != nil {
		t.Errorf("annealing parameters should not affect compatibility: %v", err)
	}

	otherInstance := rec.Config
	otherInstance.InstancePath = "other.json"
	var cerr *CompatibilityError
	if err := rec.IsCompatible(otherInstance); !errors.As(err, &cerr) || cerr.Field != "InstancePath" {
		t.Errorf("expected InstancePath mismatch, got %v", err)
	}

	otherSize := rec.Config
	otherSize.Cities = 5
	if err := rec.IsCompatible(otherSize); !errors.As(err, &cerr) || cerr.Field != "Cities" {
		t.Errorf("expected Cities mismatch, got %v", err)
	}
	if cerr.Expected != "4" || cerr.Actual != "5" {
		t.Errorf("unexpected mismatch detail: %s", cerr.Error())
	}
}

func TestRunRecord_ToInfo(t *testing.T) {
	rec := createTestRun("info")
	info := rec.ToInfo()

	if info.RunID != "info" || info.Status != StatusCompleted {
		t.Errorf("identity fields wrong: %+v", info)
	}
	if info.Length != rec.Length || info.Iterations != rec.Iterations {
		t.Errorf("result fields wrong: %+v", info)
	}
	if info.Rule != rec.Config.Rule || info.Cities != rec.Config.Cities || info.InstancePath != rec.Config.InstancePath {
		t.Errorf("config fields wrong: %+v", info)
	}
	if !info.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("timestamp = %v, want %v", info.Timestamp, rec.Timestamp)
	}
}
