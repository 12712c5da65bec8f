package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/annealtsp/internal/anneal"
)

func writeEntries(t *testing.T, dir, runID string, appendMode bool, entries []TraceEntry) {
	t.Helper()
	w, err := NewTraceWriter(dir, runID, appendMode)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for _, e := range entries {
		if err := w.Write(e); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
}

func readEntries(t *testing.T, dir, runID string) []TraceEntry {
	t.Helper()
	r, err := NewTraceReader(dir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer r.Close()
	entries, err := r.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	return entries
}

func TestTraceWriter_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	entries := []TraceEntry{
		{Iteration: 100, Temperature: 36.6, CurrentLength: 50, BestLength: 48, Accepted: 70, Timestamp: time.Now()},
		{Iteration: 200, Temperature: 13.4, CurrentLength: 44, BestLength: 41, Accepted: 120, Timestamp: time.Now()},
		{Iteration: 300, Temperature: 4.9, CurrentLength: 40, BestLength: 40, Accepted: 150, Timestamp: time.Now()},
	}
	writeEntries(t, dir, "run-1", false, entries)

	if _, err := os.Stat(TracePath(dir, "run-1")); err != nil {
		t.Fatalf("Trace file not created: %v", err)
	}

	got := readEntries(t, dir, "run-1")
	if len(got) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(got))
	}
	for i, e := range got {
		if e.Iteration != entries[i].Iteration || e.BestLength != entries[i].BestLength || e.Accepted != entries[i].Accepted {
			t.Errorf("Entry %d: got %+v, want %+v", i, e, entries[i])
		}
	}
}

func TestTraceWriter_AppendAndTruncate(t *testing.T) {
	dir := t.TempDir()
	writeEntries(t, dir, "run-1", false, []TraceEntry{{Iteration: 1}, {Iteration: 2}})
	writeEntries(t, dir, "run-1", true, []TraceEntry{{Iteration: 3}})

	if got := readEntries(t, dir, "run-1"); len(got) != 3 || got[2].Iteration != 3 {
		t.Errorf("append mode: got %+v", got)
	}

	writeEntries(t, dir, "run-1", false, []TraceEntry{{Iteration: 9}})
	if got := readEntries(t, dir, "run-1"); len(got) != 1 || got[0].Iteration != 9 {
		t.Errorf("truncate mode: got %+v", got)
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	dir := t.TempDir()
	w, err := NewTraceWriter(dir, "run-1", false)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Write(TraceEntry{Iteration: 5}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// Readable before Close.
	if got := readEntries(t, dir, "run-1"); len(got) != 1 {
		t.Errorf("expected 1 flushed entry, got %d", len(got))
	}
	if w.Path() != TracePath(dir, "run-1") {
		t.Errorf("Path() = %s", w.Path())
	}
}

func TestTraceWriter_Observe(t *testing.T) {
	dir := t.TempDir()
	w, err := NewTraceWriter(dir, "run-1", false)
	if err != nil {
		t.Fatal(err)
	}

	w.Observe(anneal.Progress{Iteration: 10, Temperature: 90.4, CurrentLength: 12, BestLength: 11, Accepted: 8})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got := readEntries(t, dir, "run-1")
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	e := got[0]
	if e.Iteration != 10 || e.Temperature != 90.4 || e.CurrentLength != 12 || e.BestLength != 11 || e.Accepted != 8 {
		t.Errorf("progress not copied: %+v", e)
	}
	if e.Timestamp.IsZero() {
		t.Error("entry not timestamped")
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	dir := t.TempDir()
	writeEntries(t, dir, "run-1", false, []TraceEntry{{Iteration: 1}, {Iteration: 2}})

	r, err := NewTraceReader(dir, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	for want := 1; want <= 2; want++ {
		e, err := r.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if e.Iteration != want {
			t.Errorf("got iteration %d, want %d", e.Iteration, want)
		}
	}
	if _, err := r.Read(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTraceReader_CorruptLine(t *testing.T) {
	dir := t.TempDir()
	writeEntries(t, dir, "run-1", false, nil)
	if err := os.WriteFile(TracePath(dir, "run-1"), []byte("{\"iteration\":1}\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := NewTraceReader(dir, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.ReadAll(); err == nil {
		t.Error("expected error for corrupt line")
	}
}

func TestDeleteTrace(t *testing.T) {
	dir := t.TempDir()
	writeEntries(t, dir, "run-1", false, []TraceEntry{{Iteration: 1}})

	if err := DeleteTrace(dir, "run-1"); err != nil {
		t.Fatalf("DeleteTrace failed: %v", err)
	}
	if _, err := os.Stat(TracePath(dir, "run-1")); !os.IsNotExist(err) {
		t.Error("trace file still exists")
	}

	// Missing trace is fine.
	if err := DeleteTrace(dir, "run-1"); err != nil {
		t.Errorf("DeleteTrace on missing file: %v", err)
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewTraceWriter(dir, "run-1", false)
	if err != nil {
		t.Fatal(err)
	}

	const goroutines, perGoroutine = 10, 50
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if err := w.Write(TraceEntry{Iteration: g*perGoroutine + i}); err != nil {
					t.Error(fmt.Errorf("write: %w", err))
				}
			}
		}(g)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if got := readEntries(t, dir, "run-1"); len(got) != goroutines*perGoroutine {
		t.Errorf("expected %d entries, got %d", goroutines*perGoroutine, len(got))
	}
}
