package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func TestEventLogWriteRead(t *testing.T) {
	log, _ := newTestLog(t)

	events := []Event{
		{Type: EventIterationStarted, Data: map[string]any{"iteration": float64(1), "task": "TASK-101"}},
		{Type: EventTaskCompleted, Data: map[string]any{"task": "TASK-101"}},
		{Type: EventTaskFailed, Level: "ERROR", Data: map[string]any{"task": "TASK-102"}},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Type != EventIterationStarted || got[0].Data["task"] != "TASK-101" {
		t.Fatalf("first event mangled: %+v", got[0])
	}
	// Write fills in defaults.
	if got[0].Level != "INFO" || got[0].Time.IsZero() {
		t.Fatalf("defaults not applied: %+v", got[0])
	}
}

func TestEventLogFilters(t *testing.T) {
	log, _ := newTestLog(t)

	past := time.Now().UTC().Add(-time.Hour)
	if err := log.Write(Event{Time: past, Type: EventTaskCompleted}); err != nil {
		t.Fatal(err)
	}
	if err := log.Write(Event{Type: EventTaskFailed, Level: "ERROR"}); err != nil {
		t.Fatal(err)
	}

	byType, err := log.Read(EventFilter{Type: EventTaskFailed})
	if err != nil {
		t.Fatal(err)
	}
	if len(byType) != 1 || byType[0].Type != EventTaskFailed {
		t.Fatalf("type filter broken: %+v", byType)
	}

	byLevel, err := log.Read(EventFilter{Level: "ERROR"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byLevel) != 1 {
		t.Fatalf("level filter broken: %+v", byLevel)
	}

	cutoff := time.Now().UTC().Add(-time.Minute)
	since, err := log.Read(EventFilter{Since: &cutoff})
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 1 || since[0].Type != EventTaskFailed {
		t.Fatalf("since filter broken: %+v", since)
	}
}

func TestEventLogSkipsMalformedLines(t *testing.T) {
	log, path := newTestLog(t)
	if err := log.Write(Event{Type: EventTaskCompleted}); err != nil {
		t.Fatal(err)
	}

	// Simulate a torn write from a crashed process.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{\"type\": \"trunc\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := log.Write(Event{Type: EventProjectCompleted}); err != nil {
		t.Fatal(err)
	}

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading past a torn line: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the 2 intact events, got %d", len(got))
	}
}

func TestEventLogAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	first, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Write(Event{Type: EventIterationStarted}); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if err := second.Write(Event{Type: EventIterationEnded}); err != nil {
		t.Fatal(err)
	}

	got, err := second.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("reopening should append, not truncate: %d events", len(got))
	}
}
