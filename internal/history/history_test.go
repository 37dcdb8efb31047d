package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLSinkSQLiteSendAndRecent(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "history.db")
	s, err := NewSQLSinkFromDSN(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	events := []Event{
		{Type: EventServerStart, OccurredAt: base, PID: 100},
		{Type: EventServerStop, OccurredAt: base.Add(time.Second), PID: 100, Message: "stopped"},
		{Type: EventUpdateInstalled, OccurredAt: base.Add(2 * time.Second), Version: "0.2.0"},
	}
	for _, e := range events {
		if err := s.Send(ctx, e); err != nil {
			t.Fatalf("send %s: %v", e.Type, err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != EventUpdateInstalled || got[0].Version != "0.2.0" || got[0].PID != 0 {
		t.Fatalf("unexpected newest event %+v", got[0])
	}
	if got[1].Type != EventServerStop || got[1].PID != 100 || got[1].Message != "stopped" {
		t.Fatalf("unexpected second event %+v", got[1])
	}
}

func TestSQLSinkMemoryDSN(t *testing.T) {
	s, err := NewSQLSinkFromDSN(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()
	if err := s.Send(context.Background(), NewEvent(EventUpdateFailed, 0, "0.3.0", "git clone: exit status 128")); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := s.Recent(context.Background(), 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("recent: %v %d", err, len(got))
	}
}

func TestSQLSinkEmptyDSN(t *testing.T) {
	if _, err := NewSQLSinkFromDSN("  "); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestOpenSearchSink_Send(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/idx/_doc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(201)
	}))
	defer ts.Close()

	sink := NewOpenSearchSink(ts.URL+"/", "idx")
	if err := sink.Send(context.Background(), NewEvent(EventServerStart, 42, "", "")); err != nil {
		t.Fatalf("send: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(gotBody, &m); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if m["type"] != "server_start" || m["pid"] != float64(42) {
		t.Fatalf("unexpected payload: %v", m)
	}
}

func TestOpenSearchSink_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()
	if err := NewOpenSearchSink(ts.URL, "idx").Send(context.Background(), Event{Type: EventServerStop}); err == nil {
		t.Fatalf("expected error on 400")
	}
}

type recordingSink struct {
	got []Event
	err error
}

func (r *recordingSink) Send(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestEmit(t *testing.T) {
	Emit(context.Background(), nil, Event{Type: EventServerStart})

	rs := &recordingSink{err: errors.New("down")}
	Emit(context.Background(), rs, Event{Type: EventServerStart, PID: 1})
	if len(rs.got) != 1 {
		t.Fatalf("expected one send")
	}
	if rs.got[0].OccurredAt.IsZero() {
		t.Fatalf("Emit should stamp OccurredAt")
	}
}
