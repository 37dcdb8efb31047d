package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return New(Config{BaseURL: ts.URL + "/api/", Logger: quiet()})
}

func TestStartServerDecodesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/server/start" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"status":true,"data":{"pid":12},"message":"Server with PID 12: started successfully."}`)
	})
	res, err := c.StartServer(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !res.Status || res.Message != "Server with PID 12: started successfully." || string(res.Data) != `{"pid":12}` {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestFailureEnvelopeIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"status":false,"data":{},"message":"update operation already in progress"}`)
	})
	res, err := c.CheckForUpdate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Status || res.Message != "update operation already in progress" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestServerStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":true,"data":{"running":true,"pid":7,"alive":true,"current_version":"0.2.0","app_path":"/a"},"message":"Server is running with PID 7."}`)
	})
	_, st, err := c.ServerStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.Running || st.PID != 7 || st.CurrentVersion != "0.2.0" || st.Resources != nil {
		t.Fatalf("unexpected status %+v", st)
	}
	if !c.IsReachable(context.Background()) {
		t.Fatalf("expected reachable")
	}
}

func TestUnexpectedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	if _, err := c.StopServer(context.Background()); !errors.Is(err, ErrUnexpectedBody) {
		t.Fatalf("expected ErrUnexpectedBody, got %v", err)
	}
}

func TestUnreachable(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1/api", Logger: quiet()})
	if c.IsReachable(context.Background()) {
		t.Fatalf("port 1 should not be reachable")
	}
	if _, _, err := c.UpdateStatus(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
}
