package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/button-events/internal/logic"
	"github.com/sweeney/button-events/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Name:        "hall",
		Backend:     "cdev",
		Pin:         17,
		Pull:        "up",
		ActiveLow:   true,
		PollMs:      10,
		DebounceMs:  50,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetMQTTConnected(true)
	tr.RecordEvent(logic.Event{Type: logic.EventClickFinish, Clicks: 2})

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Name != "hall" {
		t.Errorf("Name: got %q, want hall", sj.Status.Name)
	}
	if sj.Status.State != "IDLE" {
		t.Errorf("State: got %q, want IDLE", sj.Status.State)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.LastEvent == nil || sj.Status.LastEvent.Clicks != 2 {
		t.Errorf("LastEvent: got %+v", sj.Status.LastEvent)
	}
	if sj.Status.Config.DebounceMs != 50 {
		t.Errorf("Config.DebounceMs: got %d, want 50", sj.Status.Config.DebounceMs)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.RecordEvent(logic.Event{Type: logic.EventLongPressFirst, Clicks: 1})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"Button hall", "LONGPRESS_FIRST", "CLICK_FINISH", "active-low"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestDebounceReloadReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	tr.SetDebounce(80 * time.Millisecond)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Config.DebounceMs != 80 {
		t.Errorf("Config.DebounceMs: got %d, want 80", sj.Status.Config.DebounceMs)
	}
}

func TestUptimeFormat(t *testing.T) {
	render := func(d time.Duration) string {
		var sb strings.Builder
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		if err := renderHTML(&sb, status.Snapshot{StartTime: start, Now: start.Add(d)}); err != nil {
			t.Fatalf("renderHTML: %v", err)
		}
		return sb.String()
	}
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + time.Minute, "2h 1m 0s"},
		{49 * time.Hour, "2d 1h 0m 0s"},
	}
	for _, tt := range tests {
		if got := render(tt.d); !strings.Contains(got, "<td>"+tt.want+"</td>") {
			t.Errorf("uptime %v: expected %q in page", tt.d, tt.want)
		}
	}
}

func TestEventsEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.RecordEvent(logic.Event{Type: logic.EventPressed, Clicks: 1})
	tr.RecordEvent(logic.Event{Type: logic.EventReleased, Clicks: 1, PressedFor: 90 * time.Millisecond})

	resp, err := http.Get(ts.URL + "/events.json")
	if err != nil {
		t.Fatalf("GET /events.json: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	var doc status.EventsJSON
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if doc.Name != "hall" || len(doc.Events) != 2 {
		t.Fatalf("got %+v", doc)
	}
	if doc.Events[0].Event != "RELEASED" || doc.Events[0].PressedMs != 90 {
		t.Errorf("newest event: got %+v", doc.Events[0])
	}
}

func TestHTMLListsRecentEvents(t *testing.T) {
	ts, tr := newTestServer(t)

	body := func() string {
		resp, err := http.Get(ts.URL + "/")
		if err != nil {
			t.Fatalf("GET /: %v", err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return string(b)
	}

	if !strings.Contains(body(), "none yet") {
		t.Error("expected empty recent events placeholder")
	}
	tr.RecordEvent(logic.Event{Type: logic.EventLongPressFinish, Clicks: 1, PressedFor: 700 * time.Millisecond})
	if page := body(); !strings.Contains(page, "<td>LONGPRESS_FINISH</td>") || !strings.Contains(page, "700ms") {
		t.Error("expected recent event row")
	}
}

func TestRejectsWrites(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/", "/index.json", "/events.json"} {
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, resp.StatusCode)
		}
		if allow := resp.Header.Get("Allow"); allow != "GET, HEAD" {
			t.Errorf("POST %s: Allow %q", path, allow)
		}
	}
}
