package timer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestHTTPSinkPostsCompletedInterval(t *testing.T) {
	var mu sync.Mutex
	var posts []sessionPost
	var headers []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/focus-sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		var p sessionPost
		if err := sonic.Unmarshal(data, &p); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		posts = append(posts, p)
		headers = append(headers, r.Header.Get("X-User-ID"))
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	sink := NewHTTPSink(srv.URL, "alice", logger)
	sink.Record(FocusMinutes, PhaseFocus)
	sink.Record(BreakMinutes, PhaseBreak)
	sink.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Duration != FocusMinutes || posts[0].Type != string(PhaseFocus) {
		t.Fatalf("first post = %+v", posts[0])
	}
	if posts[0].IdempotencyKey == "" || posts[1].IdempotencyKey == "" {
		t.Fatal("every post must carry an idempotency key")
	}
	if posts[0].IdempotencyKey == posts[1].IdempotencyKey {
		t.Fatal("idempotency keys must be unique per interval")
	}
	for _, h := range headers {
		if h != "alice" {
			t.Fatalf("user header = %q", h)
		}
	}
}

func TestHTTPSinkAcceptsDuplicateResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"duplicate":true}`))
	}))
	defer srv.Close()

	logger, hook := test.NewNullLogger()
	sink := NewHTTPSink(srv.URL, "alice", logger)
	sink.Record(FocusMinutes, PhaseFocus)
	sink.Close()

	for _, e := range hook.AllEntries() {
		if e.Level <= logrus.ErrorLevel {
			t.Fatalf("duplicate response logged as failure: %s", e.Message)
		}
	}
}

func TestHTTPSinkLogsUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	logger, hook := test.NewNullLogger()
	sink := NewHTTPSink(srv.URL, "alice", logger)
	sink.Record(FocusMinutes, PhaseFocus)
	sink.Close()

	if hook.LastEntry() == nil {
		t.Fatal("expected a logged delivery failure")
	}
}
