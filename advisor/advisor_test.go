package advisor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewWithOptions("test-key", "gemini-1.5-flash", srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestGenerate(t *testing.T) {
	var gotPath, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Focus on the report first.  "}]}}]}`))
	})

	text, err := client.Generate(context.Background(), "what next?")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Focus on the report first." {
		t.Fatalf("text = %q, want trimmed candidate text", text)
	}
	if gotPath != "/models/gemini-1.5-flash:generateContent?key=test-key" {
		t.Fatalf("path = %q", gotPath)
	}
	if !strings.Contains(gotBody, `"what next?"`) {
		t.Fatalf("prompt missing from request body: %s", gotBody)
	}
}

func TestGenerateNonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})
	if _, err := client.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no candidates", body: `{"candidates":[]}`},
		{name: "no parts", body: `{"candidates":[{"content":{"parts":[]}}]}`},
		{name: "blank text", body: `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			if _, err := client.Generate(context.Background(), "q"); err == nil {
				t.Fatal("expected empty-response error")
			}
		})
	}
}

func TestGenerateHonorsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Generate(ctx, "q"); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
