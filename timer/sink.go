package timer

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	postTimeout    = 10 * time.Second
	sinkBufferSize = 16
	userIDHeader   = "X-User-ID"
)

type sessionPost struct {
	Duration       int    `json:"duration"`
	Type           string `json:"type"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// HTTPSink persists completed intervals by posting them to the
// focus-sessions endpoint. Posts run on a single worker goroutine so
// Record never blocks the tick loop; each post carries a fresh idempotency
// key so a retried delivery cannot append a duplicate row.
type HTTPSink struct {
	endpoint string
	userID   string
	client   *http.Client
	logger   *log.Logger

	jobs chan sessionPost
	wg   sync.WaitGroup
}

// NewHTTPSink creates a sink posting to baseURL (e.g.
// "http://localhost:8080") on behalf of userID and starts its worker.
func NewHTTPSink(baseURL, userID string, logger *log.Logger) *HTTPSink {
	s := &HTTPSink{
		endpoint: baseURL + "/api/focus-sessions",
		userID:   userID,
		client:   &http.Client{Timeout: postTimeout},
		logger:   logger,
		jobs:     make(chan sessionPost, sinkBufferSize),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Record queues a completed interval for delivery. When the buffer is full
// the interval is dropped with a log entry rather than stalling the timer.
func (s *HTTPSink) Record(duration int, phase Phase) {
	job := sessionPost{
		Duration:       duration,
		Type:           string(phase),
		IdempotencyKey: uuid.NewString(),
	}
	select {
	case s.jobs <- job:
	default:
		if s.logger != nil {
			s.logger.Warnf("session sink saturated, dropping %s interval", phase)
		}
	}
}

// Close stops the worker after draining queued posts.
func (s *HTTPSink) Close() {
	close(s.jobs)
	s.wg.Wait()
}

func (s *HTTPSink) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		if err := s.post(job); err != nil && s.logger != nil {
			s.logger.Errorf("session post failed: %v", err)
		}
	}
}

func (s *HTTPSink) post(job sessionPost) error {
	payload, err := sonic.Marshal(job)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userIDHeader, s.userID)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return &unexpectedStatusError{status: resp.StatusCode}
	}
	return nil
}

type unexpectedStatusError struct {
	status int
}

func (e *unexpectedStatusError) Error() string {
	return http.StatusText(e.status) + " from focus-sessions endpoint"
}
