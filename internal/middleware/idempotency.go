package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/truetone/api/internal/model"
)

// IdempotencyHeader carries the client-chosen key for a submission
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore remembers the outcome of keyed submissions so a retried
// or double-clicked "submit review" does not create a second record
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	maxBody  int64
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type idempotencyEntry struct {
	fingerprint string
	status      int
	headers     http.Header
	body        []byte
	expiresAt   time.Time
	inFlight    bool
	done        chan struct{}
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration    // How long to keep outcomes (default 24h)
	Cleanup time.Duration    // Cleanup interval (default 1h)
	MaxBody int64            // Larger keyed requests get 413 (default 12 MiB)
	Clock   func() time.Time // Default: time.Now
}

// NewIdempotencyStore creates a store and starts its cleanup loop
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}
	if cfg.MaxBody == 0 {
		cfg.MaxBody = 12 << 20
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		maxBody:  cfg.MaxBody,
		now:      cfg.Clock,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !entry.inFlight && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// begin claims a key. It returns the settled entry to replay, or nil when
// the caller owns the key and must call finish or release.
func (s *IdempotencyStore) begin(key, fingerprint string) (*idempotencyEntry, bool) {
	for {
		s.mu.Lock()
		entry, exists := s.entries[key]
		if !exists || (!entry.inFlight && entry.expiresAt.Before(s.now())) {
			s.entries[key] = &idempotencyEntry{
				fingerprint: fingerprint,
				inFlight:    true,
				done:        make(chan struct{}),
			}
			s.mu.Unlock()
			return nil, true
		}
		if entry.fingerprint != fingerprint {
			s.mu.Unlock()
			return nil, false
		}
		if !entry.inFlight {
			s.mu.Unlock()
			return entry, true
		}
		done := entry.done
		s.mu.Unlock()
		<-done
	}
}

// finish records a successful outcome
func (s *IdempotencyStore) finish(key string, status int, headers http.Header, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	entry.status = status
	entry.headers = headers
	entry.body = body
	entry.expiresAt = s.now().Add(s.ttl)
	entry.inFlight = false
	close(entry.done)
}

// release drops a claim so a failed submission can be retried
func (s *IdempotencyStore) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	delete(s.entries, key)
	close(entry.done)
}

func storeKey(userID, idempotencyKey, method, path string) string {
	h := sha256.New()
	for _, part := range []string{userID, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fingerprint(contentType string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(contentType))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// idempotencyResponseWriter captures the response for replay
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key on POST requests. Keys are scoped to the authenticated
// user and the route. Reusing a key with a different body is rejected.
// Only 2xx outcomes are kept, so failed submissions can be corrected and
// retried under the same key.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get(IdempotencyHeader)
			if r.Method != http.MethodPost || idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > 255 {
				model.NewBadRequestError("Idempotency-Key must be at most 255 characters").WriteJSON(w)
				return
			}
			// A keyed request is never run unprotected
			if r.ContentLength > store.maxBody {
				tooLarge(store.maxBody).WriteJSON(w)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, store.maxBody+1))
			if err != nil {
				model.NewBadRequestError("could not read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			if int64(len(body)) > store.maxBody {
				tooLarge(store.maxBody).WriteJSON(w)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				userID = clientIP(r)
			}

			key := storeKey(userID, idempotencyKey, r.Method, r.URL.Path)
			replay, ok := store.begin(key, fingerprint(r.Header.Get("Content-Type"), body))
			if !ok {
				model.NewValidationError([]model.FieldError{{
					Field:   IdempotencyHeader,
					Message: "key was already used with a different request body",
				}}).WriteJSON(w)
				return
			}
			if replay != nil {
				for k, v := range replay.headers {
					w.Header()[k] = v
				}
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(replay.status)
				_, _ = w.Write(replay.body)
				return
			}

			irw := &idempotencyResponseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			completed := false
			defer func() {
				if completed && irw.status >= 200 && irw.status < 300 {
					store.finish(key, irw.status, irw.Header().Clone(), irw.body.Bytes())
					return
				}
				store.release(key)
			}()

			next.ServeHTTP(irw, r)
			completed = true
		})
	}
}

func tooLarge(maxBody int64) *model.ProblemDetails {
	return model.NewPayloadTooLargeError(fmt.Sprintf("requests sent with %s must be at most %d bytes", IdempotencyHeader, maxBody))
}
