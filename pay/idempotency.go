package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

// idempotencyTTL is how long a replayable response is kept.
const idempotencyTTL = 24 * time.Hour

// IdempotencyRecord is what is stored under an Idempotency-Key.
type IdempotencyRecord struct {
	RequestHash string          `json:"requestHash"`
	Status      int             `json:"status,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// IdempotencyStore reserves keys and remembers their responses.
type IdempotencyStore interface {
	// Reserve stores rec under key if absent; it returns false and the
	// existing record when the key is already taken.
	Reserve(ctx context.Context, key string, rec IdempotencyRecord) (bool, *IdempotencyRecord, error)
	Complete(ctx context.Context, key string, rec IdempotencyRecord) error
	Release(ctx context.Context, key string) error
}

func computeRequestHash(r *http.Request, bodyBytes []byte, email string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + email + ":"))
	h.Write(bodyBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// CaptureResponseWriter wraps http.ResponseWriter to capture status and body.
type CaptureResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func NewCaptureResponseWriter(w http.ResponseWriter) *CaptureResponseWriter {
	return &CaptureResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (c *CaptureResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.ResponseWriter.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *CaptureResponseWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a client retries with the same
// Idempotency-Key. Without the header the request passes through.
//   - first use: the handler runs and its response is stored
//   - same key, different request: 409
//   - same key, response stored: the stored response is replayed
//   - same key, still in flight: 409
//
// Only 2xx responses are stored; any other outcome releases the key.
func Idempotency(store IdempotencyStore) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next(w, r, ps)
				return
			}

			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			email := utils.GetEmailFromRequest(r)
			rec := IdempotencyRecord{RequestHash: computeRequestHash(r, bodyBytes, email)}
			scoped := "idem:" + email + ":" + key

			ok, existing, err := store.Reserve(r.Context(), scoped, rec)
			if err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, "idempotency lookup error")
				return
			}
			if !ok {
				switch {
				case existing.RequestHash != rec.RequestHash:
					utils.RespondWithError(w, http.StatusConflict, "idempotency-key conflict")
				case existing.Status == 0:
					utils.RespondWithError(w, http.StatusConflict, "request in progress")
				default:
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(existing.Status)
					w.Write(existing.Body)
				}
				return
			}

			ctx := context.WithoutCancel(r.Context())
			defer func() {
				if p := recover(); p != nil {
					if err := store.Release(ctx, scoped); err != nil {
						log.Printf("Idempotency: release %s after panic, err=%v", key, err)
					}
					panic(p)
				}
			}()

			crw := NewCaptureResponseWriter(w)
			next(crw, r, ps)

			if crw.statusCode < 200 || crw.statusCode >= 300 {
				if err := store.Release(ctx, scoped); err != nil {
					log.Printf("Idempotency: release %s, err=%v", key, err)
				}
				return
			}
			rec.Status = crw.statusCode
			rec.Body = bytes.TrimSpace(crw.buf.Bytes())
			if err := store.Complete(ctx, scoped, rec); err != nil {
				log.Printf("Idempotency: complete %s, err=%v", key, err)
			}
		}
	}
}

// RedisIdempotencyStore keeps records as JSON strings with a TTL.
type RedisIdempotencyStore struct {
	Conn *redis.Client
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, rec IdempotencyRecord) (bool, *IdempotencyRecord, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, nil, err
	}
	ok, err := s.Conn.SetNX(ctx, key, data, idempotencyTTL).Result()
	if err != nil {
		return false, nil, fmt.Errorf("reserve %s: %w", key, err)
	}
	if ok {
		return true, nil, nil
	}

	raw, err := s.Conn.Get(ctx, key).Bytes()
	if err != nil {
		return false, nil, fmt.Errorf("get %s: %w", key, err)
	}
	var existing IdempotencyRecord
	if err := json.Unmarshal(raw, &existing); err != nil {
		return false, nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return false, &existing, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, rec IdempotencyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Conn.Set(ctx, key, data, idempotencyTTL).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.Conn.Del(ctx, key).Err()
}

// MemoryIdempotencyStore is the single-instance fallback.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]memRecord
}

type memRecord struct {
	rec     IdempotencyRecord
	expires time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{records: make(map[string]memRecord)}
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string, rec IdempotencyRecord) (bool, *IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.records[key]; ok && time.Now().Before(cur.expires) {
		existing := cur.rec
		return false, &existing, nil
	}
	s.records[key] = memRecord{rec: rec, expires: time.Now().Add(idempotencyTTL)}
	return true, nil, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key string, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = memRecord{rec: rec, expires: time.Now().Add(idempotencyTTL)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
