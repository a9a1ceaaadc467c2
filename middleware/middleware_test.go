package middleware

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"keyboardquipo/auth"
	"keyboardquipo/db"
	"keyboardquipo/models"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
)

func newGuard() (*Guard, *auth.Issuer, *db.MemoryStore) {
	store := db.NewMemoryStore()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return NewGuard(issuer, store), issuer, store
}

func serve(h httprouter.Handle, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func echoEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Write([]byte(utils.GetEmailFromRequest(r)))
}

func TestAuthenticate(t *testing.T) {
	g, issuer, _ := newGuard()
	token, _ := issuer.Sign("a@x.com")
	h := g.Authenticate(echoEmail)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusForbidden},
		{"garbage", "Bearer abc.def.ghi", http.StatusForbidden},
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.header)
			if rec.Code != tt.want {
				t.Fatalf("status %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != "a@x.com" {
				t.Errorf("email in context = %q", rec.Body)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	g, issuer, store := newGuard()
	ctx := context.Background()
	store.UpsertUser(ctx, "user@x.com", models.UserUpdate{})
	store.UpsertUser(ctx, "admin@x.com", models.UserUpdate{})
	store.SetRole(ctx, "admin@x.com", models.RoleAdmin)

	h := Chain(g.Authenticate, g.RequireAdmin)(echoEmail)
	for email, want := range map[string]int{
		"user@x.com":  http.StatusForbidden,
		"ghost@x.com": http.StatusForbidden,
		"admin@x.com": http.StatusOK,
	} {
		token, _ := issuer.Sign(email)
		if rec := serve(h, "Bearer "+token); rec.Code != want {
			t.Errorf("%s: status %d, want %d", email, rec.Code, want)
		}
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next httprouter.Handle) httprouter.Handle {
			return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
				order = append(order, name)
				next(w, r, ps)
			}
		}
	}
	Chain(mw("a"), mw("b"), mw("c"))(func(http.ResponseWriter, *http.Request, httprouter.Params) {
		order = append(order, "handler")
	})(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)

	if got := strings.Join(order, ","); got != "a,b,c,handler" {
		t.Errorf("order = %s", got)
	}
}

func TestLoggingSetsRequestID(t *testing.T) {
	var seen string
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = utils.GetRequestID(r)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id %q, header %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "given" {
		t.Errorf("request id = %q, want the caller's", seen)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("headers = %v", rec.Header())
	}
}

func TestLoggingOmitsQuery(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws/booking?token=abc.def.ghi", nil))

	out := buf.String()
	if strings.Contains(out, "abc.def.ghi") || strings.Contains(out, "token=") {
		t.Errorf("log line leaks the query: %q", out)
	}
	if !strings.Contains(out, "GET /ws/booking from") {
		t.Errorf("log line = %q", out)
	}
}
