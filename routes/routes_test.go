package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"keyboardquipo/auth"
	"keyboardquipo/booking"
	"keyboardquipo/db"
	"keyboardquipo/middleware"
	"keyboardquipo/models"
	"keyboardquipo/mq"
	"keyboardquipo/parts"
	"keyboardquipo/pay"
	"keyboardquipo/profile"
	"keyboardquipo/ratelim"
	"keyboardquipo/rdx"
	"keyboardquipo/reviews"
	"keyboardquipo/users"
)

type fakeProcessor struct{}

func (fakeProcessor) CreatePaymentIntent(_ context.Context, amount int64, _ string) (string, error) {
	return "secret", nil
}

type testServer struct {
	t      *testing.T
	store  *db.MemoryStore
	issuer *auth.Issuer
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	store := db.NewMemoryStore()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	guard := middleware.NewGuard(issuer, store)

	app := &App{
		Guard:       guard,
		RateLimiter: ratelim.NewRateLimiter(1000, 1000),
		Idempotency: pay.NewMemoryIdempotencyStore(),
		Parts:       parts.NewHandler(store),
		Bookings:    booking.NewHandler(store, guard, rdx.NewLocalLocker(), mq.NewLocalBus(), booking.NewHub([]string{"*"})),
		Users:       users.NewHandler(store, issuer),
		Reviews:     reviews.NewHandler(store),
		Profiles:    profile.NewHandler(store),
		Payments:    pay.NewPaymentService(fakeProcessor{}, "usd"),
	}
	return &testServer{t: t, store: store, issuer: issuer, router: NewRouter(app)}
}

func (s *testServer) do(method, target, body, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// login upserts the user through the public route and returns its token.
func (s *testServer) login(email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPut, "/user/"+email, `{"name":"x"}`, "")
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	return resp.Token
}

func (s *testServer) makeAdmin(email string) string {
	s.t.Helper()
	token := s.login(email)
	s.store.SetRole(context.Background(), email, models.RoleAdmin)
	return token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(http.MethodGet, "/", "", ""); rec.Body.String() != "Hello Keyboardquipo!" {
		t.Errorf("index = %q", rec.Body)
	}
	if rec := s.do(http.MethodGet, "/health", "", ""); rec.Body.String() != "200" {
		t.Errorf("health = %q", rec.Body)
	}
}

func TestAuthFailures(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/user", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no header: %d, want 401", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["message"]; msg != "UnAuthorized access" {
		t.Errorf("message = %q", msg)
	}

	if rec := s.do(http.MethodGet, "/user", "", "garbage"); rec.Code != http.StatusForbidden {
		t.Errorf("bad token: %d, want 403", rec.Code)
	}

	expired, _ := auth.NewIssuer("test-secret", -time.Minute).Sign("a@x.com")
	if rec := s.do(http.MethodGet, "/user", "", expired); rec.Code != http.StatusForbidden {
		t.Errorf("expired token: %d, want 403", rec.Code)
	}

	forged, _ := auth.NewIssuer("other-secret", time.Hour).Sign("a@x.com")
	if rec := s.do(http.MethodGet, "/user", "", forged); rec.Code != http.StatusForbidden {
		t.Errorf("forged token: %d, want 403", rec.Code)
	}

	if rec := s.do(http.MethodGet, "/user", "", s.login("a@x.com")); rec.Code != http.StatusOK {
		t.Errorf("valid token: %d", rec.Code)
	}
}

func TestAdminGate(t *testing.T) {
	s := newTestServer(t)
	user := s.login("u@x.com")
	admin := s.makeAdmin("boss@x.com")

	body := `{"name":"Keycap set","price":45,"quantity":3}`
	if rec := s.do(http.MethodPost, "/part", body, user); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin create: %d, want 403", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/part", body, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: %d, want 401", rec.Code)
	}

	// a valid token for an email with no user record
	ghost, _ := s.issuer.Sign("ghost@x.com")
	if rec := s.do(http.MethodPost, "/part", body, ghost); rec.Code != http.StatusForbidden {
		t.Errorf("unknown user create: %d, want 403", rec.Code)
	}

	rec := s.do(http.MethodPost, "/part", body, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin create: %d %s", rec.Code, rec.Body)
	}
	id := decode[models.InsertResult](t, rec).InsertedID

	if rec := s.do(http.MethodDelete, "/part/"+id, "", user); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin delete: %d, want 403", rec.Code)
	}
	if res := decode[models.DeleteResult](t, s.do(http.MethodDelete, "/part/"+id, "", admin)); res.DeletedCount != 1 {
		t.Errorf("admin delete = %+v", res)
	}
}

func TestPromoteUser(t *testing.T) {
	s := newTestServer(t)
	user := s.login("u@x.com")
	admin := s.makeAdmin("boss@x.com")

	if rec := s.do(http.MethodPut, "/user/admin/u@x.com", "", user); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin promote: %d, want 403", rec.Code)
	}
	if got := decode[map[string]bool](t, s.do(http.MethodGet, "/admin/u@x.com", "", ""))["admin"]; got {
		t.Fatal("u@x.com is admin before promotion")
	}

	if res := decode[models.UpdateResult](t, s.do(http.MethodPut, "/user/admin/u@x.com", "", admin)); res.ModifiedCount != 1 {
		t.Errorf("promote = %+v", res)
	}
	if got := decode[map[string]bool](t, s.do(http.MethodGet, "/admin/u@x.com", "", ""))["admin"]; !got {
		t.Error("u@x.com not admin after promotion")
	}

	if rec := s.do(http.MethodPut, "/user/other/u@x.com", "", admin); rec.Code != http.StatusNotFound {
		t.Errorf("unknown sub-route: %d, want 404", rec.Code)
	}
}

func TestPartsArePublicToReadAndUpsert(t *testing.T) {
	s := newTestServer(t)
	id := "64b7f0c2a1b2c3d4e5f60718"

	if rec := s.do(http.MethodGet, "/part/"+id, "", ""); strings.TrimSpace(rec.Body.String()) != "null" {
		t.Errorf("missing part body = %q", rec.Body)
	}
	res := decode[models.UpdateResult](t, s.do(http.MethodPut, "/part/"+id, `{"name":"Stabilizer","price":2}`, ""))
	if res.UpsertedCount != 1 {
		t.Errorf("upsert = %+v", res)
	}
	if list := decode[[]models.Part](t, s.do(http.MethodGet, "/part", "", "")); len(list) != 1 || list[0].ID.Hex() != id {
		t.Errorf("list = %+v", list)
	}
	if rec := s.do(http.MethodGet, "/part/xyz", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id: %d, want 400", rec.Code)
	}
}

func TestBookingCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login("a@x.com")
	other := s.login("b@x.com")

	rec := s.do(http.MethodPost, "/booking", `{"buyer":"a@x.com","partName":"Switch","price":0.5,"quantity":90}`, "")
	id := decode[models.InsertResult](t, rec).InsertedID

	if rec := s.do(http.MethodGet, "/booking?buyer=a@x.com", "", other); rec.Code != http.StatusForbidden {
		t.Errorf("other buyer list: %d, want 403", rec.Code)
	}
	list := decode[[]models.Booking](t, s.do(http.MethodGet, "/booking?buyer=a@x.com", "", token))
	if len(list) != 1 || list[0].Paid {
		t.Fatalf("list = %+v", list)
	}

	intent := decode[map[string]string](t, s.do(http.MethodPost, "/create-payment-intent", `{"price":45}`, token))
	if intent["clientSecret"] != "secret" {
		t.Errorf("intent = %v", intent)
	}

	res := decode[models.UpdateResult](t, s.do(http.MethodPatch, "/booking/"+id, `{"transactionId":"pi_1"}`, token))
	if res.MatchedCount != 1 || res.ModifiedCount != 1 {
		t.Errorf("mark paid = %+v", res)
	}
	b := decode[models.Booking](t, s.do(http.MethodGet, "/booking/"+id, "", token))
	if !b.Paid || b.TransactionID != "pi_1" {
		t.Errorf("booking = %+v", b)
	}
	payments, _ := s.store.ListPaymentsByBooking(context.Background(), id)
	if len(payments) != 1 {
		t.Errorf("payments = %d, want 1", len(payments))
	}

	if rec := s.do(http.MethodGet, "/booking/"+id+"/receipt", "", token); rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("receipt: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec := s.do(http.MethodDelete, "/booking/"+id, "", other); rec.Code != http.StatusForbidden {
		t.Errorf("other buyer delete: %d, want 403", rec.Code)
	}
}

func TestReviewsAndProfiles(t *testing.T) {
	s := newTestServer(t)
	token := s.login("a@x.com")

	if rec := s.do(http.MethodPost, "/review", `{"comment":"nice"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous review: %d, want 401", rec.Code)
	}
	s.do(http.MethodPost, "/review", `{"comment":"nice"}`, token)
	if list := decode[[]models.Review](t, s.do(http.MethodGet, "/review", "", "")); len(list) != 1 || list[0].Author != "a@x.com" {
		t.Errorf("reviews = %+v", list)
	}

	id := decode[models.InsertResult](t, s.do(http.MethodPost, "/profile", `{"name":"Ann"}`, "")).InsertedID
	if p := decode[models.Profile](t, s.do(http.MethodGet, "/profile/"+id, "", "")); p.Name != "Ann" {
		t.Errorf("profile = %+v", p)
	}
}
