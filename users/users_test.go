package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"keyboardquipo/auth"
	"keyboardquipo/db"
	"keyboardquipo/models"

	"github.com/julienschmidt/httprouter"
)

func newHandler() (*Handler, *db.MemoryStore, *auth.Issuer) {
	store := db.NewMemoryStore()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return NewHandler(store, issuer), store, issuer
}

func emailParam(email string) httprouter.Params {
	return httprouter.Params{{Key: "email", Value: email}}
}

func put(h httprouter.Handle, email, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/user/"+email, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req, emailParam(email))
	return rec
}

func TestUpsertIssuesToken(t *testing.T) {
	h, store, issuer := newHandler()

	rec := put(h.Upsert, "A@X.com", `{"name":"Ann"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp upsertResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result.UpsertedCount != 1 {
		t.Errorf("result = %+v", resp.Result)
	}
	claims, err := issuer.Parse(resp.Token)
	if err != nil || claims.Email != "a@x.com" {
		t.Fatalf("token claims = %+v, err = %v", claims, err)
	}
	if d := claims.ExpiresAt.Sub(claims.IssuedAt.Time); d != time.Hour {
		t.Errorf("token lifetime = %v, want 1h", d)
	}

	rec = put(h.Upsert, "a@x.com", `{"name":"Annie"}`)
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Result.MatchedCount != 1 || resp.Token == "" {
		t.Errorf("second upsert = %+v", resp)
	}

	u, _ := store.FindUserByEmail(context.Background(), "a@x.com")
	if u == nil || u.Name != "Annie" {
		t.Errorf("user = %+v", u)
	}
	users, _ := store.ListUsers(context.Background())
	if len(users) != 1 {
		t.Errorf("users = %d, want 1", len(users))
	}
}

func TestUpsertCannotSetRole(t *testing.T) {
	h, store, _ := newHandler()
	put(h.Upsert, "a@x.com", `{"name":"Ann","role":"admin"}`)

	u, _ := store.FindUserByEmail(context.Background(), "a@x.com")
	if u.IsAdmin() {
		t.Error("role was set through the public upsert")
	}
}

func TestUpsertEmptyBody(t *testing.T) {
	h, _, _ := newHandler()
	if rec := put(h.Upsert, "a@x.com", ""); rec.Code != http.StatusOK {
		t.Errorf("status %d, want 200", rec.Code)
	}
	if rec := put(h.Upsert, "a@x.com", "{bad"); rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestIsAdminAndMakeAdmin(t *testing.T) {
	h, store, _ := newHandler()
	store.UpsertUser(context.Background(), "a@x.com", models.UserUpdate{})

	isAdmin := func(email string) bool {
		rec := httptest.NewRecorder()
		h.IsAdmin(rec, httptest.NewRequest(http.MethodGet, "/admin/"+email, nil), emailParam(email))
		var body map[string]bool
		json.NewDecoder(rec.Body).Decode(&body)
		return body["admin"]
	}

	if isAdmin("a@x.com") || isAdmin("nobody@x.com") {
		t.Fatal("admin before promotion")
	}

	rec := put(h.MakeAdmin, "a@x.com", "")
	var res models.UpdateResult
	json.NewDecoder(rec.Body).Decode(&res)
	if res.ModifiedCount != 1 {
		t.Errorf("make admin = %+v", res)
	}
	if !isAdmin("a@x.com") {
		t.Error("not admin after promotion")
	}
}

func TestList(t *testing.T) {
	h, _, _ := newHandler()
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/user", nil), nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q", rec.Body)
	}
}
