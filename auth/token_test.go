package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, err := iss.Sign("a@x.com")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Email != "a@x.com" || claims.Subject != "a@x.com" {
		t.Errorf("claims = %+v", claims)
	}
	if d := claims.ExpiresAt.Sub(claims.IssuedAt.Time); d != time.Hour {
		t.Errorf("token lifetime = %s, want 1h", d)
	}
}

func TestParseRejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)

	other, _ := NewIssuer("other-secret", time.Hour).Sign("a@x.com")
	if _, err := iss.Parse(other); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v", err)
	}

	expired := NewIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Sign("a@x.com")
	if _, err := iss.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: err = %v", err)
	}

	if _, err := iss.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{"", "", ErrMissingToken},
		{"Bearer abc.def", "abc.def", nil},
		{"bearer abc", "abc", nil},
		{"Basic abc", "", ErrInvalidToken},
		{"Bearer ", "", ErrInvalidToken},
		{"abc", "", ErrInvalidToken},
	}
	for _, c := range cases {
		got, err := BearerToken(c.header)
		if !errors.Is(err, c.err) || got != c.want {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", c.header, got, err, c.want, c.err)
		}
	}
}
