// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractToken_PriorityOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/test?token=query", nil)
	r.Header.Set("Authorization", "Bearer bearer-token ")
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "session-token"})

	if got := ExtractToken(r); got != "bearer-token" {
		t.Fatalf("ExtractToken() = %q, want %q", got, "bearer-token")
	}
}

func TestExtractToken_CookieAndIgnoresQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/test?token=query-token", nil)
	if got := ExtractToken(r); got != "" {
		t.Fatalf("ExtractToken() = %q, want empty", got)
	}

	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "session-token"})
	if got := ExtractToken(r); got != "session-token" {
		t.Fatalf("ExtractToken() = %q, want %q", got, "session-token")
	}
}

func TestAuthorizeToken(t *testing.T) {
	if AuthorizeToken("secret", "secret") != true {
		t.Fatal("AuthorizeToken should accept exact match")
	}
	if AuthorizeToken("secret", "other") != false {
		t.Fatal("AuthorizeToken should reject mismatch")
	}
	if AuthorizeToken("", "secret") != false {
		t.Fatal("AuthorizeToken should reject empty got token")
	}
	if AuthorizeToken("secret", " ") != false {
		t.Fatal("AuthorizeToken should reject blank expected token")
	}
}

func TestRegistry_Authenticate(t *testing.T) {
	reg := NewRegistry([]Viewer{
		{ID: "alice", Token: "tok-alice", TenantID: "t1"},
		{Token: "tok-anon"},
		{ID: "disabled"},
	})
	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer tok-alice")
	p, ok := reg.Authenticate(r)
	if !ok || p.ID != "alice" || p.TenantID != "t1" {
		t.Fatalf("Authenticate() = %+v, %v", p, ok)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-anon"})
	p, ok = reg.Authenticate(r)
	if !ok || len(p.ID) != 18 || p.ID[:2] != "t_" {
		t.Fatalf("anonymous viewer id = %q", p.ID)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer wrong")
	if _, ok := reg.Authenticate(r); ok {
		t.Fatal("Authenticate should reject unknown token")
	}
	if _, ok := reg.Authenticate(nil); ok {
		t.Fatal("Authenticate should reject nil request")
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	if PrincipalFromContext(ctx) != nil {
		t.Fatal("expected no principal")
	}
	p := &Principal{ID: "alice"}
	if got := PrincipalFromContext(WithPrincipal(ctx, p)); got != p {
		t.Fatalf("PrincipalFromContext() = %v", got)
	}
}
