package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubVerifier struct {
	verifyFn func(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

func (s *stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	return s.verifyFn(ctx, idToken)
}

func okHandler(captured **Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFromContext(r.Context()); ok {
			*captured = identity
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireMissingHeader(t *testing.T) {
	authn := NewAuthenticator(&stubVerifier{verifyFn: func(context.Context, string) (*firebaseauth.Token, error) {
		t.Fatal("verifier should not be called")
		return nil, nil
	}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	authn.Require()(okHandler(new(*Identity))).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireVerifierFailure(t *testing.T) {
	authn := NewAuthenticator(&stubVerifier{verifyFn: func(context.Context, string) (*firebaseauth.Token, error) {
		return nil, errors.New("boom")
	}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer tok")
	authn.Require()(okHandler(new(*Identity))).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequirePopulatesIdentityWithFallbackRole(t *testing.T) {
	authn := NewAuthenticator(&stubVerifier{verifyFn: func(_ context.Context, idToken string) (*firebaseauth.Token, error) {
		if idToken != "tok" {
			t.Fatalf("token = %q, want tok", idToken)
		}
		return &firebaseauth.Token{UID: "user-1", Claims: map[string]interface{}{"email": "a@b.vn"}}, nil
	}})

	var captured *Identity
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer tok")
	authn.Require(RoleUser)(okHandler(&captured)).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if captured == nil || captured.UID != "user-1" {
		t.Fatalf("identity = %+v, want uid user-1", captured)
	}
	if !captured.HasRole(RoleUser) {
		t.Fatalf("expected fallback user role, got %v", captured.Roles)
	}
}

func TestRequireEnforcesRole(t *testing.T) {
	authn := NewAuthenticator(&stubVerifier{verifyFn: func(context.Context, string) (*firebaseauth.Token, error) {
		return &firebaseauth.Token{UID: "user-1", Claims: map[string]interface{}{"role": "user"}}, nil
	}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/orders/o1/status", nil)
	req.Header.Set("Authorization", "Bearer tok")
	authn.Require(RoleAdmin)(okHandler(new(*Identity))).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
