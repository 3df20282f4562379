package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/jwt_token"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/platform/middleware"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoActor records the actor that RequireAuth injected into the context.
func echoActor(captured *struct {
	userID domain.UserID
	email  string
	role   domain.Role
}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		captured.userID = requestcontext.ActorID(ctx)
		captured.email = requestcontext.Actor(ctx)
		captured.role = requestcontext.Role(ctx)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth(t *testing.T) {
	svc := jwttoken.NewJWTService("test-signing-key", "loan-approval")
	userID := domain.NewUserID()

	var seen struct {
		userID domain.UserID
		email  string
		role   domain.Role
	}
	handler := middleware.RequireAuth(svc, discardLogger())(echoActor(&seen))

	t.Run("valid token injects actor", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(userID, "officer@bank.test", "Officer", domain.RoleOfficer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/applications", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID, seen.userID)
		assert.Equal(t, "officer@bank.test", seen.email)
		assert.Equal(t, domain.RoleOfficer, seen.role)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/applications", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t,
			`{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`,
			rec.Body.String())
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/applications", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(userID, "officer@bank.test", "Officer", domain.RoleOfficer, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/applications", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with a different key is rejected", func(t *testing.T) {
		other := jwttoken.NewJWTService("some-other-key", "loan-approval")
		token, err := other.GenerateAccessToken(userID, "officer@bank.test", "Officer", domain.RoleOfficer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/applications", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	gate := middleware.RequireRole(discardLogger(), domain.RoleOfficer, domain.RoleAdmin)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(role domain.Role) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
		ctx := requestcontext.WithActor(req.Context(), domain.NewUserID(), "someone@bank.test", role)
		rec := httptest.NewRecorder()
		gate(next).ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	assert.Equal(t, http.StatusNoContent, serve(domain.RoleOfficer).Code)
	assert.Equal(t, http.StatusNoContent, serve(domain.RoleAdmin).Code)

	rec := serve(domain.RoleCustomer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}
