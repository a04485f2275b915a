package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("test-secret", "portal", "portal-api")
	require.NoError(t, err)

	token, err := v.Sign("admin-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Identity)
	assert.Equal(t, "admin", claims.Role)
	assert.NotZero(t, claims.ExpiresAt)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := NewJWTVerifier("test-secret", "portal", "")
	require.NoError(t, err)

	other, err := NewJWTVerifier("other-secret", "portal", "")
	require.NoError(t, err)
	forged, err := other.Sign("admin-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	expired, err := v.Sign("admin-1", models.RoleAdmin, -time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "portal",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", forged},
		{"expired", expired},
		{"wrong issuer", wrongIssuer},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		})
	}
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("", "", "")
	assert.Error(t, err)
}

func introspectionServer(t *testing.T, status int, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realms/portal/protocol/openid-connect/token/introspect", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "portal-api", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestKeycloakClient_Verify(t *testing.T) {
	t.Run("active token with realm roles", func(t *testing.T) {
		srv := introspectionServer(t, http.StatusOK,
			`{"active":true,"sub":"u-1","exp":1900000000,"aud":"portal-api","realm_access":{"roles":["offline_access","mentor","admin"]}}`)
		kc := NewKeycloakClient(srv.URL+"/", "portal", "portal-api", "s3cret")

		claims, err := kc.Verify(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.Identity)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, int64(1900000000), claims.ExpiresAt)
	})

	t.Run("explicit role claim", func(t *testing.T) {
		srv := introspectionServer(t, http.StatusOK,
			`{"active":true,"sub":"u-2","role":"applicant","aud":["a","b"],"realm_access":{"roles":["admin"]}}`)
		kc := NewKeycloakClient(srv.URL, "portal", "portal-api", "s3cret")

		claims, err := kc.Verify(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "applicant", claims.Role)
	})

	t.Run("inactive token", func(t *testing.T) {
		srv := introspectionServer(t, http.StatusOK, `{"active":false}`)
		kc := NewKeycloakClient(srv.URL, "portal", "portal-api", "s3cret")

		_, err := kc.Verify(context.Background(), "tok")
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("provider outage is retryable", func(t *testing.T) {
		srv := introspectionServer(t, http.StatusServiceUnavailable, `down`)
		kc := NewKeycloakClient(srv.URL, "portal", "portal-api", "s3cret")

		_, err := kc.Verify(context.Background(), "tok")
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})

	t.Run("client rejected", func(t *testing.T) {
		srv := introspectionServer(t, http.StatusUnauthorized, `{"error":"invalid_client"}`)
		kc := NewKeycloakClient(srv.URL, "portal", "portal-api", "s3cret")

		_, err := kc.Verify(context.Background(), "tok")
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

func TestRevocationList(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	list := NewRevocationList(client, time.Hour)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "tok-1", 0))

	revoked, err = list.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsRevoked(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.False(t, mr.Exists("token:revoked:tok-1"), "raw token must not be used as key")

	mr.FastForward(2 * time.Hour)
	revoked, err = list.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationList_TTLBoundedByExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	list := NewRevocationList(client, 24*time.Hour)
	require.NoError(t, list.Revoke(context.Background(), "tok", time.Now().Add(10*time.Minute).Unix()))

	ttl := mr.TTL(revokedKey("tok"))
	assert.LessOrEqual(t, ttl, 10*time.Minute)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRevocationList_RedisFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	list := NewRevocationList(client, time.Hour)
	ctx := context.Background()

	mock.ExpectSet(revokedKey("tok"), "1", time.Hour).SetErr(fmt.Errorf("connection refused"))
	err := list.Revoke(ctx, "tok", 0)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	mock.ExpectExists(revokedKey("tok")).SetErr(fmt.Errorf("connection refused"))
	_, err = list.IsRevoked(ctx, "tok")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}
