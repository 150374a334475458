package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "client-123.apps.googleusercontent.com"

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func sign(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":     "https://accounts.google.com",
		"aud":     testClientID,
		"sub":     "10769150350006150715113082367",
		"email":   "fan@example.com",
		"name":    "Hoops Fan",
		"picture": "https://example.com/p.png",
		"iat":     now.Add(-time.Minute).Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
}

func TestVerify_Valid(t *testing.T) {
	key := newKey(t)
	v := NewGoogleVerifier(testClientID, StaticKeySource{"k1": &key.PublicKey})

	id, err := v.Verify(context.Background(), sign(t, key, "k1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "10769150350006150715113082367", id.Subject)
	assert.Equal(t, "fan@example.com", id.Email)
	assert.Equal(t, "Hoops Fan", id.Name)
	assert.Equal(t, "https://example.com/p.png", id.Picture)
}

func TestVerify_DefaultsName(t *testing.T) {
	key := newKey(t)
	v := NewGoogleVerifier(testClientID, StaticKeySource{"k1": &key.PublicKey})

	claims := validClaims()
	delete(claims, "name")
	delete(claims, "picture")

	id, err := v.Verify(context.Background(), sign(t, key, "k1", claims))
	require.NoError(t, err)
	assert.Equal(t, DefaultName, id.Name)
	assert.Empty(t, id.Picture)
}

func TestVerify_Rejects(t *testing.T) {
	key := newKey(t)
	other := newKey(t)
	v := NewGoogleVerifier(testClientID, StaticKeySource{"k1": &key.PublicKey})

	tests := []struct {
		name  string
		token func() string
	}{
		{"empty", func() string { return "" }},
		{"garbage", func() string { return "not.a.jwt" }},
		{"wrong audience", func() string {
			c := validClaims()
			c["aud"] = "someone-else"
			return sign(t, key, "k1", c)
		}},
		{"wrong issuer", func() string {
			c := validClaims()
			c["iss"] = "https://evil.example.com"
			return sign(t, key, "k1", c)
		}},
		{"expired", func() string {
			c := validClaims()
			c["exp"] = time.Now().Add(-time.Minute).Unix()
			return sign(t, key, "k1", c)
		}},
		{"no expiry", func() string {
			c := validClaims()
			delete(c, "exp")
			return sign(t, key, "k1", c)
		}},
		{"wrong signer", func() string { return sign(t, other, "k1", validClaims()) }},
		{"unknown kid", func() string { return sign(t, key, "k9", validClaims()) }},
		{"hmac", func() string {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
			s, err := tok.SignedString([]byte("secret"))
			require.NoError(t, err)
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token())
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerify_RequiresClientID(t *testing.T) {
	key := newKey(t)
	v := NewGoogleVerifier("", StaticKeySource{"k1": &key.PublicKey})

	c := validClaims()
	c["aud"] = "some-other-app.apps.googleusercontent.com"
	id, err := v.Verify(context.Background(), sign(t, key, "k1", c))
	assert.Nil(t, id)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrNoClientID)

	// A token for our own audience is refused too
	_, err = v.Verify(context.Background(), sign(t, key, "k1", validClaims()))
	assert.ErrorIs(t, err, ErrNoClientID)
}

func TestVerify_BareIssuer(t *testing.T) {
	key := newKey(t)
	v := NewGoogleVerifier(testClientID, StaticKeySource{"k1": &key.PublicKey})

	c := validClaims()
	c["iss"] = "accounts.google.com"
	_, err := v.Verify(context.Background(), sign(t, key, "k1", c))
	assert.NoError(t, err)
}

func jwksServer(t *testing.T, key *rsa.PublicKey, kid, cacheControl string, hits *int32) *httptest.Server {
	t.Helper()
	n := base64.RawURLEncoding.EncodeToString(key.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes())
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if cacheControl != "" {
			w.Header().Set("Cache-Control", cacheControl)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"keys":[{"kty":"RSA","alg":"RS256","use":"sig","kid":%q,"n":%q,"e":%q},{"kty":"EC","kid":"ec1"}]}`, kid, n, e)
	}))
}

func TestJWKSKeySource_CachesByMaxAge(t *testing.T) {
	key := newKey(t)
	var hits int32
	srv := jwksServer(t, &key.PublicKey, "k1", "public, max-age=600, must-revalidate", &hits)
	defer srv.Close()

	src := NewJWKSKeySource(srv.URL, 5*time.Second)
	clock := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return clock }

	v := NewGoogleVerifier(testClientID, src)
	token := sign(t, key, "k1", validClaims())

	_, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "Keys should be served from cache")

	clock = clock.Add(11 * time.Minute)
	_, err = src.Key(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "Expired keys should be refetched")
}

func TestJWKSKeySource_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewJWKSKeySource(srv.URL, time.Second)
	_, err := src.Key(context.Background(), "k1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestMaxAge(t *testing.T) {
	assert.Equal(t, 600*time.Second, maxAge("public, max-age=600"))
	assert.Equal(t, defaultKeyTTL, maxAge("no-cache"))
	assert.Equal(t, defaultKeyTTL, maxAge(""))
}
