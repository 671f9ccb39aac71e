package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jose "gopkg.in/go-jose/go-jose.v2"
)

// JWKSPath is where TokenIssuer publishes its key set.
const JWKSPath = "/.well-known/jwks.json"

// TokenIssuer is a stand-in identity provider: it publishes an RSA key set
// over HTTP and mints RS256 tokens signed with the matching private key.
type TokenIssuer struct {
	Key    *rsa.PrivateKey
	KeyID  string
	Server *httptest.Server

	fetches atomic.Int32
}

// NewTokenIssuer starts the key set server; it is closed when t finishes.
func NewTokenIssuer(t testing.TB) *TokenIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate rsa key: %v", err)
	}

	issuer := &TokenIssuer{Key: key, KeyID: "test-key-1"}
	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     issuer.KeyID,
		Algorithm: "RS256",
		Use:       "sig",
	}}}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("failed to encode key set: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(JWKSPath, func(w http.ResponseWriter, r *http.Request) {
		issuer.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	issuer.Server = httptest.NewServer(mux)
	t.Cleanup(issuer.Server.Close)

	return issuer
}

// JWKSURL is the URL of the published key set.
func (i *TokenIssuer) JWKSURL() string {
	return i.Server.URL + JWKSPath
}

// Fetches reports how many times the key set has been downloaded.
func (i *TokenIssuer) Fetches() int {
	return int(i.fetches.Load())
}

// Token mints a token for subject that expires at expiresAt. The audience is
// set to a value nobody checks.
func (i *TokenIssuer) Token(t testing.TB, subject string, expiresAt time.Time) string {
	t.Helper()
	return i.sign(t, i.Key, jwt.MapClaims{
		"sub":       subject,
		"exp":       expiresAt.Unix(),
		"iat":       time.Now().Unix(),
		"aud":       "some-app-client-id",
		"token_use": "access",
	})
}

// TokenSignedBy mints a token for subject with a key the issuer does not
// publish.
func (i *TokenIssuer) TokenSignedBy(t testing.TB, key *rsa.PrivateKey, subject string) string {
	t.Helper()
	return i.sign(t, key, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

// TokenWithoutExpiry mints a token with no exp claim.
func (i *TokenIssuer) TokenWithoutExpiry(t testing.TB, subject string) string {
	t.Helper()
	return i.sign(t, i.Key, jwt.MapClaims{"sub": subject})
}

func (i *TokenIssuer) sign(t testing.TB, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.KeyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
