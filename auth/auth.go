// Package auth validates the bearer tokens presented to the workout endpoints.
//
// Tokens are RS256 JWTs issued by the Cognito user pool. Signatures are
// checked against the pool's published key set, expiry is required, the
// audience is not checked, and the subject must be the user the request is
// acting on.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/golang-jwt/jwt/v5"
	jose "gopkg.in/go-jose/go-jose.v2"
)

// DefaultJWKSURL is the key set of the production user pool.
const DefaultJWKSURL = "https://cognito-idp.us-west-1.amazonaws.com/us-west-1_wXwzuvOYr/.well-known/jwks.json"

var (
	// ErrMissingToken is returned when no Authorization header was sent.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken wraps parsing and validation failures.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrSubjectMismatch is returned when the token belongs to another user.
	ErrSubjectMismatch = errors.New("token subject does not match user")
)

// Claims is what the handlers need from a verified token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// KeySetFunc returns the current key set. The jwks caching provider's
// KeyFunc has this shape and returns a *jose.JSONWebKeySet.
type KeySetFunc func(ctx context.Context) (interface{}, error)

type Verifier struct {
	keys KeySetFunc
}

// NewVerifier builds a Verifier that downloads the key set at jwksURL on first
// use and keeps it for cacheTTL.
func NewVerifier(jwksURL string, cacheTTL time.Duration) (*Verifier, error) {
	jwksURI, err := url.Parse(jwksURL)
	if err != nil {
		return nil, fmt.Errorf("invalid jwks url %q: %w", jwksURL, err)
	}
	if jwksURI.Scheme == "" || jwksURI.Host == "" {
		return nil, fmt.Errorf("invalid jwks url %q: must be absolute", jwksURL)
	}

	issuerURL := &url.URL{
		Scheme: jwksURI.Scheme,
		Host:   jwksURI.Host,
		Path:   strings.TrimSuffix(jwksURI.Path, "/.well-known/jwks.json"),
	}
	provider := jwks.NewCachingProvider(issuerURL, cacheTTL, jwks.WithCustomJWKSURI(jwksURI))
	return NewVerifierWithKeys(provider.KeyFunc), nil
}

// NewVerifierWithKeys builds a Verifier around an arbitrary key source.
func NewVerifierWithKeys(keys KeySetFunc) *Verifier {
	return &Verifier{keys: keys}
}

// Authorize validates the raw Authorization header value and checks that the
// token was issued to expectedSubject.
func (v *Verifier) Authorize(ctx context.Context, header, expectedSubject string) (*Claims, error) {
	claims, err := v.Parse(ctx, header)
	if err != nil {
		return nil, err
	}
	if claims.Subject != expectedSubject {
		return nil, fmt.Errorf("%w: token subject %q, expected %q", ErrSubjectMismatch, claims.Subject, expectedSubject)
	}
	return claims, nil
}

// Parse validates a token, with or without its "Bearer " prefix.
func (v *Verifier) Parse(ctx context.Context, header string) (*Claims, error) {
	token := stripBearer(header)
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, v.keyFunc(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}

	return &Claims{Subject: subject, ExpiresAt: exp.Time}, nil
}

func stripBearer(header string) string {
	token := strings.TrimSpace(header)
	const prefix = "bearer"
	if len(token) >= len(prefix) && strings.EqualFold(token[:len(prefix)], prefix) {
		rest := token[len(prefix):]
		if rest == "" || rest[0] == ' ' {
			return strings.TrimSpace(rest)
		}
	}
	return token
}

func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)

		raw, err := v.keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load key set: %w", err)
		}
		set, ok := raw.(*jose.JSONWebKeySet)
		if !ok {
			return nil, fmt.Errorf("unexpected key set type %T", raw)
		}

		for _, key := range set.Key(kid) {
			if key.Use == "" || key.Use == "sig" {
				return key.Key, nil
			}
		}
		return nil, fmt.Errorf("no signing key for kid %q", kid)
	}
}
