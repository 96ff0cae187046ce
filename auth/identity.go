package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"hanabi-server/config"
	"hanabi-server/identity"
	"hanabi-server/lobbyerrors"
)

// nameCookieSuffix names the cookie carrying a display name when identity
// tokens are unsigned (development mode).
const nameCookieSuffix = "_name"

// Verifier resolves the identity carried by a request's identity cookie.
// Tokens are JWTs verified with an HMAC secret or a remote JWKS; with neither
// configured, the raw cookie value is trusted as the player id.
type Verifier struct {
	cookie        string
	maxNameLength int
	keyfunc       jwt.Keyfunc
	methods       []string
}

// NewVerifier builds a Verifier from the identity settings in cfg.
func NewVerifier(cfg *config.Config) (*Verifier, error) {
	v := &Verifier{cookie: cfg.IdentityCookie, maxNameLength: cfg.MaxNameLength}
	switch {
	case cfg.AuthJWKSURL != "":
		jwks, err := keyfunc.NewDefault([]string{cfg.AuthJWKSURL})
		if err != nil {
			return nil, fmt.Errorf("load jwks: %w", err)
		}
		v.keyfunc = jwks.Keyfunc
		v.methods = []string{"EdDSA", "RS256", "ES256"}
	case cfg.IdentitySecret != "":
		secret := []byte(cfg.IdentitySecret)
		v.keyfunc = func(*jwt.Token) (any, error) { return secret, nil }
		v.methods = []string{jwt.SigningMethodHS256.Alg()}
	}
	return v, nil
}

// Signed reports whether identity tokens are cryptographically verified.
func (v *Verifier) Signed() bool {
	return v.keyfunc != nil
}

// FromRequest returns the identity of the request's sender, or an error
// wrapping lobbyerrors.ErrNoIdentity.
func (v *Verifier) FromRequest(r *http.Request) (identity.Identity, error) {
	c, err := r.Cookie(v.cookie)
	if err != nil || c.Value == "" {
		return identity.Identity{}, fmt.Errorf("%w: missing %s cookie", lobbyerrors.ErrNoIdentity, v.cookie)
	}
	if !v.Signed() {
		id := identity.Identity{ID: c.Value}
		if n, err := r.Cookie(v.cookie + nameCookieSuffix); err == nil {
			id.Name = v.trimName(n.Value)
		}
		return id, nil
	}
	return v.Parse(c.Value)
}

// Parse verifies a token and extracts its identity.
func (v *Verifier) Parse(tokenString string) (identity.Identity, error) {
	if !v.Signed() {
		return identity.Identity{}, errors.New("identity tokens are not signed")
	}
	token, err := jwt.Parse(tokenString, v.keyfunc, jwt.WithValidMethods(v.methods))
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", lobbyerrors.ErrNoIdentity, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return identity.Identity{}, fmt.Errorf("%w: invalid token claims", lobbyerrors.ErrNoIdentity)
	}
	id := UserIDFromClaims(claims)
	if id == "" {
		return identity.Identity{}, fmt.Errorf("%w: token has no subject", lobbyerrors.ErrNoIdentity)
	}
	return identity.Identity{ID: id, Name: v.trimName(NameFromClaims(claims))}, nil
}

func (v *Verifier) trimName(name string) string {
	name = strings.TrimSpace(name)
	if v.maxNameLength > 0 {
		if r := []rune(name); len(r) > v.maxNameLength {
			name = string(r[:v.maxNameLength])
		}
	}
	return name
}

// NameFromClaims returns the "name" claim.
func NameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	return strings.TrimSpace(name)
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}

// Sign issues an HMAC-signed identity token. Token issuance belongs to the
// identity subsystem; this is the format it must produce.
func Sign(secret string, id identity.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  id.ID,
		"name": id.Name,
		"iat":  now.Unix(),
	}
	if ttl != 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
