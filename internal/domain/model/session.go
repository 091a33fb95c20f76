package model

import (
	"fmt"
	"time"
)

// ExpiryMargin is how long before its expiry a session, request result or
// password is already treated as expired.
const ExpiryMargin = 5 * time.Minute

// KeySessionLifetime is the nominal lifetime of a PS-Auth session. The vault
// declares no lifetime for API-key authentication.
const KeySessionLifetime = time.Hour

// TokenType tags how a session authenticates outgoing requests.
type TokenType string

const (
	TokenTypePSAuth TokenType = "PS-Auth"
	TokenTypeBearer TokenType = "Bearer"
)

// Session is an authenticated vault session. It is replaced wholesale on
// every successful authentication and never mutated in place.
type Session struct {
	AccessToken   Sensitive
	TokenType     TokenType
	RefreshToken  Sensitive
	IssuedAt      time.Time
	ExpiresAt     time.Time
	authorization Sensitive
}

// PSAuthHeader builds the PS-Auth Authorization header value. The password
// clause is omitted when runAsPassword is empty.
func PSAuthHeader(apiKey, runAs, runAsPassword string) string {
	h := fmt.Sprintf("PS-Auth key=%s; runas=%s", apiKey, runAs)
	if runAsPassword != "" {
		h += fmt.Sprintf("; pwd=[%s]", runAsPassword)
	}
	return h
}

// NewKeySession returns a PS-Auth session whose token is the API key itself.
func NewKeySession(apiKey, runAs, runAsPassword string, issuedAt time.Time) *Session {
	return &Session{
		AccessToken:   Sensitive(apiKey),
		TokenType:     TokenTypePSAuth,
		IssuedAt:      issuedAt,
		ExpiresAt:     issuedAt.Add(KeySessionLifetime),
		authorization: Sensitive(PSAuthHeader(apiKey, runAs, runAsPassword)),
	}
}

// NewBearerSession returns a session for an OAuth access token. A zero
// expiresAt means the server declared no lifetime; the session is then
// already expired at issuance.
func NewBearerSession(accessToken, tokenType, refreshToken string, issuedAt, expiresAt time.Time) *Session {
	if tokenType == "" {
		tokenType = string(TokenTypeBearer)
	}
	if expiresAt.IsZero() {
		expiresAt = issuedAt
	}
	return &Session{
		AccessToken:   Sensitive(accessToken),
		TokenType:     TokenType(tokenType),
		RefreshToken:  Sensitive(refreshToken),
		IssuedAt:      issuedAt,
		ExpiresAt:     expiresAt,
		authorization: Sensitive(tokenType + " " + accessToken),
	}
}

// Authorization returns the Authorization header value for this session.
func (s *Session) Authorization() string {
	return s.authorization.Reveal()
}

// Lifetime returns the span between issuance and expiry.
func (s *Session) Lifetime() time.Duration {
	return s.ExpiresAt.Sub(s.IssuedAt)
}

// IsExpired reports whether the session must be replaced before use at now.
func (s *Session) IsExpired(now time.Time) bool {
	return expiredAt(s.ExpiresAt, now)
}

// String never includes the token.
func (s *Session) String() string {
	return fmt.Sprintf("%s session (expires %s)", s.TokenType, s.ExpiresAt.UTC().Format(time.RFC3339))
}

// expiredAt applies ExpiryMargin: usable only while now+margin is strictly
// before expiry. A zero expiry is always expired.
func expiredAt(expiry, now time.Time) bool {
	if expiry.IsZero() {
		return true
	}
	return !now.Add(ExpiryMargin).Before(expiry)
}
