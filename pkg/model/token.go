package model

import "time"

// Blacklist is the revocation state of a token.
type Blacklist struct {
	Flag      bool     `json:"flag"`
	Timestamp UnixTime `json:"timestamp,omitempty"`
}

// Token is an API token issued by the hub token server. The secret itself
// is only returned once, at creation.
type Token struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Owner       string    `json:"owner,omitempty"`
	ClientID    string    `json:"clientId,omitempty"`
	IssuedAt    UnixTime  `json:"issuedAt,omitempty"`
	Expiration  UnixTime  `json:"expiration,omitempty"`
	Audience    []string  `json:"audience,omitempty"`
	Scope       []string  `json:"scope,omitempty"`
	Blacklisted Blacklist `json:"blacklisted"`
}

// Expired reports whether the token expired at now. Tokens without an
// expiration never expire.
func (t *Token) Expired(now time.Time) bool {
	return t.Expiration != 0 && !now.Before(t.Expiration.Time())
}

// Active reports whether the token is usable at now.
func (t *Token) Active(now time.Time) bool {
	return !t.Blacklisted.Flag && !t.Expired(now)
}

// CreatedToken is the response to a token creation.
type CreatedToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	Scope       string `json:"scope,omitempty"`
}
