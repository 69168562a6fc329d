package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Token is the credential pair of one ERP user.
type Token struct {
	UserID          string
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
}

// AccessValid reports whether the access token can still be used at now.
func (t Token) AccessValid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.AccessExpiresAt)
}

type Status struct {
	UserID          string     `json:"user_id"`
	Authorized      bool       `json:"authorized"`
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
	HasRefreshToken bool       `json:"has_refresh_token"`
}

// TokenResponse is the OAuth2 token endpoint payload.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    ExpiresIn `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
}

// ExpiresIn accepts both numeric and quoted second counts.
type ExpiresIn int64

func (e *ExpiresIn) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*e = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ErrInvalidExpiresIn
	}
	*e = ExpiresIn(seconds)
	return nil
}

// CacheTTL converts the lifetime to whole minutes, rounding down.
func (e ExpiresIn) CacheTTL() time.Duration {
	return time.Duration(int64(e)/60) * time.Minute
}
