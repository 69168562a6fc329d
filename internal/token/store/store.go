package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/smallbiznis/exactsync/internal/cache"
	"github.com/smallbiznis/exactsync/internal/token/domain"
)

const (
	accessSuffix  = "access_token"
	refreshSuffix = "refresh_token"
)

type accessRecord struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type cacheStore struct {
	cache cache.Store
}

// New keeps tokens under <user>.access_token and <user>.refresh_token.
func New(store cache.Store) domain.Store {
	return &cacheStore{cache: store}
}

func AccessKey(userID string) string {
	return cache.Key(userID, accessSuffix)
}

func RefreshKey(userID string) string {
	return cache.Key(userID, refreshSuffix)
}

func (s *cacheStore) Load(ctx context.Context, userID string) (domain.Token, error) {
	token := domain.Token{UserID: userID}

	raw, ok, err := s.cache.Get(ctx, AccessKey(userID))
	if err != nil {
		return token, err
	}
	if ok {
		var rec accessRecord
		if json.Unmarshal(raw, &rec) == nil {
			token.AccessToken = rec.Token
			token.AccessExpiresAt = rec.ExpiresAt
		}
	}

	raw, ok, err = s.cache.Get(ctx, RefreshKey(userID))
	if err != nil {
		return token, err
	}
	if ok {
		token.RefreshToken = string(raw)
	}
	return token, nil
}

func (s *cacheStore) Save(ctx context.Context, token domain.Token, accessTTL time.Duration) error {
	entries := []cache.Entry{
		{Key: RefreshKey(token.UserID), Value: []byte(token.RefreshToken)},
	}
	if accessTTL > 0 && token.AccessToken != "" {
		raw, err := json.Marshal(accessRecord{Token: token.AccessToken, ExpiresAt: token.AccessExpiresAt})
		if err != nil {
			return err
		}
		entries = append(entries, cache.Entry{Key: AccessKey(token.UserID), Value: raw, TTL: accessTTL})
	}
	if err := s.cache.PutMany(ctx, entries); err != nil {
		return err
	}
	if accessTTL <= 0 {
		// the previous access token belongs to the replaced pair
		return s.cache.Forget(ctx, AccessKey(token.UserID))
	}
	return nil
}

func (s *cacheStore) ForgetRefreshToken(ctx context.Context, userID string) error {
	if err := s.cache.Forget(ctx, AccessKey(userID)); err != nil {
		return err
	}
	return s.cache.Forget(ctx, RefreshKey(userID))
}
