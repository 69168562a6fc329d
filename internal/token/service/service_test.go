package service

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/exactsync/internal/cache"
	"github.com/smallbiznis/exactsync/internal/clock"
	"github.com/smallbiznis/exactsync/internal/erperr"
	"github.com/smallbiznis/exactsync/internal/exact/exacttest"
	"github.com/smallbiznis/exactsync/internal/token/domain"
	"github.com/smallbiznis/exactsync/internal/token/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tokenResource = "api/oauth2/token"

type fixture struct {
	erp   *exacttest.Server
	clk   *clock.FakeClock
	cache *cache.MemoryStore
	store domain.Store
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	erp := exacttest.New(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	mem := cache.NewMemoryStoreWithClock(clk.Now)
	tokens := store.New(mem)
	svc := New(Params{
		Cfg:    erp.Config(),
		Store:  tokens,
		Locker: cache.NewMemoryLocker(),
		Clock:  clk,
		Log:    zap.NewNop(),
	})
	return &fixture{erp: erp, clk: clk, cache: mem, store: tokens, svc: svc}
}

func tokenReply(access, refresh string, expiresIn any) exacttest.Handler {
	return func(call exacttest.Call) (int, any) {
		return http.StatusOK, map[string]any{
			"access_token":  access,
			"token_type":    "bearer",
			"expires_in":    expiresIn,
			"refresh_token": refresh,
		}
	}
}

func TestEnsureValidTokenReturnsCachedAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, domain.Token{
		UserID:          "u1",
		AccessToken:     "live",
		AccessExpiresAt: f.clk.Now().Add(5 * time.Minute),
		RefreshToken:    "r1",
	}, 5*time.Minute))

	token, err := f.svc.EnsureValidToken(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "live", token)
	assert.Equal(t, 0, f.erp.Total())
}

func TestEnsureValidTokenRefreshesExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, domain.Token{
		UserID:          "u1",
		AccessToken:     "old",
		AccessExpiresAt: f.clk.Now().Add(time.Minute),
		RefreshToken:    "r1",
	}, time.Minute))
	f.clk.Advance(2 * time.Minute)
	f.erp.Handle(http.MethodPost, tokenResource, tokenReply("new-access", "r2", 600))

	token, err := f.svc.EnsureValidToken(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)

	calls := f.erp.Calls(http.MethodPost, tokenResource)
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Auth)
	form, err := url.ParseQuery(string(calls[0].Body))
	require.NoError(t, err)
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "r1", form.Get("refresh_token"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))

	stored, err := f.store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "r2", stored.RefreshToken)
	assert.Equal(t, f.clk.Now().Add(10*time.Minute), stored.AccessExpiresAt)

	// the access entry expires after exactly ten minutes
	f.clk.Advance(10*time.Minute - time.Second)
	_, ok, err := f.cache.Get(ctx, store.AccessKey("u1"))
	require.NoError(t, err)
	assert.True(t, ok)
	f.clk.Advance(time.Second)
	_, ok, err = f.cache.Get(ctx, store.AccessKey("u1"))
	require.NoError(t, err)
	assert.False(t, ok)

	// the refresh token never expires
	f.clk.Advance(365 * 24 * time.Hour)
	raw, ok, err := f.cache.Get(ctx, store.RefreshKey("u1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r2", string(raw))
}

func TestEnsureValidTokenWithoutRefreshTokenRequiresAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.EnsureValidToken(context.Background(), "nobody")
	assert.ErrorIs(t, err, erperr.ErrAuthRequired)
	assert.Equal(t, 0, f.erp.Total())
}

func TestEnsureValidTokenAcceptsStringExpiresIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, domain.Token{UserID: "u1", RefreshToken: "r1"}, 0))
	f.erp.Handle(http.MethodPost, tokenResource, tokenReply("a", "r2", "119"))

	_, err := f.svc.EnsureValidToken(ctx, "u1")
	require.NoError(t, err)

	stored, err := f.store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, f.clk.Now().Add(time.Minute), stored.AccessExpiresAt)
}

func TestEnsureValidTokenShortLifetimeStoresOnlyRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, domain.Token{UserID: "u1", RefreshToken: "r1"}, 0))
	f.erp.Handle(http.MethodPost, tokenResource, tokenReply("a", "r2", 59))

	token, err := f.svc.EnsureValidToken(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a", token)

	stored, err := f.store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stored.AccessToken)
	assert.Equal(t, "r2", stored.RefreshToken)
}

func TestEnsureValidTokenRejectedRefreshForgetsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, domain.Token{UserID: "u1", RefreshToken: "revoked"}, 0))
	f.erp.Handle(http.MethodPost, tokenResource, func(call exacttest.Call) (int, any) {
		return http.StatusBadRequest, map[string]string{"error": "invalid_grant"}
	})

	_, err := f.svc.EnsureValidToken(ctx, "u1")
	assert.ErrorIs(t, err, erperr.ErrTokenRefreshFailed)
	assert.ErrorIs(t, err, erperr.ErrAuthRequired)
	assert.Contains(t, err.Error(), "invalid_grant")

	stored, err := f.store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)

	_, err = f.svc.EnsureValidToken(ctx, "u1")
	assert.ErrorIs(t, err, erperr.ErrAuthRequired)
	assert.Equal(t, 1, f.erp.Count(http.MethodPost, tokenResource))
}

func TestEnsureValidTokenMalformedResponse(t *testing.T) {
	cases := map[string]exacttest.Handler{
		"missing refresh token": tokenReply("a", "", 600),
		"zero lifetime":         tokenReply("a", "r2", 0),
		"not json": func(call exacttest.Call) (int, any) {
			return http.StatusOK, "plain text"
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, f.store.Save(ctx, domain.Token{UserID: "u1", RefreshToken: "r1"}, 0))
			f.erp.Handle(http.MethodPost, tokenResource, handler)

			_, err := f.svc.EnsureValidToken(ctx, "u1")
			assert.ErrorIs(t, err, erperr.ErrInvalidTokenResponse)

			stored, err := f.store.Load(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "r1", stored.RefreshToken)
		})
	}
}

func TestEnsureValidTokenServerErrorIsTransport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, domain.Token{UserID: "u1", RefreshToken: "r1"}, 0))

	_, err := f.svc.EnsureValidToken(ctx, "u1")
	assert.ErrorIs(t, err, erperr.ErrTransport)
	assert.NotErrorIs(t, err, erperr.ErrAuthRequired)
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, domain.Token{UserID: "u1", RefreshToken: "r1"}, 0))
	f.erp.Handle(http.MethodPost, tokenResource, tokenReply("shared", "r2", 600))

	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.EnsureValidToken(ctx, "u1")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
	assert.Equal(t, 1, f.erp.Count(http.MethodPost, tokenResource))
}

func TestExchangeCodeStoresTokenPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.erp.Handle(http.MethodPost, tokenResource, tokenReply("first", "r1", 600))

	require.NoError(t, f.svc.ExchangeCode(ctx, "u1", "the-code"))

	form, err := url.ParseQuery(string(f.erp.Calls(http.MethodPost, tokenResource)[0].Body))
	require.NoError(t, err)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, "https://shop.example/exact/callback", form.Get("redirect_uri"))

	status, err := f.svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, status.Authorized)
	assert.True(t, status.HasRefreshToken)
	require.NotNil(t, status.AccessExpiresAt)
}

func TestExchangeCodeRejectedRequiresAuth(t *testing.T) {
	f := newFixture(t)
	f.erp.Handle(http.MethodPost, tokenResource, func(call exacttest.Call) (int, any) {
		return http.StatusBadRequest, map[string]string{"error": "invalid_grant"}
	})

	err := f.svc.ExchangeCode(context.Background(), "u1", "stale")
	assert.ErrorIs(t, err, erperr.ErrAuthRequired)
	assert.NotErrorIs(t, err, erperr.ErrTokenRefreshFailed)
}

func TestAuthorizationURL(t *testing.T) {
	f := newFixture(t)

	raw := f.svc.AuthorizationURL("xyz")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/api/oauth2/auth", parsed.Path)
	q := parsed.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://shop.example/exact/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "xyz", q.Get("state"))

	assert.NotContains(t, f.svc.AuthorizationURL(""), "state=")
}

func TestStatusWithoutTokens(t *testing.T) {
	f := newFixture(t)

	status, err := f.svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, status.Authorized)
	assert.Nil(t, status.AccessExpiresAt)
}
