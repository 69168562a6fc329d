package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/exactsync/internal/cache"
	"github.com/smallbiznis/exactsync/internal/clock"
	"github.com/smallbiznis/exactsync/internal/config"
	"github.com/smallbiznis/exactsync/internal/erperr"
	obsmetrics "github.com/smallbiznis/exactsync/internal/observability/metrics"
	obstracing "github.com/smallbiznis/exactsync/internal/observability/tracing"
	"github.com/smallbiznis/exactsync/internal/token/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	authPath  = "/api/oauth2/auth"
	tokenPath = "/api/oauth2/token"
)

type Params struct {
	fx.In

	Cfg     config.Config
	Store   domain.Store
	Locker  cache.Locker
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
	HTTP    *http.Client        `optional:"true"`
}

type Service struct {
	cfg        config.ExactConfig
	store      domain.Store
	locker     cache.Locker
	clock      clock.Clock
	log        *zap.Logger
	metrics    *obsmetrics.Metrics
	httpClient *http.Client
}

func New(p Params) *Service {
	httpClient := p.HTTP
	if httpClient == nil {
		httpClient = obstracing.WrapHTTPClient(&http.Client{})
	}
	return &Service{
		cfg:        p.Cfg.Exact,
		store:      p.Store,
		locker:     p.Locker,
		clock:      p.Clock,
		log:        p.Log.Named("token.manager"),
		metrics:    p.Metrics,
		httpClient: httpClient,
	}
}

// EnsureValidToken returns a usable access token for userID, refreshing it
// when the stored one has expired. Without a refresh token it fails with
// erperr.ErrAuthRequired and makes no network call.
func (s *Service) EnsureValidToken(ctx context.Context, userID string) (string, error) {
	const op = "token.ensure_valid"
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", erperr.Validation(op, "user id is required")
	}

	token, err := s.store.Load(ctx, userID)
	if err != nil {
		return "", erperr.Wrap(erperr.KindTransport, op, err)
	}
	if token.AccessValid(s.clock.Now()) {
		return token.AccessToken, nil
	}
	if token.RefreshToken == "" {
		return "", erperr.AuthRequired(op, userID)
	}

	release, err := s.locker.Lock(ctx, "token.refresh."+userID, s.lockTTL())
	if err != nil {
		if ctx.Err() != nil {
			return "", erperr.Wrap(erperr.KindTransport, op, ctx.Err())
		}
		s.log.Warn("refresh lock unavailable, refreshing without it", zap.String("user_id", userID), zap.Error(err))
	}
	defer release()

	// another caller may have refreshed while we waited
	token, err = s.store.Load(ctx, userID)
	if err != nil {
		return "", erperr.Wrap(erperr.KindTransport, op, err)
	}
	if token.AccessValid(s.clock.Now()) {
		return token.AccessToken, nil
	}
	if token.RefreshToken == "" {
		return "", erperr.AuthRequired(op, userID)
	}

	form := url.Values{}
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("refresh_token", token.RefreshToken)
	form.Set("grant_type", "refresh_token")

	resp, err := s.requestToken(ctx, "token.refresh", form)
	if err != nil {
		s.metrics.RecordTokenRefresh(ctx, outcomeOf(err))
		if errors.Is(err, erperr.ErrTokenRefreshFailed) {
			s.log.Warn("refresh token rejected, authorization required", zap.String("user_id", userID), zap.Error(err))
			if ferr := s.store.ForgetRefreshToken(ctx, userID); ferr != nil {
				s.log.Error("failed to forget rejected refresh token", zap.String("user_id", userID), zap.Error(ferr))
			}
		}
		return "", err
	}

	if err := s.persist(ctx, userID, resp); err != nil {
		s.metrics.RecordTokenRefresh(ctx, "store_error")
		return "", erperr.Wrap(erperr.KindTransport, op, err)
	}
	s.metrics.RecordTokenRefresh(ctx, "success")
	s.log.Info("access token refreshed",
		zap.String("user_id", userID),
		zap.Int64("expires_in", int64(resp.ExpiresIn)),
	)
	return resp.AccessToken, nil
}

// AuthorizationURL is where the user grants access; the provider redirects
// back to the configured redirect URI with a code.
func (s *Service) AuthorizationURL(state string) string {
	query := url.Values{}
	query.Set("client_id", s.cfg.ClientID)
	query.Set("redirect_uri", s.cfg.RedirectURI)
	query.Set("response_type", "code")
	if strings.TrimSpace(state) != "" {
		query.Set("state", state)
	}
	return s.cfg.BaseURL + authPath + "?" + query.Encode()
}

// ExchangeCode trades an authorization code for the user's first token pair.
func (s *Service) ExchangeCode(ctx context.Context, userID, code string) error {
	const op = "token.exchange_code"
	userID = strings.TrimSpace(userID)
	code = strings.TrimSpace(code)
	if userID == "" || code == "" {
		return erperr.Validation(op, "user id and code are required")
	}

	form := url.Values{}
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", s.cfg.RedirectURI)
	form.Set("grant_type", "authorization_code")

	resp, err := s.requestToken(ctx, op, form)
	if err != nil {
		var rejected *erperr.Error
		if errors.As(err, &rejected) && rejected.Kind == erperr.KindTokenRefreshFailed {
			e := erperr.New(erperr.KindAuthRequired, op, "authorization code rejected: "+rejected.Message)
			e.Status = rejected.Status
			return e
		}
		return err
	}
	if err := s.persist(ctx, userID, resp); err != nil {
		return erperr.Wrap(erperr.KindTransport, op, err)
	}
	s.log.Info("authorization code exchanged", zap.String("user_id", userID))
	return nil
}

func (s *Service) Status(ctx context.Context, userID string) (domain.Status, error) {
	token, err := s.store.Load(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.Status{}, erperr.Wrap(erperr.KindTransport, "token.status", err)
	}
	status := domain.Status{
		UserID:          token.UserID,
		HasRefreshToken: token.RefreshToken != "",
	}
	if token.AccessValid(s.clock.Now()) {
		expiresAt := token.AccessExpiresAt
		status.AccessExpiresAt = &expiresAt
	}
	status.Authorized = status.HasRefreshToken || status.AccessExpiresAt != nil
	return status, nil
}

func (s *Service) persist(ctx context.Context, userID string, resp domain.TokenResponse) error {
	ttl := resp.ExpiresIn.CacheTTL()
	return s.store.Save(ctx, domain.Token{
		UserID:          userID,
		AccessToken:     resp.AccessToken,
		AccessExpiresAt: s.clock.Now().Add(ttl),
		RefreshToken:    resp.RefreshToken,
	}, ttl)
}

func (s *Service) requestToken(ctx context.Context, op string, form url.Values) (domain.TokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.TokenResponse{}, erperr.Wrap(erperr.KindTransport, op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.TokenResponse{}, erperr.Wrap(erperr.KindTransport, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.TokenResponse{}, erperr.Wrap(erperr.KindTransport, op, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		e := erperr.New(erperr.KindTokenRefreshFailed, op, providerError(body, resp.StatusCode))
		e.Status = resp.StatusCode
		return domain.TokenResponse{}, e
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		e := erperr.New(erperr.KindTransport, op, providerError(body, resp.StatusCode))
		e.Status = resp.StatusCode
		return domain.TokenResponse{}, e
	}

	var payload domain.TokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.TokenResponse{}, erperr.Wrap(erperr.KindInvalidTokenResponse, op, err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" || strings.TrimSpace(payload.RefreshToken) == "" || payload.ExpiresIn <= 0 {
		return domain.TokenResponse{}, erperr.New(erperr.KindInvalidTokenResponse, op, "token response misses access_token, refresh_token or expires_in")
	}
	return payload, nil
}

func (s *Service) requestTimeout() time.Duration {
	if s.cfg.RequestTimeout > 0 {
		return s.cfg.RequestTimeout
	}
	return 30 * time.Second
}

func (s *Service) lockTTL() time.Duration {
	if s.cfg.RefreshLockTTL > 0 {
		return s.cfg.RefreshLockTTL
	}
	return 15 * time.Second
}

func providerError(body []byte, status int) string {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		if payload.ErrorDescription != "" {
			return payload.Error + ": " + payload.ErrorDescription
		}
		return payload.Error
	}
	return fmt.Sprintf("token endpoint returned %d", status)
}

func outcomeOf(err error) string {
	kind, ok := erperr.KindOf(err)
	if !ok {
		return "error"
	}
	return string(kind)
}

var _ domain.Manager = (*Service)(nil)
