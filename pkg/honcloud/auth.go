package honcloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"
)

const tokenExpiryMargin = 5 * time.Minute

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Auth manages the cloud token pair. The refresh token survives restarts
// through cfg.TokenFile, so a stored session can resume without a
// full password login.
type Auth struct {
	cfg    Config
	rest   *resty.Client
	logger *zap.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func NewAuth(cfg Config, logger *zap.Logger) *Auth {
	rest := resty.New().
		SetBaseURL(cfg.APIBase).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)
	return &Auth{
		cfg:    cfg,
		rest:   rest,
		logger: logger,
	}
}

// Login establishes a token pair. A persisted refresh token is tried first,
// with password login as fallback.
func (a *Auth) Login(ctx context.Context) error {
	if token := a.loadRefreshToken(); token != "" {
		a.mu.Lock()
		a.refreshToken = token
		a.mu.Unlock()
		if err := a.Refresh(ctx); err == nil {
			return nil
		}
		a.logger.Warn("honcloud: stored refresh token rejected, logging in with password")
	}
	var tokens tokenResponse
	resp, err := a.rest.R().
		SetContext(ctx).
		SetContentType("application/json").
		SetBody(map[string]string{
			"email":    a.cfg.Email,
			"password": a.cfg.Password,
			"mobileId": a.cfg.MobileID,
		}).
		SetResult(&tokens).
		Post("/auth/v1/login")
	if err != nil {
		return fmt.Errorf("honcloud login: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("honcloud login: %s", resp.Status())
	}
	a.storeTokens(tokens)
	return nil
}

// Refresh exchanges the refresh token for a fresh pair.
func (a *Auth) Refresh(ctx context.Context) error {
	a.mu.Lock()
	refreshToken := a.refreshToken
	a.mu.Unlock()
	if refreshToken == "" {
		return errors.New("honcloud refresh: no refresh token")
	}
	var tokens tokenResponse
	resp, err := a.rest.R().
		SetContext(ctx).
		SetContentType("application/json").
		SetBody(map[string]string{"refreshToken": refreshToken}).
		SetResult(&tokens).
		Post("/auth/v1/refresh")
	if err != nil {
		return fmt.Errorf("honcloud refresh: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("honcloud refresh: %s", resp.Status())
	}
	a.storeTokens(tokens)
	return nil
}

// RefreshIfNeeded refreshes when the access token is close to expiry.
func (a *Auth) RefreshIfNeeded(ctx context.Context) error {
	a.mu.Lock()
	needs := time.Until(a.expiresAt) < tokenExpiryMargin
	a.mu.Unlock()
	if !needs {
		return nil
	}
	return a.Refresh(ctx)
}

func (a *Auth) AccessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accessToken
}

func (a *Auth) RefreshToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshToken
}

func (a *Auth) storeTokens(tokens tokenResponse) {
	a.mu.Lock()
	a.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		a.refreshToken = tokens.RefreshToken
	}
	a.expiresAt = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	refreshToken := a.refreshToken
	a.mu.Unlock()

	if a.cfg.TokenFile != "" && refreshToken != "" {
		if err := os.WriteFile(a.cfg.TokenFile, []byte(refreshToken), 0o600); err != nil {
			a.logger.Warn("honcloud: could not persist refresh token", zap.Error(err))
		}
	}
}

func (a *Auth) loadRefreshToken() string {
	if a.cfg.TokenFile == "" {
		return ""
	}
	data, err := os.ReadFile(a.cfg.TokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
