package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// KakaoIssuer is the Kakao OpenID Connect issuer.
const KakaoIssuer = "https://kauth.kakao.com"

// KakaoConfig describes the Kakao application used for sign-in.
type KakaoConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// BrowseFunc opens authURL for the user and returns the URL the provider
// finally redirected to, once it starts with redirectURL.
type BrowseFunc func(ctx context.Context, authURL, redirectURL string) (string, error)

// KakaoLogin obtains a Kakao ID token through the authorization code flow.
type KakaoLogin struct {
	cfg    KakaoConfig
	browse BrowseFunc
}

// NewKakaoLogin uses browse to drive the sign-in page, or Chrome when nil.
func NewKakaoLogin(cfg KakaoConfig, browse BrowseFunc) *KakaoLogin {
	if cfg.Issuer == "" {
		cfg.Issuer = KakaoIssuer
	}
	if browse == nil {
		browse = ChromeBrowse
	}
	return &KakaoLogin{cfg: cfg, browse: browse}
}

// IDToken runs the sign-in and returns the verified raw ID token.
func (k *KakaoLogin) IDToken(ctx context.Context) (string, error) {
	if k.cfg.ClientID == "" || k.cfg.RedirectURL == "" {
		return "", errors.New("kakao client id and redirect url must be configured")
	}

	provider, err := oidc.NewProvider(ctx, k.cfg.Issuer)
	if err != nil {
		return "", fmt.Errorf("failed to discover kakao provider: %w", err)
	}
	oc := &oauth2.Config{
		ClientID:     k.cfg.ClientID,
		ClientSecret: k.cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  k.cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID},
	}

	state, nonce := uuid.NewString(), uuid.NewString()
	authURL := oc.AuthCodeURL(state, oidc.Nonce(nonce))
	log.Info().Msg("Waiting for Kakao sign-in to complete in the browser.")

	finalURL, err := k.browse(ctx, authURL, k.cfg.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("browser sign-in failed: %w", err)
	}
	code, err := extractAuthCode(finalURL, state)
	if err != nil {
		return "", err
	}

	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.New("no id token in kakao token response")
	}

	idToken, err := provider.Verifier(&oidc.Config{ClientID: k.cfg.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("id token verification failed: %w", err)
	}
	if idToken.Nonce != nonce {
		return "", errors.New("id token nonce mismatch")
	}
	log.Info().Str("subject", idToken.Subject).Msg("Kakao sign-in succeeded")
	return rawIDToken, nil
}

func extractAuthCode(redirected, state string) (string, error) {
	u, err := url.Parse(redirected)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("kakao sign-in rejected: %s %s", e, q.Get("error_description"))
	}
	if q.Get("state") != state {
		return "", errors.New("state mismatch in redirect")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("authorization code not found in the URL")
	}
	return code, nil
}

// ChromeBrowse opens authURL in a visible Chrome window and waits up to four
// minutes for the redirect.
func ChromeBrowse(ctx context.Context, authURL, redirectURL string) (string, error) {
	chromeCtx, cancel, err := createChromeContext(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(chromeCtx, 4*time.Minute)
	defer cancelTimeout()

	var finalURL string
	err = chromedp.Run(timeoutCtx,
		chromedp.Navigate(authURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for {
				var currentURL string
				if err := chromedp.Location(&currentURL).Do(ctx); err != nil {
					return err
				}
				if strings.HasPrefix(currentURL, redirectURL) {
					finalURL = currentURL
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(500 * time.Millisecond):
				}
			}
		}),
	)
	return finalURL, err
}

func createChromeContext(parent context.Context) (context.Context, context.CancelFunc, error) {
	var execPath string
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome"} {
		if p, err := exec.LookPath(name); err == nil {
			execPath = p
			break
		}
	}
	if execPath == "" {
		return nil, nil, fmt.Errorf("no Chrome or Chromium executable found in PATH")
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", false),
	)
	allocatorCtx, cancelAllocator := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelContext := chromedp.NewContext(allocatorCtx, chromedp.WithLogf(log.Debug().Msgf))
	return ctx, func() {
		cancelContext()
		cancelAllocator()
	}, nil
}
