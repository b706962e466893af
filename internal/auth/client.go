// Package auth logs into the Gameforge platform, answering image-drop
// captchas when the server asks for one.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gfauth/internal/blackbox"
	"gfauth/internal/logging"
	"gfauth/internal/transport"
)

const (
	DefaultBaseURL = "https://spark.gameforge.com/api/v1/"
	DefaultLocale  = "pl-PL"

	// defaultMaxAttemptsOverall bounds submissions once a challenge was issued
	defaultMaxAttemptsOverall = 5

	challengeHeader = "gf-challenge-id"
)

// BlackboxGenerator hands out a fresh blackbox per submission.
type BlackboxGenerator interface {
	GenerateBlackbox() blackbox.Blackbox
}

// Solver attempts a captcha challenge.
type Solver interface {
	Solve(ctx context.Context, id uuid.UUID) (bool, error)
}

type Options struct {
	BaseURL            string `yaml:"base_url"`
	DefaultLocale      string `yaml:"default_locale"`
	UserAgent          string `yaml:"user_agent"`
	MaxAttemptsOverall int    `yaml:"-"`
}

func DefaultOptions() Options {
	return Options{
		BaseURL:            DefaultBaseURL,
		DefaultLocale:      DefaultLocale,
		UserAgent:          transport.LauncherUserAgent,
		MaxAttemptsOverall: defaultMaxAttemptsOverall,
	}
}

// Challenge is the captcha context carried between submissions.
type Challenge struct {
	ID      uuid.UUID
	Attempt int
}

type Client struct {
	http     transport.Client
	identity BlackboxGenerator
	solver   Solver
	opts     Options
	logger   logging.Logger
}

func New(client transport.Client, identity BlackboxGenerator, solver Solver, opts Options, logger logging.Logger) *Client {
	d := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = d.BaseURL
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = d.DefaultLocale
	}
	if opts.MaxAttemptsOverall <= 0 {
		opts.MaxAttemptsOverall = d.MaxAttemptsOverall
	}
	return &Client{
		http:     client,
		identity: identity,
		solver:   solver,
		opts:     opts,
		logger:   logging.OrNop(logger),
	}
}

type sessionRequest struct {
	Blackbox string `json:"blackbox"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Locale   string `json:"locale"`
}

type sessionResponse struct {
	Token uuid.UUID `json:"token"`
}

// Authenticate logs in and returns the session token.
func (c *Client) Authenticate(ctx context.Context, email, password, locale string) (uuid.UUID, error) {
	return c.AuthenticateWithCaptcha(ctx, email, password, locale, nil)
}

// AuthenticateWithCaptcha logs in, starting from an optional captcha
// context. Every 409 triggers one solve and a resubmission, whether or not
// the solve succeeded; the server is the judge.
func (c *Client) AuthenticateWithCaptcha(ctx context.Context, email, password, locale string, challenge *Challenge) (uuid.UUID, error) {
	if locale == "" {
		locale = c.opts.DefaultLocale
	}
	url := c.APIURL("auth/sessions")

	for {
		if challenge != nil && challenge.Attempt >= c.opts.MaxAttemptsOverall {
			return uuid.Nil, fmt.Errorf("%w (%d/%d)", ErrAttemptsExceeded, challenge.Attempt, c.opts.MaxAttemptsOverall)
		}

		wire, err := c.identity.GenerateBlackbox().Encode()
		if err != nil {
			return uuid.Nil, err
		}

		headers := c.headers()
		if challenge != nil {
			headers[challengeHeader] = challenge.ID.String()
		}

		resp, err := c.http.Post(ctx, url, headers, sessionRequest{
			Blackbox: wire,
			Email:    email,
			Password: password,
			Locale:   locale,
		})
		if err == nil {
			return parseToken(resp.Body)
		}

		var statusErr *transport.StatusError
		if !errors.As(err, &statusErr) {
			return uuid.Nil, fmt.Errorf("auth request failed: %w", err)
		}
		if statusErr.Status != http.StatusConflict {
			return uuid.Nil, &UnexpectedStatusError{Status: statusErr.Status, Headers: statusErr.Headers, Err: err}
		}

		id, err := parseChallengeHeader(statusErr.Headers.Get(challengeHeader))
		if err != nil {
			return uuid.Nil, err
		}
		c.logger.Log("Captcha is required, challenge id: %s", id)

		solved, err := c.solver.Solve(ctx, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("captcha %s: %w", id, err)
		}
		if solved {
			c.logger.Log("Captcha solved")
		} else {
			c.logger.Log("Captcha not solved, resubmitting anyway")
		}

		attempt := 0
		if challenge != nil {
			attempt = challenge.Attempt
		}
		challenge = &Challenge{ID: id, Attempt: attempt + 1}
	}
}

// APIURL joins path onto the configured base.
func (c *Client) APIURL(path string) string {
	base := c.opts.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(path, "/")
}

func (c *Client) headers() transport.Headers {
	headers := transport.Headers{}
	if c.opts.UserAgent != "" {
		headers["user-agent"] = c.opts.UserAgent
	}
	return headers
}

func parseToken(body []byte) (uuid.UUID, error) {
	var resp sessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Token == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: missing token", ErrMalformedResponse)
	}
	return resp.Token, nil
}

// parseChallengeHeader reads the id in front of the first ';'.
func parseChallengeHeader(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: missing", ErrMalformedChallengeHeader)
	}
	idPart, _, _ := strings.Cut(raw, ";")
	id, err := uuid.Parse(strings.TrimSpace(idPart))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformedChallengeHeader, raw)
	}
	return id, nil
}
