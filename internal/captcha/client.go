// Package captcha talks to Gameforge's image-drop challenge. It does not
// look at the images: it loads them like the launcher would and guesses.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"gfauth/internal/logging"
	"gfauth/internal/transport"
)

// answerChoices is the number of drop targets a challenge offers.
const answerChoices = 4

// resources are fetched in this order before every answer.
var resources = []string{"text", "drag-icons", "drop-target"}

type Client struct {
	http   transport.Client
	cfg    Config
	logger logging.Logger
	guess  func() int
}

func New(client transport.Client, cfg Config, logger logging.Logger) *Client {
	return &Client{
		http:   client,
		cfg:    cfg.withDefaults(),
		logger: logging.OrNop(logger),
		guess:  func() int { return rand.IntN(answerChoices) },
	}
}

func (c *Client) Config() Config {
	return c.cfg
}

// Solve guesses at most MaxAttemptsPerChallenge times. Running out of
// attempts is reported as false with a nil error.
func (c *Client) Solve(ctx context.Context, id uuid.UUID) (bool, error) {
	for attempt := range c.cfg.MaxAttemptsPerChallenge {
		c.logger.Log("Captcha solve attempt %d/%d", attempt+1, c.cfg.MaxAttemptsPerChallenge)

		challenge, err := c.GetChallenge(ctx, id)
		if err != nil {
			return false, err
		}
		for _, name := range resources {
			if _, err := c.GetResource(ctx, name, challenge); err != nil {
				return false, err
			}
		}

		answer := c.guess()
		c.logger.Log("Trying answer: %d", answer)
		solved, err := c.Answer(ctx, answer, id)
		if err != nil {
			return false, err
		}
		if solved {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) GetChallenge(ctx context.Context, id uuid.UUID) (Challenge, error) {
	resp, err := c.http.Get(ctx, c.APIURL("/", id), c.headers(), nil)
	if err != nil {
		return Challenge{}, fmt.Errorf("failed to get challenge: %w", err)
	}

	var challenge Challenge
	if err := json.Unmarshal(resp.Body, &challenge); err != nil {
		return Challenge{}, fmt.Errorf("failed to parse challenge: %w", err)
	}
	return challenge, nil
}

// GetResource downloads one challenge asset. The launcher busts caches with
// a query consisting of an empty key and the challenge's lastUpdated.
func (c *Client) GetResource(ctx context.Context, name string, challenge Challenge) ([]byte, error) {
	query := url.Values{"": {strconv.FormatInt(challenge.LastUpdated.UnixMilli(), 10)}}

	resp, err := c.http.Get(ctx, c.APIURL(name, challenge.ID), c.headers(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	return resp.Body, nil
}

// Answer submits a drop target and reports whether the challenge is solved.
func (c *Client) Answer(ctx context.Context, answer int, id uuid.UUID) (bool, error) {
	resp, err := c.http.Post(ctx, c.APIURL("/", id), c.headers(), answerRequest{Answer: answer})
	if err != nil {
		return false, fmt.Errorf("failed to submit answer: %w", err)
	}

	var challenge Challenge
	if err := json.Unmarshal(resp.Body, &challenge); err != nil {
		return false, fmt.Errorf("failed to parse answer response: %w", err)
	}
	return challenge.Status == StatusSolved, nil
}

// APIURL joins base, id, locale and path with single slashes. An empty path
// leaves a trailing slash.
func (c *Client) APIURL(path string, id uuid.UUID) string {
	base := strings.TrimRight(c.cfg.APIBase, "/")
	return fmt.Sprintf("%s/%s/%s/%s", base, id, c.cfg.Locale, strings.Trim(path, "/"))
}

func (c *Client) headers() transport.Headers {
	return transport.Headers{
		"user-agent": c.cfg.UserAgent,
		"origin":     c.cfg.Origin,
	}
}
