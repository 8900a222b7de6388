// Package enhance rewrites CV text with a language model.
//
// A call makes up to MaxAttempts provider requests. Missing credentials and
// malformed answers fail at once; rate limits wait the delay the provider asked
// for; transient failures back off exponentially.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/logger"
	"github.com/jonathan/cv-builder/internal/prompts"
)

// Context tells the model what kind of text it is rewriting.
type Context string

const (
	ContextSummary    Context = "summary"
	ContextExperience Context = "experience"
)

// ErrEmptyText is returned when there is nothing to improve.
var ErrEmptyText = errors.New("text to enhance is empty")

// Request is one enhancement call.
type Request struct {
	Text    string  `json:"text"`
	Context Context `json:"context"`
	// Company and Position describe the role behind an experience description.
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
}

// Enhancer improves a piece of CV text.
type Enhancer interface {
	Enhance(ctx context.Context, req Request) (string, error)
}

// Config controls the model tier and the retry budget.
type Config struct {
	Tier            llm.ModelTier
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxRetryAfter caps a provider-requested delay.
	MaxRetryAfter time.Duration
}

// DefaultConfig returns three attempts on the standard tier.
func DefaultConfig() Config {
	return Config{
		Tier:            llm.TierStandard,
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     8 * time.Second,
		MaxRetryAfter:   30 * time.Second,
	}
}

// Service implements Enhancer on an llm.Client.
type Service struct {
	client llm.Client
	cfg    Config
	log    *logger.Logger
}

// NewService creates a Service. Zero config fields take their defaults.
func NewService(client llm.Client, cfg Config, log *logger.Logger) *Service {
	def := DefaultConfig()
	if cfg.Tier == "" {
		cfg.Tier = def.Tier
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.MaxRetryAfter <= 0 {
		cfg.MaxRetryAfter = def.MaxRetryAfter
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{client: client, cfg: cfg, log: log.With("component", "enhance")}
}

// Enhance returns an improved version of req.Text.
func (s *Service) Enhance(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", ErrEmptyText
	}
	system, prompt, err := buildPrompt(req)
	if err != nil {
		return "", err
	}

	var lastErr error
	attempt := 0
	operation := func() (string, error) {
		attempt++
		text, err := s.client.GenerateText(ctx, system, prompt, s.cfg.Tier)
		if err == nil {
			if cleaned := llm.CleanText(text); cleaned != "" {
				return cleaned, nil
			}
			lastErr = fmt.Errorf("%w: empty answer", llm.ErrMalformedResponse)
			return "", backoff.Permanent(lastErr)
		}

		err = llm.ClassifyError(err)
		lastErr = err

		var rateLimited *llm.RateLimitError
		switch {
		case errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0:
			return "", &backoff.RetryAfterError{Duration: min(rateLimited.RetryAfter, s.cfg.MaxRetryAfter)}
		case llm.Retryable(err):
			return "", err
		default:
			return "", backoff.Permanent(err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.InitialInterval
	policy.MaxInterval = s.cfg.MaxInterval

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.cfg.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.log.Warn("enhancement attempt failed, retrying", "attempt", attempt, "wait", wait, "error", lastErr)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("enhancement cancelled: %w", ctxErr)
		}
		s.log.Error("enhancement failed", "context", req.Context, "attempts", attempt, "error", lastErr)
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}

	s.log.Info("enhancement succeeded", "context", req.Context, "attempts", attempt)
	return result, nil
}

func buildPrompt(req Request) (string, string, error) {
	switch req.Context {
	case ContextSummary, ContextExperience:
	default:
		return "", "", fmt.Errorf("unknown enhancement context %q", req.Context)
	}

	set, err := prompts.Enhancement()
	if err != nil {
		return "", "", err
	}
	prompt, err := set.Render(string(req.Context), prompts.Input{
		Text:     req.Text,
		Company:  req.Company,
		Position: req.Position,
	})
	if err != nil {
		return "", "", err
	}
	return set.System, prompt, nil
}

type unconfigured struct{}

// Unconfigured returns an Enhancer for deployments without an API key.
// Every call fails with llm.ErrMissingCredential.
func Unconfigured() Enhancer {
	return unconfigured{}
}

func (unconfigured) Enhance(context.Context, Request) (string, error) {
	return "", llm.ErrMissingCredential
}
