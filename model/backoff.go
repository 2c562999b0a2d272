package model

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/loomctl/loom/agent"
	"github.com/loomctl/loom/prompt"
)

// BackoffConfig configures the retry decorators below. A zero value
// uses sane defaults (matches the teacher's "exponential backoff with
// jitter up to a configured limit" wording in spec §4.4).
type BackoffConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	MaxTries        uint
}

func (c BackoffConfig) withDefaults() BackoffConfig {
	if c.InitialInterval == 0 {
		c.InitialInterval = 200 * time.Millisecond
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = 10 * time.Second
	}
	if c.MaxElapsedTime == 0 {
		c.MaxElapsedTime = time.Minute
	}
	if c.MaxTries == 0 {
		c.MaxTries = 5
	}
	return c
}

func (c BackoffConfig) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	return b
}

func (c BackoffConfig) retryOpts() []backoff.RetryOption {
	c = c.withDefaults()
	return []backoff.RetryOption{
		backoff.WithBackOff(c.newBackoff()),
		backoff.WithMaxTries(c.MaxTries),
		backoff.WithMaxElapsedTime(c.MaxElapsedTime),
	}
}

// asOperationError converts a LanguageModelError into a form backoff
// understands: TransientError is retried, everything else is wrapped
// with backoff.Permanent so a single attempt surfaces immediately.
func asOperationError(err error) error {
	var lmErr *LanguageModelError
	if errors.As(err, &lmErr) && lmErr.Retryable() {
		return err
	}
	return backoff.Permanent(err)
}

// asAgentOperationError is asOperationError's counterpart for
// *agent.LanguageModelError, the error type a ChatCompletion
// implementation returns.
func asAgentOperationError(err error) error {
	var lmErr *agent.LanguageModelError
	if errors.As(err, &lmErr) && lmErr.Retryable() {
		return err
	}
	return backoff.Permanent(err)
}

// WithBackoffChatCompletion wraps the agent package's ChatCompletion
// collaborator so that TransientError responses are retried with
// exponential backoff and jitter. ContextLengthExceeded and
// PermanentError always surface immediately. This is the contract
// Agent.Run actually drives, so wrapping it here (rather than a
// parallel model-package-only interface) means the decorator can feed
// an Agent directly: agent.NewAgent(model.WithBackoffChatCompletion(llm, cfg)).
func WithBackoffChatCompletion(inner agent.ChatCompletion, cfg BackoffConfig) agent.ChatCompletion {
	return &backoffChatCompletion{inner: inner, cfg: cfg}
}

type backoffChatCompletion struct {
	inner agent.ChatCompletion
	cfg   BackoffConfig
}

func (b *backoffChatCompletion) Complete(ctx context.Context, req agent.Request) (agent.Response, error) {
	return backoff.Retry(ctx, func() (agent.Response, error) {
		resp, err := b.inner.Complete(ctx, req)
		if err != nil {
			return agent.Response{}, asAgentOperationError(err)
		}
		return resp, nil
	}, b.cfg.retryOpts()...)
}

// WithBackoffSimplePrompt wraps a SimplePrompt with the same retry policy.
func WithBackoffSimplePrompt(inner SimplePrompt, cfg BackoffConfig) SimplePrompt {
	return &backoffSimplePrompt{inner: inner, cfg: cfg}
}

type backoffSimplePrompt struct {
	inner SimplePrompt
	cfg   BackoffConfig
}

func (b *backoffSimplePrompt) Prompt(ctx context.Context, p prompt.Prompt) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		resp, err := b.inner.Prompt(ctx, p)
		if err != nil {
			return "", asOperationError(err)
		}
		return resp, nil
	}, b.cfg.retryOpts()...)
}

// WithBackoffEmbeddingModel wraps an EmbeddingModel with the same retry policy.
func WithBackoffEmbeddingModel(inner EmbeddingModel, cfg BackoffConfig) EmbeddingModel {
	return &backoffEmbeddingModel{inner: inner, cfg: cfg}
}

type backoffEmbeddingModel struct {
	inner EmbeddingModel
	cfg   BackoffConfig
}

func (b *backoffEmbeddingModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return backoff.Retry(ctx, func() ([][]float32, error) {
		resp, err := b.inner.Embed(ctx, texts)
		if err != nil {
			return nil, asOperationError(err)
		}
		return resp, nil
	}, b.cfg.retryOpts()...)
}
