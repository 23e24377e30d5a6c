package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"jobradar/pkg/models"
	"jobradar/pkg/resilience"
)

// maxPrimaryRetries is the retry ceiling for the primary provider
// (spec.md §4.7: "up to 3 retries").
const maxPrimaryRetries = 3

// Config parameterizes one Analyzer (spec.md §4.7/§6: up to 3 primary
// keys + 1 fallback key, distinct base URLs/models, stall and hard-cap
// timeouts).
type Config struct {
	Primary         Provider
	Fallback        Provider
	FallbackKey     string
	StallTimeout    time.Duration
	HardCapTimeout  time.Duration
}

// Analyzer is the C7 resume-fit analyzer: a bounded multi-key pool over
// the primary provider, streaming decode, retry-with-backoff, and a
// single non-retrying attempt against the fallback provider.
// breaker trips on the primary provider only: once it has failed enough
// in a row, Analyze skips straight to the fallback provider instead of
// spending maxPrimaryRetries attempts and the stall timeout re-learning
// what the last several calls already showed.
type Analyzer struct {
	HTTP    *http.Client
	Pool    *Pool
	Config  Config
	breaker *resilience.CircuitBreaker
}

func NewAnalyzer(httpClient *http.Client, pool *Pool, cfg Config) *Analyzer {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Analyzer{
		HTTP:    httpClient,
		Pool:    pool,
		Config:  cfg,
		breaker: resilience.NewCircuitBreaker("llm-primary", resilience.DefaultCircuitBreakerConfig()),
	}
}

// Analyze implements the §4.7 contract: analyze(job, jobDescriptionHtml,
// resume) -> *FitAnalysis | nil. Any total failure (pool timeout, both
// providers exhausted, unparseable response) returns (nil, nil) so the
// pipeline proceeds without analysis, per spec.md §4.7's closing line.
func (a *Analyzer) Analyze(ctx context.Context, title, company, descriptionHTML, resume string) (*models.FitAnalysis, error) {
	description := PrepareDescription(descriptionHTML)
	userPrompt := BuildUserPrompt(title, company, resume, description)

	var result streamResult
	var provider Provider
	var err error
	if a.breaker.State() == resilience.CircuitOpen {
		err = resilience.ErrCircuitOpen
	} else {
		result, provider, err = a.callPrimaryWithRetry(ctx, userPrompt)
		a.breaker.Execute(ctx, func() error { return err })
	}
	if err != nil {
		if a.Config.Fallback.BaseURL != "" && a.Config.FallbackKey != "" {
			result, err = streamChatCompletion(ctx, a.HTTP, a.Config.Fallback, a.Config.FallbackKey, systemPrompt, userPrompt, a.Config.StallTimeout, a.Config.HardCapTimeout)
			provider = a.Config.Fallback
			if err != nil {
				return nil, nil
			}
		} else {
			return nil, nil
		}
	}

	analysis, parseErr := parseResponse(result.Content)
	if parseErr != nil {
		if provider.Name == a.Config.Primary.Name && a.Config.Fallback.BaseURL != "" && a.Config.FallbackKey != "" {
			fallbackResult, fbErr := streamChatCompletion(ctx, a.HTTP, a.Config.Fallback, a.Config.FallbackKey, systemPrompt, userPrompt, a.Config.StallTimeout, a.Config.HardCapTimeout)
			if fbErr != nil {
				return nil, nil
			}
			analysis, parseErr = parseResponse(fallbackResult.Content)
			if parseErr != nil {
				return nil, nil
			}
			result = fallbackResult
			provider = a.Config.Fallback
		} else {
			return nil, nil
		}
	}

	analysis.Provider = provider.Name
	analysis.ModelUsed = provider.Model
	analysis.PromptTokens = result.PromptTokens
	analysis.CompletionTokens = result.CompletionTokens
	return analysis, nil
}

// callPrimaryWithRetry acquires a pool key, issues the streaming call,
// and retries per spec.md §4.7's table: 429/502/503 and classified
// network errors each get their own backoff formula, up to
// maxPrimaryRetries retries after the first attempt.
func (a *Analyzer) callPrimaryWithRetry(ctx context.Context, userPrompt string) (streamResult, Provider, error) {
	key, err := a.Pool.Acquire(ctx)
	if err != nil {
		return streamResult{}, Provider{}, err
	}
	defer a.Pool.Release(key)

	var lastErr error
	for attempt := 0; attempt <= maxPrimaryRetries; attempt++ {
		result, err := streamChatCompletion(ctx, a.HTTP, a.Config.Primary, key, systemPrompt, userPrompt, a.Config.StallTimeout, a.Config.HardCapTimeout)
		if err == nil {
			return result, a.Config.Primary, nil
		}
		lastErr = err

		var pErr *providerError
		if !errors.As(err, &pErr) || !pErr.retryable || attempt == maxPrimaryRetries {
			return streamResult{}, a.Config.Primary, err
		}

		wait := retryWait(pErr, attempt)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return streamResult{}, a.Config.Primary, ctx.Err()
		}
	}
	return streamResult{}, a.Config.Primary, lastErr
}

// retryWait applies spec.md §4.7's two backoff formulas: HTTP
// 429/502/503 -> 2000*(attempt+1)ms, classified network errors ->
// 1000*(attempt+1)ms.
func retryWait(pErr *providerError, attempt int) time.Duration {
	base := 1000 * time.Millisecond
	if pErr.status == http.StatusTooManyRequests || pErr.status == http.StatusBadGateway || pErr.status == http.StatusServiceUnavailable {
		base = 2000 * time.Millisecond
	}
	return base * time.Duration(attempt+1)
}
