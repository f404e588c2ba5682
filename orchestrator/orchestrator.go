// Package orchestrator decides, for every generation request, which tier to
// call, which provider to use, whether to serve a cached answer, and how to
// recover from upstream failures. It sequences a single fallback chain:
// cache, premium on the preferred provider, standard on the preferred
// provider, standard on the alternate provider. Tier degrades before
// provider: tier failures are more often quota or configuration issues,
// provider failures are more often outages.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clinscribe/clinscribe/cache"
	"github.com/clinscribe/clinscribe/llm"
	"github.com/clinscribe/clinscribe/model"
	"github.com/clinscribe/clinscribe/quota"
)

// ErrUnavailable is the only user-visible failure. It wraps the last
// underlying error for diagnostics; raw transport errors are never exposed
// to callers directly.
var ErrUnavailable = errors.New("generation unavailable")

// Invoker sends one fully-assembled request to one provider. Satisfied by
// *llm.Client; tests substitute fakes.
type Invoker interface {
	Invoke(ctx context.Context, provider model.Provider, params model.Params, systemPrompt, userContent string) (*llm.Completion, error)
}

// Service is the orchestration facade used by every feature.
// Each call is an independent request-response operation; the service holds
// no per-call state and no locks across calls.
type Service struct {
	client   Invoker
	selector *model.Selector
	quota    *quota.Tracker
	cache    *cache.Cache
	metrics  *Metrics
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache enables the response cache.
func WithCache(c *cache.Cache) ServiceOption {
	return func(s *Service) {
		s.cache = c
	}
}

// WithMetrics sets the orchestration metrics.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the orchestration facade.
func NewService(client Invoker, selector *model.Selector, tracker *quota.Tracker, opts ...ServiceOption) *Service {
	s := &Service{
		client:   client,
		selector: selector,
		quota:    tracker,
		metrics:  NewMetrics(nil),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Generate runs one orchestration call. Steps execute strictly sequentially;
// a successful cheaper step short-circuits the more expensive ones. On
// failure the returned result carries the error classification and the error
// wraps ErrUnavailable around the last underlying failure.
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	requestID := uuid.New().String()

	provider := req.PreferredProvider
	if !provider.IsValid() {
		provider = model.ProviderCloud
	}
	tier := req.Tier
	if !tier.IsValid() {
		tier = model.TierStandard
	}

	// Step 1: cache. A hit bypasses quota checks and provider calls.
	var contentHash string
	if s.cache != nil && req.UseCache {
		contentHash = cache.ContentHash(req.Content)
		if entry, ok := s.cache.Lookup(ctx, contentHash, req.DocType); ok {
			s.metrics.cacheHits.Inc()
			s.logger.Debug("Cache hit", "request_id", requestID, "doc_type", req.DocType)
			return &GenerationResult{
				Success:   true,
				Payload:   entry.Payload,
				Model:     entry.Model,
				Cached:    true,
				RequestID: requestID,
			}, nil
		}
		s.metrics.cacheMisses.Inc()
	}

	var lastErr error

	// Step 2: premium on the preferred provider, when requested and within
	// quota. A failed premium attempt consumes no quota and falls through.
	if tier == model.TierPremium {
		switch {
		case req.UserID == "":
			s.logger.Debug("Anonymous request, skipping premium",
				"request_id", requestID)
		case !s.quota.CanUsePremium(ctx, req.UserID, req.DocType):
			s.logger.Debug("Premium quota exhausted, degrading to standard",
				"request_id", requestID,
				"user_id", req.UserID,
				"doc_type", req.DocType)
		default:
			result, err := s.attempt(ctx, provider, model.TierPremium, req, requestID, contentHash)
			s.metrics.observeAttempt(provider.String(), model.TierPremium.String(), err)
			if err == nil {
				if recErr := s.quota.RecordPremiumUse(ctx, req.UserID, req.DocType); recErr != nil {
					s.logger.Warn("Failed to record premium use",
						"request_id", requestID,
						"user_id", req.UserID,
						"error", recErr)
				}
				return result, nil
			}
			if stop := s.stopOnParse(err, req, requestID, provider, model.TierPremium); stop != nil {
				return stop, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
			s.metrics.fallbacks.Inc()
			s.logger.Warn("Premium attempt failed, degrading to standard",
				"request_id", requestID,
				"provider", provider,
				"error", err)
			lastErr = err
		}
	}

	// Step 3: standard on the preferred provider.
	result, err := s.attempt(ctx, provider, model.TierStandard, req, requestID, contentHash)
	s.metrics.observeAttempt(provider.String(), model.TierStandard.String(), err)
	if err == nil {
		return result, nil
	}
	if stop := s.stopOnParse(err, req, requestID, provider, model.TierStandard); stop != nil {
		return stop, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	lastErr = err

	// Step 4: standard on the alternate provider, if the caller allows it.
	// Premium is never attempted on the alternate provider.
	if req.AllowFallback {
		alternate := provider.Alternate()
		s.metrics.fallbacks.Inc()
		s.logger.Warn("Preferred provider failed, trying alternate",
			"request_id", requestID,
			"preferred", provider,
			"alternate", alternate,
			"error", err)

		result, err = s.attempt(ctx, alternate, model.TierStandard, req, requestID, contentHash)
		s.metrics.observeAttempt(alternate.String(), model.TierStandard.String(), err)
		if err == nil {
			return result, nil
		}
		if stop := s.stopOnParse(err, req, requestID, alternate, model.TierStandard); stop != nil {
			return stop, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		lastErr = err
	}

	// Fallback exhausted: surface the last encountered error.
	s.logger.Warn("Generation exhausted all fallback paths",
		"request_id", requestID,
		"doc_type", req.DocType,
		"error", lastErr)

	return &GenerationResult{
		RequestID: requestID,
		ErrorKind: classify(lastErr),
	}, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

// attempt makes a single provider call at a given tier, parses the output,
// and writes the validated payload through to the cache. No internal retry:
// retrying a (tier, provider) pair is the caller's decision.
func (s *Service) attempt(ctx context.Context, provider model.Provider, tier model.Tier, req GenerationRequest, requestID, contentHash string) (*GenerationResult, error) {
	params := s.selector.ForTier(tier)

	completion, err := s.client.Invoke(ctx, provider, params, req.SystemPrompt, req.Content)
	if err != nil {
		return nil, err
	}

	payload, err := llm.Parse(completion.Content, req.WantsJSON)
	if err != nil {
		return nil, err
	}

	// Cache the parsed, validated payload, never the raw text, so a later
	// hit skips parsing entirely.
	if s.cache != nil && contentHash != "" {
		s.cache.Write(ctx, contentHash, req.DocType, payload, completion.Model)
	}

	return &GenerationResult{
		Success:   true,
		Payload:   payload,
		Model:     completion.Model,
		Provider:  provider,
		Tier:      tier,
		RequestID: requestID,
	}, nil
}

// stopOnParse returns a terminal failure result when err is a parse failure
// the caller has not opted to retry past. A malformed response at one
// (tier, provider) is assumed likely to recur at the others.
func (s *Service) stopOnParse(err error, req GenerationRequest, requestID string, provider model.Provider, tier model.Tier) *GenerationResult {
	if !llm.IsParse(err) || req.RetryOnParseFailure {
		return nil
	}

	s.logger.Warn("Unparseable model output, not retrying across tiers",
		"request_id", requestID,
		"provider", provider,
		"tier", tier,
		"error", err)

	return &GenerationResult{
		RequestID: requestID,
		Provider:  provider,
		Tier:      tier,
		ErrorKind: ErrorKindParse,
	}
}

// classify maps an error to its caller-facing kind.
func classify(err error) ErrorKind {
	switch {
	case llm.IsParse(err):
		return ErrorKindParse
	case llm.IsConfiguration(err):
		return ErrorKindConfiguration
	default:
		return ErrorKindTransport
	}
}
