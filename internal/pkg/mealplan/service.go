package mealplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
	"github.com/ManuelReschke/MealPilot/internal/pkg/monitor"
)

const cacheKind = "mealplan"

// Response is returned by the generation endpoint.
type Response struct {
	MealPlan       MealPlan `json:"mealPlan"`
	Cached         bool     `json:"cached"`
	ResponseTimeMs int64    `json:"responseTimeMs"`
}

// Service generates meal plans through the cache-aside monitor.
type Service struct {
	generator Generator
	monitor   *monitor.Monitor
	ttl       time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// NewService creates a service. ttl bounds cached plans; timeout bounds each
// generator call.
func NewService(gen Generator, m *monitor.Monitor, ttl, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		generator: gen,
		monitor:   m,
		ttl:       ttl,
		timeout:   timeout,
		logger:    logging.OrNop(logger).Named("mealplan"),
	}
}

// Generate returns a plan for req, from the cache when an identical request
// was answered within the TTL. The generator call is not canceled when the
// caller goes away; it finishes and its result is cached.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	res, err := monitor.Measure(ctx, s.monitor, cacheKind, req.CacheKey(), s.ttl, func(ctx context.Context) (MealPlan, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.generate(genCtx, req)
	})
	if err != nil {
		s.logger.Error("meal plan generation failed", zap.String("key", req.CacheKey()), zap.Error(err))
		if errors.Is(err, ErrInvalidResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	s.logger.Info("meal plan served",
		zap.Bool("cached", res.CacheHit),
		zap.Int64("response_time_ms", res.ResponseTimeMs()),
	)
	return &Response{
		MealPlan:       res.Data,
		Cached:         res.CacheHit,
		ResponseTimeMs: res.ResponseTimeMs(),
	}, nil
}

func (s *Service) generate(ctx context.Context, req Request) (MealPlan, error) {
	content, err := s.generator.Complete(ctx, buildPrompt(req))
	if err != nil {
		return nil, err
	}
	return ParseMealPlan(content)
}
