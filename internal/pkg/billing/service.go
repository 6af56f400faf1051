package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ManuelReschke/MealPilot/app/models"
	"github.com/ManuelReschke/MealPilot/internal/pkg/constants"
	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
)

// Status is the subscription state shown to the principal.
type Status struct {
	Tier   string `json:"subscriptionTier"`
	Active bool   `json:"subscriptionActive"`
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Prices PriceIDs
	// BaseURL is the public origin used for checkout redirect URLs.
	BaseURL     string
	Invalidator SnapshotInvalidator
}

// Service handles user-initiated subscription changes. Processor state is
// changed first; the local record is only overwritten after the processor
// accepted the change.
type Service struct {
	repo        Repository
	gateway     PaymentGateway
	prices      PriceIDs
	baseURL     string
	invalidator SnapshotInvalidator
	logger      *zap.Logger
}

// NewService creates a billing service from an injected repository and gateway.
func NewService(repo Repository, gateway PaymentGateway, opts ServiceOptions, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		gateway:     gateway,
		prices:      opts.Prices,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		invalidator: opts.Invalidator,
		logger:      logging.OrNop(logger).Named("billing"),
	}
}

func (s *Service) priceFor(raw string) (Plan, string, error) {
	plan, ok := ParsePlan(raw)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownPlan, raw)
	}
	priceID := s.prices.Lookup(plan)
	if priceID == "" {
		return "", "", fmt.Errorf("%w: no price configured for %q", ErrUnknownPlan, plan)
	}
	return plan, priceID, nil
}

// Checkout creates a hosted checkout session and returns its URL. The
// subscription becomes active once the checkout.session.completed webhook
// arrives.
func (s *Service) Checkout(ctx context.Context, userID, email, rawPlan string) (string, error) {
	userID = strings.TrimSpace(userID)
	email = strings.TrimSpace(email)
	if userID == "" || email == "" {
		return "", errors.New("user id and email are required")
	}
	plan, priceID, err := s.priceFor(rawPlan)
	if err != nil {
		return "", err
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		UserID:     userID,
		Email:      email,
		Plan:       plan,
		PriceID:    priceID,
		SuccessURL: s.baseURL + constants.PublicRoute + constants.CheckoutSuccessQuery,
		CancelURL:  s.baseURL + constants.SubscribeRoute,
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("checkout session created", zap.String("user_id", userID), zap.String("plan", string(plan)))
	return url, nil
}

// ChangePlan switches the principal's subscription to another plan with
// prorations and reactivates it.
func (s *Service) ChangePlan(ctx context.Context, userID, rawPlan string) (*models.Profile, error) {
	plan, priceID, err := s.priceFor(rawPlan)
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ref := profile.SubscriptionRef()
	if ref == "" {
		return nil, ErrNoSubscription
	}

	current, err := s.gateway.RetrieveSubscription(ctx, ref)
	if err != nil {
		return nil, err
	}
	if current.ItemID == "" {
		return nil, ErrNoSubscription
	}
	updated, err := s.gateway.ChangeSubscriptionPlan(ctx, ref, current.ItemID, priceID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ActivateSubscription(ctx, userID, "", updated.ID, plan); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	s.logger.Info("subscription plan changed",
		zap.String("user_id", userID),
		zap.String("subscription_id", updated.ID),
		zap.String("plan", string(plan)),
	)
	return s.repo.FindByUserID(ctx, userID)
}

// Unsubscribe cancels the subscription at the end of the billing period and
// clears the local record immediately.
func (s *Service) Unsubscribe(ctx context.Context, userID string) error {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	ref := profile.SubscriptionRef()
	if ref == "" {
		return ErrNoSubscription
	}

	if _, err := s.gateway.CancelAtPeriodEnd(ctx, ref); err != nil {
		return err
	}
	if _, err := s.repo.ClearSubscription(ctx, ref); err != nil && !errors.Is(err, ErrProfileNotFound) {
		return err
	}
	s.invalidate(ctx, userID)
	s.logger.Info("subscription canceled by user", zap.String("user_id", userID), zap.String("subscription_id", ref))
	return nil
}

// Status returns the current tier and active flag.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return Status{Tier: profile.Tier(), Active: profile.SubscriptionActive}, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID)
	}
}
