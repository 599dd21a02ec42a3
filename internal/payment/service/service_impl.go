package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/payrelay/internal/config"
	"github.com/smallbiznis/payrelay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/payrelay/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Gateway    paymentdomain.Gateway
	Store      paymentdomain.ReferenceStore
	Redirects  *config.RedirectConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	gateway    paymentdomain.Gateway
	store      paymentdomain.ReferenceStore
	redirects  *config.RedirectConfigHolder
	obsMetrics *obsmetrics.Metrics
	validate   *validator.Validate
	flights    singleflight.Group
}

var _ paymentdomain.Service = (*Service)(nil)

func NewService(p Params) paymentdomain.Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		log:        log.Named("payment.service"),
		gateway:    p.Gateway,
		store:      p.Store,
		redirects:  p.Redirects,
		obsMetrics: p.ObsMetrics,
		validate:   validator.New(),
	}
}

func (s *Service) Initialize(ctx context.Context, req paymentdomain.InitializeRequest) (paymentdomain.InitializeResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Var(req.Email, "required,email"); err != nil {
		return paymentdomain.InitializeResult{}, paymentdomain.ErrInvalidEmail
	}
	if !req.Amount.IsPositive() {
		return paymentdomain.InitializeResult{}, paymentdomain.ErrInvalidAmount
	}
	if minor, err := paymentdomain.MinorUnits(req.Amount); err != nil || minor < 1 {
		return paymentdomain.InitializeResult{}, paymentdomain.ErrInvalidAmount
	}

	result, err := s.gateway.Initialize(ctx, req)
	if err != nil {
		logger.WithContext(ctx, s.log).Warn("initialize transaction failed", zap.Error(err))
		return paymentdomain.InitializeResult{}, err
	}
	return result, nil
}

// Reconcile settles a reference against the gateway unless it is already
// known to be paid. Concurrent calls for the same reference share one
// gateway round trip.
func (s *Service) Reconcile(ctx context.Context, reference string) (paymentdomain.Outcome, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return paymentdomain.Outcome{}, paymentdomain.ErrInvalidReference
	}
	log := logger.WithReference(logger.WithContext(ctx, s.log), reference)

	if s.store.Contains(reference) {
		s.obsMetrics.RecordReconcile(ctx, string(paymentdomain.OutcomeAlreadyProcessed))
		log.Debug("reference already processed")
		return alreadyProcessed(reference), nil
	}

	// The shared call must not die with whichever caller started it.
	flightCtx := context.WithoutCancel(ctx)
	value, err, _ := s.flights.Do(reference, func() (any, error) {
		return s.verifyAndMark(flightCtx, reference)
	})
	if err != nil {
		s.obsMetrics.RecordReconcile(ctx, "error")
		log.Warn("verify transaction failed", zap.Error(err))
		return paymentdomain.Outcome{}, err
	}

	outcome := value.(paymentdomain.Outcome)
	s.obsMetrics.RecordReconcile(ctx, string(outcome.Status))
	log.Info("reference reconciled", zap.String("outcome", string(outcome.Status)))
	return outcome, nil
}

func (s *Service) verifyAndMark(ctx context.Context, reference string) (paymentdomain.Outcome, error) {
	if s.store.Contains(reference) {
		return alreadyProcessed(reference), nil
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return paymentdomain.Outcome{}, err
	}

	if result.Status != paymentdomain.GatewayStatusSuccess {
		return paymentdomain.Outcome{
			Status:    paymentdomain.OutcomeFailed,
			Reference: reference,
			Data:      result.Payload,
		}, nil
	}

	if !s.store.MarkProcessed(reference) {
		return alreadyProcessed(reference), nil
	}
	return paymentdomain.Outcome{
		Status:    paymentdomain.OutcomeSuccess,
		Reference: reference,
		Data:      result.Payload,
	}, nil
}

// RecordWebhookEvent marks the reference of a charge.success delivery as
// paid. It trusts the event type and never calls the gateway.
func (s *Service) RecordWebhookEvent(ctx context.Context, eventType, reference string) (paymentdomain.WebhookOutcome, error) {
	eventType = strings.TrimSpace(eventType)
	reference = strings.TrimSpace(reference)
	log := logger.WithContext(ctx, s.log).With(zap.String("event_type", eventType))

	if eventType != paymentdomain.EventChargeSuccess {
		outcome := paymentdomain.WebhookOutcome{
			Status:    paymentdomain.WebhookIgnored,
			Reference: reference,
			Reason:    paymentdomain.IgnoreReasonUnhandledEvent,
		}
		s.recordWebhook(ctx, eventType, outcome)
		log.Debug("webhook event ignored", zap.String("reason", outcome.Reason))
		return outcome, nil
	}
	if reference == "" {
		s.obsMetrics.RecordWebhookEvent(ctx, eventType, "rejected", "missing_reference")
		return paymentdomain.WebhookOutcome{}, paymentdomain.ErrInvalidReference
	}

	log = logger.WithReference(log, reference)
	if !s.store.MarkProcessed(reference) {
		outcome := paymentdomain.WebhookOutcome{
			Status:    paymentdomain.WebhookIgnored,
			Reference: reference,
			Reason:    paymentdomain.IgnoreReasonAlreadyProcessed,
		}
		s.recordWebhook(ctx, eventType, outcome)
		log.Info("duplicate webhook delivery ignored")
		return outcome, nil
	}

	outcome := paymentdomain.WebhookOutcome{
		Status:    paymentdomain.WebhookRecorded,
		Reference: reference,
	}
	s.recordWebhook(ctx, eventType, outcome)
	log.Info("payment recorded from webhook")
	return outcome, nil
}

func (s *Service) recordWebhook(ctx context.Context, eventType string, outcome paymentdomain.WebhookOutcome) {
	s.obsMetrics.RecordWebhookEvent(ctx, eventType, string(outcome.Status), outcome.Reason)
}

// ResolveCallback reconciles the reference from a browser redirect and picks
// where to send the browser. trxref wins over reference when both are set,
// but the success URL always carries the reference parameter as received.
func (s *Service) ResolveCallback(ctx context.Context, req paymentdomain.CallbackRequest) (paymentdomain.CallbackResult, error) {
	actual := strings.TrimSpace(req.TrxRef)
	if actual == "" {
		actual = strings.TrimSpace(req.Reference)
	}
	if actual == "" {
		return paymentdomain.CallbackResult{}, paymentdomain.ErrMissingReference
	}

	outcome, err := s.Reconcile(ctx, actual)
	if err != nil {
		return paymentdomain.CallbackResult{}, err
	}

	redirect := s.redirects.Get()
	if !outcome.Settled() {
		return paymentdomain.CallbackResult{
			RedirectURL: redirect.FailureURL,
			Outcome:     outcome,
		}, nil
	}

	return paymentdomain.CallbackResult{
		RedirectURL: successURL(redirect.AppScheme, req.Reference),
		Outcome:     outcome,
	}, nil
}

func (s *Service) ProcessedCount() int {
	return s.store.Len()
}

func successURL(scheme, reference string) string {
	return fmt.Sprintf("%s://payment-success?reference=%s", strings.TrimSpace(scheme), url.QueryEscape(reference))
}

func alreadyProcessed(reference string) paymentdomain.Outcome {
	return paymentdomain.Outcome{
		Status:    paymentdomain.OutcomeAlreadyProcessed,
		Reference: reference,
	}
}
