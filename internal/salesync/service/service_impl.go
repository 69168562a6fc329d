package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/exactsync/internal/clock"
	composerdomain "github.com/smallbiznis/exactsync/internal/composer/domain"
	"github.com/smallbiznis/exactsync/internal/config"
	"github.com/smallbiznis/exactsync/internal/erperr"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	journaldomain "github.com/smallbiznis/exactsync/internal/journal/domain"
	"github.com/smallbiznis/exactsync/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/exactsync/internal/observability/metrics"
	obstracing "github.com/smallbiznis/exactsync/internal/observability/tracing"
	resolverdomain "github.com/smallbiznis/exactsync/internal/resolver/domain"
	"github.com/smallbiznis/exactsync/internal/salesync/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Cfg      config.Config
	Tokens   exactdomain.TokenSource
	Client   exactdomain.Client
	Resolver resolverdomain.Resolver
	Composer composerdomain.Composer
	Clock    clock.Clock
	Log      *zap.Logger
	Journal  journaldomain.Journal `optional:"true"`
	Metrics  *obsmetrics.Metrics   `optional:"true"`
}

// Service drives one order or quotation through the ERP. Each call is
// synchronous and stops at the first failing step.
type Service struct {
	prospectStatus string
	tokens         exactdomain.TokenSource
	client         exactdomain.Client
	resolver       resolverdomain.Resolver
	composer       composerdomain.Composer
	clock          clock.Clock
	log            *zap.Logger
	journal        journaldomain.Journal
	metrics        *obsmetrics.Metrics
	tracer         trace.Tracer
}

func New(p Params) domain.Service {
	return &Service{
		prospectStatus: p.Cfg.Exact.ProspectStatus,
		tokens:         p.Tokens,
		client:         p.Client,
		resolver:       p.Resolver,
		composer:       p.Composer,
		clock:          p.Clock,
		log:            p.Log.Named("salesync.service"),
		journal:        p.Journal,
		metrics:        p.Metrics,
		tracer:         otel.Tracer("exactsync/salesync"),
	}
}

func (s *Service) UpdateSalesOrder(ctx context.Context, sess exactdomain.Session, orderID, yourRef, shopOrderID string) (result domain.Result, err error) {
	const op = "salesync.update_sales_order"
	ctx, r := s.begin(ctx, domain.WorkflowUpdateSalesOrder, sess, shopOrderID)
	result = domain.Result{Workflow: domain.WorkflowUpdateSalesOrder, State: domain.StateAuthPending, OrderID: orderID}
	defer func() { r.finish(ctx, &result, err) }()

	switch {
	case !sess.Valid():
		return result, r.fail(domain.StepValidate, erperr.Validation(op, "session needs user and division"))
	case strings.TrimSpace(orderID) == "":
		return result, r.fail(domain.StepValidate, erperr.Validation(op, "order id is required"))
	case strings.TrimSpace(shopOrderID) == "":
		return result, r.fail(domain.StepValidate, erperr.Validation(op, "shop order id is required"))
	}

	if err := s.ensureToken(ctx, sess); err != nil {
		return result, r.fail(domain.StepAuth, err)
	}

	body := exactdomain.SalesOrderReference{YourRef: strings.TrimSpace(yourRef) + "/" + strings.TrimSpace(shopOrderID)}
	if err := s.traced(ctx, domain.StepSubmit, func(ctx context.Context) error {
		return s.client.Put(ctx, sess, exactdomain.RecordPath(exactdomain.ResourceSalesOrders, orderID), body)
	}); err != nil {
		return result, r.fail(domain.StepSubmit, err)
	}
	result.State = domain.StateSubmitted
	return result, nil
}

func (s *Service) ensureToken(ctx context.Context, sess exactdomain.Session) error {
	return s.traced(ctx, domain.StepAuth, func(ctx context.Context) error {
		_, err := s.tokens.EnsureValidToken(ctx, sess.UserID)
		return err
	})
}

// traced runs fn inside a child span named after the step.
func (s *Service) traced(ctx context.Context, step string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "salesync."+step)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(obstracing.SafeError(err))
		span.SetStatus(codes.Error, step+" failed")
		return err
	}
	return nil
}

// run tracks one orchestrator call from start to its journal entry.
type run struct {
	s          *Service
	workflow   domain.Workflow
	sess       exactdomain.Session
	ref        string
	startedAt  time.Time
	span       trace.Span
	failedStep string
}

func (s *Service) begin(ctx context.Context, workflow domain.Workflow, sess exactdomain.Session, ref string) (context.Context, *run) {
	ctx, span := s.tracer.Start(ctx, "salesync."+string(workflow))
	span.SetAttributes(obstracing.SafeAttributes(
		attribute.String("exact.division", sess.Division),
		attribute.String("salesync.workflow", string(workflow)),
		attribute.String("salesync.ref", ref),
	)...)
	return ctx, &run{
		s:         s,
		workflow:  workflow,
		sess:      sess,
		ref:       ref,
		startedAt: s.clock.Now(),
		span:      span,
	}
}

func (r *run) fail(step string, err error) error {
	r.failedStep = step
	return err
}

func (r *run) finish(ctx context.Context, result *domain.Result, err error) {
	defer r.span.End()

	log := logger.WithContext(ctx, r.s.log).With(
		zap.String("workflow", string(r.workflow)),
		zap.String("ref", r.ref),
		zap.String("state", string(result.State)),
	)

	errorKind := ""
	if err != nil {
		result.Outcome = domain.StateFailed
		result.FailedStep = r.failedStep
		if kind, ok := erperr.KindOf(err); ok {
			errorKind = string(kind)
		}
		r.span.RecordError(obstracing.SafeError(err))
		r.span.SetStatus(codes.Error, r.failedStep+" failed")
		log.Warn("sync run failed",
			zap.String("step", r.failedStep),
			zap.String("error_kind", errorKind),
			zap.Error(err),
		)
	} else {
		result.Outcome = domain.StateSucceeded
		log.Info("sync run succeeded", zap.Int64("order_number", result.OrderNumber))
	}
	r.span.SetAttributes(attribute.String("salesync.state", string(result.State)))

	r.s.metrics.RecordSyncRun(ctx, string(r.workflow), string(result.Outcome), errorKind)

	if r.s.journal == nil || !r.s.journal.Enabled() {
		return
	}
	entry := journaldomain.Run{
		Workflow:    string(r.workflow),
		UserID:      r.sess.UserID,
		Division:    r.sess.Division,
		ExternalRef: r.ref,
		State:       string(result.State),
		Outcome:     string(result.Outcome),
		FailedStep:  result.FailedStep,
		ErrorKind:   errorKind,
		OrderNumber: result.OrderNumber,
		Refs:        datatypes.JSONMap(result.Refs()),
		StartedAt:   r.startedAt,
		FinishedAt:  r.s.clock.Now(),
	}
	if err != nil {
		entry.ErrorMessage = obstracing.SafeError(err).Error()
	}
	// The journal write must not be lost when the caller goes away.
	_ = r.s.journal.Record(context.WithoutCancel(ctx), entry)
}
