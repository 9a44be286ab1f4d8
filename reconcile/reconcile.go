// Package reconcile applies verified payment gateway callbacks to registrations.
package reconcile

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/codebreakz/hackathon-registration/easebuzz"
	"github.com/codebreakz/hackathon-registration/ptr"
	"github.com/codebreakz/hackathon-registration/registration"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/codebreakz/hackathon-registration/reconcile"

var placeholderSalts = []string{
	"your_salt_here",
	"your_easebuzz_salt",
	"changeme",
	"salt",
}

// Store is the subset of registration.Repository the reconciler writes through.
type Store interface {
	UpdatePaymentByRegistrationID(ctx context.Context, registrationID string, update registration.PaymentUpdate) (registration.PaymentChange, error)
	UpdatePendingPaymentByEmail(ctx context.Context, email string, update registration.PaymentUpdate) (registration.PaymentChange, error)
	UpdatePendingPaymentByMobile(ctx context.Context, mobile string, update registration.PaymentUpdate) (registration.PaymentChange, error)
}

type Config struct {
	Salt       string
	Aggregator easebuzz.AggregatorRule
}

// Result describes the registration a callback was applied to. PreviousStatus is
// what that registration held before the write.
type Result struct {
	Registration   registration.Registration
	Status         registration.PaymentStatus
	PreviousStatus registration.PaymentStatus
	MatchedBy      LookupField
	LookupKey      string
}

// Settled reports whether this callback moved the registration into completed.
// A redelivered success callback is not settled a second time.
func (r Result) Settled() bool {
	return r.Status == registration.PAYMENT_COMPLETED && r.PreviousStatus != registration.PAYMENT_COMPLETED
}

type Reconciler struct {
	salt       string
	aggregator easebuzz.AggregatorRule
	store      Store
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

type Option func(*Reconciler)

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Reconciler) {
		r.tracer = tracer
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

func NewReconciler(config Config, store Store, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		salt:       config.Salt,
		aggregator: config.Aggregator,
		store:      store,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SaltConfigured reports whether salt is usable for verification: not blank and
// not one of the sample values shipped in configuration templates.
func SaltConfigured(salt string) bool {
	s := strings.TrimSpace(salt)
	if s == "" {
		return false
	}
	for _, placeholder := range placeholderSalts {
		if strings.EqualFold(s, placeholder) {
			return false
		}
	}
	return true
}

// Reconcile verifies a callback and writes its outcome to at most one
// registration. Errors are always *Error.
func (r *Reconciler) Reconcile(ctx context.Context, c easebuzz.Callback) (Result, error) {
	txnID := ptr.Deref(c.TxnID)

	ctx, span := r.tracer.Start(ctx, "Reconcile", trace.WithAttributes(
		attribute.String("easebuzz.txnid", txnID),
		attribute.String("easebuzz.status", ptr.Deref(c.Status)),
	))
	defer span.End()

	result, err := r.reconcile(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("registration.id", result.Registration.RegistrationID),
		attribute.String("registration.payment_status", string(result.Status)),
		attribute.String("reconcile.matched_by", string(result.MatchedBy)),
	)
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, c easebuzz.Callback) (Result, error) {
	txnID := ptr.Deref(c.TxnID)

	if !SaltConfigured(r.salt) {
		r.logger.ErrorContext(ctx, "payment gateway salt is missing or a placeholder, rejecting callback", slog.String("txnid", txnID))
		return Result{}, NewSaltNotConfiguredError()
	}

	if r.aggregator.Matches(c) {
		r.logger.WarnContext(ctx, "accepting aggregator callback without hash verification",
			slog.String("txnid", txnID),
			slog.String("productinfo", ptr.Deref(c.ProductInfo)),
			slog.String("udf2", ptr.Deref(c.UDF2)),
		)
	} else if !easebuzz.VerifyHash(r.salt, c) {
		r.logger.WarnContext(ctx, "payment callback hash mismatch",
			slog.String("txnid", txnID),
			slog.String("status", ptr.Deref(c.Status)),
		)
		return Result{}, NewHashMismatchError(txnID)
	}

	lookupKey := LookupKey(c)
	if lookupKey == "" {
		r.logger.WarnContext(ctx, "payment callback has no lookup key")
		return Result{}, NewMissingLookupKeyError()
	}

	status := easebuzz.TranslateStatus(ptr.Deref(c.Status))
	update := registration.PaymentUpdate{
		PaymentStatus: status,
		EasebuzzID:    ptr.Deref(c.EasepayID),
		TransactionID: txnID,
		UpdatedAt:     r.now().UTC(),
	}

	for _, sel := range Selectors(c, lookupKey) {
		change, err := r.apply(ctx, sel, update)
		if err != nil {
			if registration.IsDoesNotExist(err) {
				r.logger.DebugContext(ctx, "no registration matched selector",
					slog.String("field", string(sel.Field)),
					slog.String("value", sel.Value),
				)
				continue
			}

			r.logger.ErrorContext(ctx, "failed to update registration payment",
				slog.String("field", string(sel.Field)),
				slog.String("txnid", txnID),
				slog.String("error", err.Error()),
			)
			return Result{}, NewFailedToUpdateError(sel.Field, err)
		}
		reg := change.Registration

		r.warnOnAmountMismatch(ctx, reg, c)

		r.logger.InfoContext(ctx, "applied payment callback",
			slog.String("registrationId", reg.RegistrationID),
			slog.String("status", string(status)),
			slog.String("previousStatus", string(change.PreviousStatus)),
			slog.String("matchedBy", string(sel.Field)),
			slog.String("txnid", txnID),
		)
		return Result{
			Registration:   reg,
			Status:         status,
			PreviousStatus: change.PreviousStatus,
			MatchedBy:      sel.Field,
			LookupKey:      lookupKey,
		}, nil
	}

	r.logger.WarnContext(ctx, "no registration found for payment callback",
		slog.String("lookupKey", lookupKey),
		slog.String("txnid", txnID),
	)
	return Result{}, NewRegistrationNotFoundError(lookupKey)
}

func (r *Reconciler) apply(ctx context.Context, sel Selector, update registration.PaymentUpdate) (registration.PaymentChange, error) {
	switch sel.Field {
	case LOOKUP_EMAIL:
		return r.store.UpdatePendingPaymentByEmail(ctx, sel.Value, update)
	case LOOKUP_MOBILE:
		return r.store.UpdatePendingPaymentByMobile(ctx, sel.Value, update)
	default:
		return r.store.UpdatePaymentByRegistrationID(ctx, sel.Value, update)
	}
}

// The callback amount is informational; a mismatch is logged and never blocks the update.
func (r *Reconciler) warnOnAmountMismatch(ctx context.Context, reg registration.Registration, c easebuzz.Callback) {
	if reg.PaymentAmount == nil || c.Amount == nil {
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(*c.Amount), 64)
	if err != nil {
		r.logger.WarnContext(ctx, "payment callback amount is not a number",
			slog.String("registrationId", reg.RegistrationID),
			slog.String("amount", *c.Amount),
		)
		return
	}

	paid := money.NewFromFloat(amount, reg.PaymentAmount.Currency().Code)
	same, err := reg.PaymentAmount.Equals(paid)
	if err != nil || same {
		return
	}

	r.logger.WarnContext(ctx, "payment callback amount differs from registration fee",
		slog.String("registrationId", reg.RegistrationID),
		slog.String("expected", reg.PaymentAmount.Display()),
		slog.String("received", paid.Display()),
	)
}
