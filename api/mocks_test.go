package api

import (
	"context"
	"log/slog"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/codebreakz/hackathon-registration/easebuzz"
	"github.com/codebreakz/hackathon-registration/reconcile"
	"github.com/codebreakz/hackathon-registration/registration"
)

var noopLogger = slog.New(slog.DiscardHandler)

type mockReconciler struct {
	ReconcileFunc func(ctx context.Context, c easebuzz.Callback) (reconcile.Result, error)
}

func (m *mockReconciler) Reconcile(ctx context.Context, c easebuzz.Callback) (reconcile.Result, error) {
	return m.ReconcileFunc(ctx, c)
}

type mockEmailSender struct {
	SendEmailFunc func(ctx context.Context, e email.Email) error
	sent          []email.Email
}

func (m *mockEmailSender) SendEmail(ctx context.Context, e email.Email) error {
	m.sent = append(m.sent, e)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, e)
	}
	return nil
}

type mockStore struct {
	UpdatePaymentByRegistrationIDFunc func(ctx context.Context, registrationID string, update registration.PaymentUpdate) (registration.PaymentChange, error)
	UpdatePendingPaymentByEmailFunc   func(ctx context.Context, email string, update registration.PaymentUpdate) (registration.PaymentChange, error)
	UpdatePendingPaymentByMobileFunc  func(ctx context.Context, mobile string, update registration.PaymentUpdate) (registration.PaymentChange, error)
}

func notFound() error {
	return registration.NewRegistrationDoesNotExistsError("not found", nil)
}

func (m *mockStore) UpdatePaymentByRegistrationID(ctx context.Context, registrationID string, update registration.PaymentUpdate) (registration.PaymentChange, error) {
	if m.UpdatePaymentByRegistrationIDFunc == nil {
		return registration.PaymentChange{}, notFound()
	}
	return m.UpdatePaymentByRegistrationIDFunc(ctx, registrationID, update)
}

func (m *mockStore) UpdatePendingPaymentByEmail(ctx context.Context, email string, update registration.PaymentUpdate) (registration.PaymentChange, error) {
	if m.UpdatePendingPaymentByEmailFunc == nil {
		return registration.PaymentChange{}, notFound()
	}
	return m.UpdatePendingPaymentByEmailFunc(ctx, email, update)
}

func (m *mockStore) UpdatePendingPaymentByMobile(ctx context.Context, mobile string, update registration.PaymentUpdate) (registration.PaymentChange, error) {
	if m.UpdatePendingPaymentByMobileFunc == nil {
		return registration.PaymentChange{}, notFound()
	}
	return m.UpdatePendingPaymentByMobileFunc(ctx, mobile, update)
}
