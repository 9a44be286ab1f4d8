package registration

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/Rhymond/go-money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmailSender struct {
	SendEmailFunc func(ctx context.Context, e email.Email) error
}

func (m *mockEmailSender) SendEmail(ctx context.Context, e email.Email) error {
	return m.SendEmailFunc(ctx, e)
}

func TestNewID(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("has prefix, timestamp and random suffix", func(t *testing.T) {
		id := NewID(now)

		timestamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
		assert.True(t, strings.HasPrefix(id, "CBZ"+timestamp), "id %q", id)
		assert.Len(t, id, len("CBZ")+len(timestamp)+5)
		assert.Regexp(t, regexp.MustCompile(`^[0-9A-Z]+$`), id)
	})

	t.Run("ids generated at the same instant differ", func(t *testing.T) {
		seen := map[string]bool{}
		for range 50 {
			seen[NewID(now)] = true
		}
		assert.Greater(t, len(seen), 1)
	})
}

func TestNewRegistration(t *testing.T) {
	now := time.Now()

	t.Run("individual registration is pending with individual fee", func(t *testing.T) {
		reg, err := NewRegistration(" Ada Lovelace ", "  Ada@Example.COM ", " 9876543210 ", "MIT", "", INDIVIDUAL, now)
		require.NoError(t, err)

		assert.Equal(t, "Ada Lovelace", reg.FullName)
		assert.Equal(t, "ada@example.com", reg.Email)
		assert.Equal(t, "9876543210", reg.Mobile)
		assert.Equal(t, PAYMENT_PENDING, reg.PaymentStatus)
		assert.Equal(t, int64(19900), reg.PaymentAmount.Amount())
		assert.Equal(t, money.INR, reg.PaymentAmount.Currency().Code)
		assert.Equal(t, now, reg.CreatedAt)
		assert.Equal(t, now, reg.UpdatedAt)
		assert.True(t, strings.HasPrefix(reg.RegistrationID, "CBZ"))
	})

	t.Run("team registration gets team fee", func(t *testing.T) {
		reg, err := NewRegistration("Grace Hopper", "grace@example.com", "9876543211", "Yale", "Compilers", TEAM, now)
		require.NoError(t, err)

		assert.Equal(t, int64(49900), reg.PaymentAmount.Amount())
		assert.Equal(t, "Compilers", reg.TeamName)
	})

	t.Run("unknown participation type", func(t *testing.T) {
		_, err := NewRegistration("x", "x@example.com", "9876543212", "", "", ParticipationType("duo"), now)
		require.Error(t, err)

		var regErr *Error
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, REASON_UNKNOWN_PARTICIPATION_TYPE, regErr.Reason)
	})
}

func TestWithPaymentUpdate(t *testing.T) {
	reg := Registration{RegistrationID: "CBZ1", PaymentStatus: PAYMENT_PENDING}
	updatedAt := time.Now()

	updated := reg.WithPaymentUpdate(PaymentUpdate{
		PaymentStatus: PAYMENT_COMPLETED,
		EasebuzzID:    "E123",
		TransactionID: "TXN1",
		UpdatedAt:     updatedAt,
	})

	assert.Equal(t, PAYMENT_COMPLETED, updated.PaymentStatus)
	assert.Equal(t, "E123", updated.EasebuzzID)
	assert.Equal(t, "TXN1", updated.TransactionID)
	assert.Equal(t, updatedAt, updated.UpdatedAt)
	assert.Equal(t, PAYMENT_PENDING, reg.PaymentStatus)
}

func TestPaymentChangeSettled(t *testing.T) {
	tests := []struct {
		name     string
		previous PaymentStatus
		current  PaymentStatus
		want     bool
	}{
		{name: "pending to completed", previous: PAYMENT_PENDING, current: PAYMENT_COMPLETED, want: true},
		{name: "failed to completed", previous: PAYMENT_FAILED, current: PAYMENT_COMPLETED, want: true},
		{name: "completed again", previous: PAYMENT_COMPLETED, current: PAYMENT_COMPLETED, want: false},
		{name: "pending to failed", previous: PAYMENT_PENDING, current: PAYMENT_FAILED, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := PaymentChange{
				Registration:   Registration{PaymentStatus: tt.current},
				PreviousStatus: tt.previous,
			}
			assert.Equal(t, tt.want, change.Settled())
		})
	}
}

func TestIsDoesNotExist(t *testing.T) {
	assert.True(t, IsDoesNotExist(NewRegistrationDoesNotExistsError("missing", nil)))
	assert.True(t, IsDoesNotExist(errors.Join(errors.New("outer"), NewRegistrationDoesNotExistsError("missing", nil))))
	assert.False(t, IsDoesNotExist(NewFailedToFetchError("boom", errors.New("network"))))
	assert.False(t, IsDoesNotExist(errors.New("plain")))
}

func TestSendPaymentConfirmationEmail(t *testing.T) {
	reg := Registration{
		RegistrationID:    "CBZLXYZ12ABCDE",
		FullName:          "Ada Lovelace",
		Email:             "ada@example.com",
		ParticipationType: TEAM,
		TeamName:          "Engines",
		PaymentStatus:     PAYMENT_COMPLETED,
		PaymentAmount:     money.New(49900, money.INR),
		TransactionID:     "TXN42",
	}

	t.Run("sends html and text bodies", func(t *testing.T) {
		var sent email.Email
		sender := &mockEmailSender{
			SendEmailFunc: func(ctx context.Context, e email.Email) error {
				sent = e
				return nil
			},
		}

		err := SendPaymentConfirmationEmail(context.Background(), sender, "CodeBreakz <team@codebreakz.dev>", reg)
		require.NoError(t, err)

		assert.Equal(t, "CodeBreakz <team@codebreakz.dev>", sent.FromAddress)
		assert.Equal(t, []string{"ada@example.com"}, sent.ToAddresses)
		assert.Contains(t, sent.Subject, reg.RegistrationID)
		assert.Contains(t, sent.HTMLBody, "Ada Lovelace")
		assert.Contains(t, sent.HTMLBody, "Engines")
		assert.Contains(t, sent.TextBody, "Registration ID: CBZLXYZ12ABCDE")
		assert.Contains(t, sent.TextBody, "Transaction: TXN42")
	})

	t.Run("sender error is returned", func(t *testing.T) {
		sender := &mockEmailSender{
			SendEmailFunc: func(ctx context.Context, e email.Email) error {
				return errors.New("ses down")
			},
		}

		err := SendPaymentConfirmationEmail(context.Background(), sender, "from@example.com", reg)
		assert.EqualError(t, err, "ses down")
	})
}
