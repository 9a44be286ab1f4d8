package registration

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
)

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_COMPLETED PaymentStatus = "completed"
	PAYMENT_FAILED    PaymentStatus = "failed"
)

const idPrefix = "CBZ"

type Registration struct {
	RegistrationID    string
	FullName          string
	Email             string
	Mobile            string
	College           string
	TeamName          string
	ParticipationType ParticipationType
	PaymentStatus     PaymentStatus
	PaymentAmount     *money.Money
	EasebuzzID        string
	TransactionID     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PaymentUpdate is the set of fields written when a payment callback is applied.
type PaymentUpdate struct {
	PaymentStatus PaymentStatus
	EasebuzzID    string
	TransactionID string
	UpdatedAt     time.Time
}

// PaymentChange is a registration after a payment update, with the status it
// held before the write.
type PaymentChange struct {
	Registration   Registration
	PreviousStatus PaymentStatus
}

// Settled reports whether this write moved the registration into completed.
func (c PaymentChange) Settled() bool {
	return c.Registration.PaymentStatus == PAYMENT_COMPLETED && c.PreviousStatus != PAYMENT_COMPLETED
}

type Repository interface {
	CreateRegistration(ctx context.Context, reg Registration) error
	GetRegistration(ctx context.Context, registrationID string) (Registration, error)
	UpdatePaymentByRegistrationID(ctx context.Context, registrationID string, update PaymentUpdate) (PaymentChange, error)
	UpdatePendingPaymentByEmail(ctx context.Context, email string, update PaymentUpdate) (PaymentChange, error)
	UpdatePendingPaymentByMobile(ctx context.Context, mobile string, update PaymentUpdate) (PaymentChange, error)
}

// NewID generates a registration ID: the prefix, the creation time in base36 and
// five random base36 characters, upper-cased.
func NewID(now time.Time) string {
	var random strings.Builder
	for range 5 {
		random.WriteString(strconv.FormatInt(rand.Int64N(36), 36))
	}

	return strings.ToUpper(idPrefix + strconv.FormatInt(now.UnixMilli(), 36) + random.String())
}

// NewRegistration builds a pending registration with a fresh ID and the fee for
// its participation type.
func NewRegistration(fullName, email, mobile, college, teamName string, participationType ParticipationType, now time.Time) (Registration, error) {
	fee, err := FeeFor(participationType)
	if err != nil {
		return Registration{}, err
	}

	return Registration{
		RegistrationID:    NewID(now),
		FullName:          strings.TrimSpace(fullName),
		Email:             NormalizeEmail(email),
		Mobile:            strings.TrimSpace(mobile),
		College:           strings.TrimSpace(college),
		TeamName:          strings.TrimSpace(teamName),
		ParticipationType: participationType,
		PaymentStatus:     PAYMENT_PENDING,
		PaymentAmount:     fee,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r Registration) WithPaymentUpdate(update PaymentUpdate) Registration {
	r.PaymentStatus = update.PaymentStatus
	r.EasebuzzID = update.EasebuzzID
	r.TransactionID = update.TransactionID
	r.UpdatedAt = update.UpdatedAt
	return r
}
