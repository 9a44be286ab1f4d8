package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/codebreakz/hackathon-registration/easebuzz"
	"github.com/codebreakz/hackathon-registration/ptr"
	"github.com/codebreakz/hackathon-registration/reconcile"
	"github.com/codebreakz/hackathon-registration/registration"
)

const maxCallbackBodyBytes = 65536

type callbackResponse struct {
	Success        bool                       `json:"success"`
	RegistrationID string                     `json:"registrationId"`
	Status         registration.PaymentStatus `json:"status"`
}

type notFoundResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TxnID   string `json:"txnid"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// paymentCallback only answers non-200 for configuration and integrity
// failures. Everything else is a 200 so the gateway does not retry.
func (a *API) paymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	start := time.Now()
	outcome := outcomeInternalError
	defer func() {
		a.metrics.observeCallback(outcome, time.Since(start))
	}()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("payment callback panicked", slog.String("panic", fmt.Sprint(rec)))
			outcome = outcomeInternalError
			if headerWritten(w) {
				return
			}
			writeJSON(w, http.StatusOK, errorResponse{
				Success: false,
				Message: "Internal error while processing payment callback",
			})
		}
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBodyBytes)
	callback := parseCallback(r, logger)

	result, err := a.reconciler.Reconcile(ctx, callback)
	if err != nil {
		outcome = a.writeReconcileError(w, logger, callback, err)
		return
	}

	outcome = outcomeApplied

	// Redelivered success callbacks are not settled again, so each payment is confirmed once.
	if result.Settled() && a.emailSender != nil {
		err = registration.SendPaymentConfirmationEmail(ctx, a.emailSender, a.fromAddress, result.Registration)
		if err != nil {
			// The payment is recorded either way, the gateway should still see a success.
			logger.Error("failed to send payment confirmation email",
				slog.String("error", err.Error()),
				slog.String("registrationId", result.Registration.RegistrationID),
			)
		}
	}

	writeJSON(w, http.StatusOK, callbackResponse{
		Success:        true,
		RegistrationID: result.Registration.RegistrationID,
		Status:         result.Status,
	})
}

// parseCallback never fails. An unreadable body yields an empty callback, which
// the reconciler rejects on its own terms.
func parseCallback(r *http.Request, logger *slog.Logger) easebuzz.Callback {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Warn("failed to read payment callback body", slog.String("error", err.Error()))
			return easebuzz.Callback{}
		}

		callback, err := easebuzz.CallbackFromJSON(body)
		if err != nil {
			logger.Warn("failed to parse payment callback JSON", slog.String("error", err.Error()))
			return easebuzz.Callback{}
		}
		return callback
	}

	if err := r.ParseForm(); err != nil {
		logger.Warn("failed to parse payment callback form", slog.String("error", err.Error()))
		return easebuzz.Callback{}
	}
	return easebuzz.CallbackFromValues(r.PostForm)
}

func (a *API) writeReconcileError(w http.ResponseWriter, logger *slog.Logger, callback easebuzz.Callback, err error) callbackOutcome {
	var reconcileErr *reconcile.Error
	if !errors.As(err, &reconcileErr) {
		reconcileErr = reconcile.NewFailedToUpdateError("unknown", err)
	}

	switch reconcileErr.Reason {
	case reconcile.REASON_SALT_NOT_CONFIGURED:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Success: false,
			Message: "Payment gateway configuration error",
		})
		return outcomeConfigError
	case reconcile.REASON_HASH_MISMATCH:
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success: false,
			Message: "Invalid payment hash",
		})
		return outcomeHashMismatch
	case reconcile.REASON_MISSING_LOOKUP_KEY:
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success: false,
			Message: "Missing registration identifier",
		})
		return outcomeMissingLookupKey
	case reconcile.REASON_REGISTRATION_NOT_FOUND:
		writeJSON(w, http.StatusOK, notFoundResponse{
			Success: false,
			Message: "Registration not found",
			TxnID:   ptr.Deref(callback.TxnID),
		})
		return outcomeNotFound
	default:
		logger.Error("failed to process payment callback",
			slog.String("error", err.Error()),
			slog.String("txnid", ptr.Deref(callback.TxnID)),
		)
		writeJSON(w, http.StatusOK, errorResponse{
			Success: false,
			Message: "Internal error while processing payment callback",
		})
		return outcomeInternalError
	}
}
