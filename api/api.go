package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/codebreakz/hackathon-registration/easebuzz"
	"github.com/codebreakz/hackathon-registration/reconcile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

const paymentCallbackPath = "/api/v1/payment-callback"

type Reconciler interface {
	Reconcile(ctx context.Context, c easebuzz.Callback) (reconcile.Result, error)
}

type API struct {
	reconciler  Reconciler
	logger      *slog.Logger
	env         Environment
	emailSender email.Sender
	fromAddress string
	metrics     *metrics
}

func NewAPI(reconciler Reconciler, logger *slog.Logger, env Environment, emailSender email.Sender, fromAddress string) *API {
	return &API{
		reconciler:  reconciler,
		logger:      logger,
		env:         env,
		emailSender: emailSender,
		fromAddress: fromAddress,
		metrics:     newMetrics(),
	}
}

// Handler builds the routed, validated and logged HTTP handler for the service.
func (a *API) Handler() (http.Handler, error) {
	swagger, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}

	swagger.Servers = nil

	r := http.NewServeMux()
	r.HandleFunc("POST "+paymentCallbackPath, a.paymentCallback)
	r.HandleFunc("GET /healthz", a.healthz)
	r.Handle("GET /metrics", promhttp.HandlerFor(a.metrics.registry, promhttp.HandlerOpts{}))

	return useMiddlewares(r,
		a.recoverMiddleware(),
		a.openapiValidateMiddleware(swagger),
		a.loggingMiddleware(),
		a.requestIdMiddleware(),
	), nil
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
