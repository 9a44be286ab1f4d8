package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/codebreakz/hackathon-registration/api"
	"github.com/codebreakz/hackathon-registration/dynamo"
	"github.com/codebreakz/hackathon-registration/easebuzz"
	"github.com/codebreakz/hackathon-registration/reconcile"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadDotEnv()

	settings, err := getSettingsFromEnv()
	if err != nil {
		slog.Error("Error loading settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(settings.Env)

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("Error loading aws config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := setupTracing(ctx, settings)
	if err != nil {
		logger.Error("Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	salt, err := resolveEasebuzzSalt(ctx, ssm.NewFromConfig(awsCfg), settings)
	if err != nil {
		// Keep serving, the callback endpoint reports the missing salt itself.
		logger.Error("Error resolving easebuzz salt", slog.String("error", err.Error()))
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if settings.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(settings.DynamoEndpoint)
		}
	})
	db := dynamo.NewDB(dynamoClient, settings.DynamoTableName)

	aggregator := easebuzz.DefaultAggregatorRule
	aggregator.EventMarker = settings.AggregatorEventMarker

	reconciler := reconcile.NewReconciler(reconcile.Config{
		Salt:       salt,
		Aggregator: aggregator,
	}, db, logger)

	registrationAPI := api.NewAPI(reconciler, logger, settings.Env, createEmailSender(awsCfg, logger, settings.Env), settings.EmailFromAddress)

	h, err := registrationAPI.Handler()
	if err != nil {
		logger.Error("Error building http handler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s := &http.Server{
		Handler:           otelhttp.NewHandler(h, serviceName),
		Addr:              net.JoinHostPort(settings.Host, settings.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", slog.String("addr", s.Addr))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Error shutting down tracing", slog.String("error", err.Error()))
	}
}

func newLogger(env api.Environment) *slog.Logger {
	if env == api.PROD {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
