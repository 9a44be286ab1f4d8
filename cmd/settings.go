package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/codebreakz/hackathon-registration/api"
	"github.com/codebreakz/hackathon-registration/easebuzz"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Settings struct {
	Env  api.Environment
	Host string `validate:"required"`
	Port string `validate:"required,numeric"`

	DynamoTableName string `validate:"required"`
	DynamoEndpoint  string `validate:"omitempty,url"`

	EmailFromAddress string `validate:"required"`

	// An unset salt is not a startup error, the callback endpoint answers 500 until it is fixed.
	EasebuzzSalt             string
	EasebuzzSaltSSMParameter string
	AggregatorEventMarker    string

	OTLPEndpoint string `validate:"omitempty,http_url"`
}

// loadDotEnv reads .env for local runs. A missing file is fine.
func loadDotEnv() {
	if getEnvOrDefault("ENV", "LOCAL") == "LOCAL" {
		_ = godotenv.Load()
	}
}

func getSettingsFromEnv() (Settings, error) {
	env, err := parseEnvironment(getEnvOrDefault("ENV", "LOCAL"))
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		Env:                      env,
		Host:                     getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                     getEnvOrDefault("PORT", "8080"),
		DynamoTableName:          getEnvOrDefault("DYNAMO_TABLE_NAME", "HackathonRegistration"),
		DynamoEndpoint:           getEnvOrDefault("DYNAMO_ENDPOINT", ""),
		EmailFromAddress:         getEnvOrDefault("EMAIL_FROM_ADDRESS", "CodeBreakz <team@codebreakz.dev>"),
		EasebuzzSalt:             getEnvOrDefault("EASEBUZZ_SALT", ""),
		EasebuzzSaltSSMParameter: getEnvOrDefault("EASEBUZZ_SALT_SSM_PARAMETER", ""),
		AggregatorEventMarker:    getEnvOrDefault("AGGREGATOR_EVENT_MARKER", easebuzz.DefaultAggregatorRule.EventMarker),
		OTLPEndpoint:             getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(settings); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	return settings, nil
}

func parseEnvironment(env string) (api.Environment, error) {
	switch strings.ToUpper(strings.TrimSpace(env)) {
	case "LOCAL":
		return api.LOCAL, nil
	case "PROD":
		return api.PROD, nil
	default:
		return api.LOCAL, fmt.Errorf("unknown ENV %q", env)
	}
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return defaultVal
}
