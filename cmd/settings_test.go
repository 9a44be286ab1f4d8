package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/codebreakz/hackathon-registration/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSettingsFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ENV", "LOCAL")

		settings, err := getSettingsFromEnv()
		require.NoError(t, err)

		assert.Equal(t, api.LOCAL, settings.Env)
		assert.Equal(t, "CodeBreakz", settings.AggregatorEventMarker)
	})

	t.Run("prod with overrides", func(t *testing.T) {
		t.Setenv("ENV", "prod")
		t.Setenv("PORT", "9000")
		t.Setenv("DYNAMO_TABLE_NAME", "Registrations")
		t.Setenv("EASEBUZZ_SALT", "s3cret")

		settings, err := getSettingsFromEnv()
		require.NoError(t, err)

		assert.Equal(t, api.PROD, settings.Env)
		assert.Equal(t, "9000", settings.Port)
		assert.Equal(t, "Registrations", settings.DynamoTableName)
		assert.Equal(t, "s3cret", settings.EasebuzzSalt)
	})

	t.Run("unknown environment", func(t *testing.T) {
		t.Setenv("ENV", "STAGING")

		_, err := getSettingsFromEnv()
		assert.Error(t, err)
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("ENV", "LOCAL")
		t.Setenv("PORT", "http")

		_, err := getSettingsFromEnv()
		assert.Error(t, err)
	})

	t.Run("otlp endpoint must be a url", func(t *testing.T) {
		t.Setenv("ENV", "LOCAL")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

		_, err := getSettingsFromEnv()
		assert.Error(t, err)
	})

	t.Run("otlp endpoint url", func(t *testing.T) {
		t.Setenv("ENV", "LOCAL")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4317")

		settings, err := getSettingsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "http://collector:4317", settings.OTLPEndpoint)
	})

	t.Run("empty table name", func(t *testing.T) {
		t.Setenv("ENV", "LOCAL")
		t.Setenv("DYNAMO_TABLE_NAME", "")

		_, err := getSettingsFromEnv()
		assert.Error(t, err)
	})
}

type mockParameterGetter struct {
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func (m *mockParameterGetter) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return m.GetParameterFunc(ctx, params, optFns...)
}

func TestResolveEasebuzzSalt(t *testing.T) {
	ctx := context.Background()

	failIfCalled := &mockParameterGetter{
		GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
			t.Fatal("parameter store should not be called")
			return nil, nil
		},
	}

	t.Run("environment salt wins", func(t *testing.T) {
		salt, err := resolveEasebuzzSalt(ctx, failIfCalled, Settings{EasebuzzSalt: "env", EasebuzzSaltSSMParameter: "/salt"})
		require.NoError(t, err)
		assert.Equal(t, "env", salt)
	})

	t.Run("nothing configured", func(t *testing.T) {
		salt, err := resolveEasebuzzSalt(ctx, failIfCalled, Settings{})
		require.NoError(t, err)
		assert.Empty(t, salt)
	})

	t.Run("reads decrypted parameter", func(t *testing.T) {
		getter := &mockParameterGetter{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				assert.Equal(t, "/codebreakz/easebuzz-salt", aws.ToString(params.Name))
				assert.True(t, aws.ToBool(params.WithDecryption))
				return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String("fromssm")}}, nil
			},
		}

		salt, err := resolveEasebuzzSalt(ctx, getter, Settings{EasebuzzSaltSSMParameter: "/codebreakz/easebuzz-salt"})
		require.NoError(t, err)
		assert.Equal(t, "fromssm", salt)
	})

	t.Run("parameter store failure", func(t *testing.T) {
		getter := &mockParameterGetter{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, errors.New("access denied")
			},
		}

		_, err := resolveEasebuzzSalt(ctx, getter, Settings{EasebuzzSaltSSMParameter: "/salt"})
		assert.ErrorContains(t, err, "access denied")
	})
}

func TestSetupTracing(t *testing.T) {
	t.Run("disabled without an endpoint", func(t *testing.T) {
		shutdown, err := setupTracing(context.Background(), Settings{})
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("accepts an endpoint url", func(t *testing.T) {
		shutdown, err := setupTracing(context.Background(), Settings{OTLPEndpoint: "http://localhost:4317"})
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	})
}

func TestEnvironmentName(t *testing.T) {
	assert.Equal(t, "prod", environmentName(Settings{Env: api.PROD}))
	assert.Equal(t, "local", environmentName(Settings{Env: api.LOCAL}))
}
