package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

type parameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// resolveEasebuzzSalt prefers the salt from the environment and otherwise reads
// it from SSM Parameter Store.
func resolveEasebuzzSalt(ctx context.Context, params parameterGetter, settings Settings) (string, error) {
	if settings.EasebuzzSalt != "" || settings.EasebuzzSaltSSMParameter == "" {
		return settings.EasebuzzSalt, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := params.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(settings.EasebuzzSaltSSMParameter),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get easebuzz salt from parameter %q: %w", settings.EasebuzzSaltSSMParameter, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("parameter %q has no value", settings.EasebuzzSaltSSMParameter)
	}

	return aws.ToString(out.Parameter.Value), nil
}
