package dynamo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	container "github.com/testcontainers/testcontainers-go/modules/dynamodb"
)

var dynamodbTestContainer *container.DynamoDBContainer
var dynamoClient *dynamodb.Client
var db *DB

const tableName = "HackathonRegistration-Test"

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	err := setupDynamo(ctx)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	code := m.Run()
	shutdownDynamo(context.Background())
	os.Exit(code)
}

// setupDynamo uses the dynamodb-local service from CI when TEST_IN_CI is set and
// starts a container otherwise.
func setupDynamo(ctx context.Context) error {
	endpoint := "localhost:8000"

	if _, ok := os.LookupEnv("TEST_IN_CI"); !ok {
		var err error
		dynamodbTestContainer, err = container.Run(ctx, "amazon/dynamodb-local")
		if err != nil {
			return fmt.Errorf("error starting dynamo testcontainer: %w", err)
		}

		endpoint, err = dynamodbTestContainer.Endpoint(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to get endpoint: %w", err)
		}
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("localhost"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
	)
	if err != nil {
		return fmt.Errorf("error making dynamo config: %w", err)
	}

	dynamoClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("http://%s", endpoint))
	})

	err = makeTable(ctx)
	if err != nil {
		return err
	}

	db = NewDB(dynamoClient, tableName)

	return nil
}

func stringAttribute(name string) types.AttributeDefinition {
	return types.AttributeDefinition{
		AttributeName: aws.String(name),
		AttributeType: types.ScalarAttributeTypeS,
	}
}

func keySchema(pk string, sk string) []types.KeySchemaElement {
	return []types.KeySchemaElement{
		{
			AttributeName: aws.String(pk),
			KeyType:       types.KeyTypeHash,
		},
		{
			AttributeName: aws.String(sk),
			KeyType:       types.KeyTypeRange,
		},
	}
}

func newestFirstIndex(name string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName: aws.String(name),
		KeySchema: keySchema(name+"PK", name+"SK"),
		Projection: &types.Projection{
			ProjectionType: types.ProjectionTypeAll,
		},
	}
}

func makeTable(ctx context.Context) error {
	_, err := dynamoClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			stringAttribute("PK"),
			stringAttribute("SK"),
			stringAttribute("GSI1PK"),
			stringAttribute("GSI1SK"),
			stringAttribute("GSI2PK"),
			stringAttribute("GSI2SK"),
		},
		KeySchema: keySchema("PK", "SK"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			newestFirstIndex(gsi1),
			newestFirstIndex(gsi2),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

func resetTable(ctx context.Context) {
	_, err := dynamoClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		fmt.Printf("failed to delete table: %s", err)
	}

	err = makeTable(ctx)
	if err != nil {
		fmt.Printf("failed to remake table: %s", err)
	}
}

func shutdownDynamo(ctx context.Context) {
	if dynamodbTestContainer == nil {
		return
	}

	err := dynamodbTestContainer.Terminate(ctx)
	if err != nil {
		fmt.Printf("error terminating dynamo testcontainer: %s\n", err)
	}
}
