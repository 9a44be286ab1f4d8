package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	// Registrations by email, newest first
	gsi1 = "GSI1"
	// Registrations by mobile, newest first
	gsi2 = "GSI2"
)

type DB struct {
	dynamoClient *dynamodb.Client
	tableName    string
}

func NewDB(dynamoClient *dynamodb.Client, tableName string) *DB {
	return &DB{
		dynamoClient: dynamoClient,
		tableName:    tableName,
	}
}

func newEntityConditional() expression.ConditionBuilder {
	return expression.Name("PK").AttributeNotExists()
}

func existingEntityConditional() expression.ConditionBuilder {
	return expression.Name("PK").AttributeExists()
}

func exprMustBuild(builder expression.Builder) expression.Expression {
	expr, err := builder.Build()
	if err != nil {
		panic("failed to build dynamo expression")
	}

	return expr
}
