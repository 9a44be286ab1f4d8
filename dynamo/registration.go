package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/codebreakz/hackathon-registration/registration"
)

var _ registration.Repository = &DB{}

type registrationDynamo struct {
	PK string
	SK string

	// Sparse indexes, a registration without a mobile is not in GSI2
	GSI1PK string `dynamodbav:",omitempty"`
	GSI1SK string `dynamodbav:",omitempty"`
	GSI2PK string `dynamodbav:",omitempty"`
	GSI2SK string `dynamodbav:",omitempty"`

	RegistrationID    string
	FullName          string
	Email             string
	Mobile            string
	College           string
	TeamName          string
	ParticipationType registration.ParticipationType
	PaymentStatus     registration.PaymentStatus
	PaymentAmount     int64
	PaymentCurrency   string
	EasebuzzID        string
	TransactionID     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const (
	registrationEntityName = "REGISTRATION"
	emailEntityName        = "EMAIL"
	mobileEntityName       = "MOBILE"

	// Fixed width so the index sort keys order chronologically as strings
	sortableTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

func registrationPK(id string) string {
	return fmt.Sprintf("%s#%s", registrationEntityName, id)
}

func registrationSK(id string) string {
	return fmt.Sprintf("%s#%s", registrationEntityName, id)
}

func registrationKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: registrationPK(id)},
		"SK": &types.AttributeValueMemberS{Value: registrationSK(id)},
	}
}

func emailGSIPK(email string) string {
	return fmt.Sprintf("%s#%s", emailEntityName, email)
}

func mobileGSIPK(mobile string) string {
	return fmt.Sprintf("%s#%s", mobileEntityName, mobile)
}

func createdAtGSISK(createdAt time.Time, id string) string {
	return fmt.Sprintf("%s#%s#%s", registrationEntityName, createdAt.UTC().Format(sortableTimeLayout), id)
}

func registrationToDynamo(reg registration.Registration) registrationDynamo {
	dynReg := registrationDynamo{
		PK:                registrationPK(reg.RegistrationID),
		SK:                registrationSK(reg.RegistrationID),
		RegistrationID:    reg.RegistrationID,
		FullName:          reg.FullName,
		Email:             reg.Email,
		Mobile:            reg.Mobile,
		College:           reg.College,
		TeamName:          reg.TeamName,
		ParticipationType: reg.ParticipationType,
		PaymentStatus:     reg.PaymentStatus,
		EasebuzzID:        reg.EasebuzzID,
		TransactionID:     reg.TransactionID,
		CreatedAt:         reg.CreatedAt,
		UpdatedAt:         reg.UpdatedAt,
	}

	if reg.Email != "" {
		dynReg.GSI1PK = emailGSIPK(reg.Email)
		dynReg.GSI1SK = createdAtGSISK(reg.CreatedAt, reg.RegistrationID)
	}
	if reg.Mobile != "" {
		dynReg.GSI2PK = mobileGSIPK(reg.Mobile)
		dynReg.GSI2SK = createdAtGSISK(reg.CreatedAt, reg.RegistrationID)
	}
	if reg.PaymentAmount != nil {
		dynReg.PaymentAmount = reg.PaymentAmount.Amount()
		dynReg.PaymentCurrency = reg.PaymentAmount.Currency().Code
	}

	return dynReg
}

func dynamoToRegistration(dynReg registrationDynamo) registration.Registration {
	reg := registration.Registration{
		RegistrationID:    dynReg.RegistrationID,
		FullName:          dynReg.FullName,
		Email:             dynReg.Email,
		Mobile:            dynReg.Mobile,
		College:           dynReg.College,
		TeamName:          dynReg.TeamName,
		ParticipationType: dynReg.ParticipationType,
		PaymentStatus:     dynReg.PaymentStatus,
		EasebuzzID:        dynReg.EasebuzzID,
		TransactionID:     dynReg.TransactionID,
		CreatedAt:         dynReg.CreatedAt,
		UpdatedAt:         dynReg.UpdatedAt,
	}

	if dynReg.PaymentCurrency != "" {
		reg.PaymentAmount = money.New(dynReg.PaymentAmount, dynReg.PaymentCurrency)
	}

	return reg
}

func (d *DB) CreateRegistration(ctx context.Context, reg registration.Registration) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	item, err := attributevalue.MarshalMap(registrationToDynamo(reg))
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate registration to dynamo model", err)
	}
	expr := exprMustBuild(expression.NewBuilder().WithCondition(newEntityConditional()))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return registration.NewRegistrationAlreadyExistsError(fmt.Sprintf("Registration with ID %q already exists", reg.RegistrationID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("CreateRegistration timed out")
		} else {
			return registration.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}

func (d *DB) GetRegistration(ctx context.Context, registrationID string) (registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       registrationKey(registrationID),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, registration.NewTimeoutError("GetRegistration timed out")
		}
		return registration.Registration{}, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registration with id %q", registrationID), err)
	}

	if len(resp.Item) == 0 {
		return registration.Registration{}, registration.NewRegistrationDoesNotExistsError(fmt.Sprintf("Registration with id %q not found", registrationID), nil)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return dynamoToRegistration(dynReg), nil
}

func (d *DB) UpdatePaymentByRegistrationID(ctx context.Context, registrationID string, update registration.PaymentUpdate) (registration.PaymentChange, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	return d.updatePayment(ctx, registrationID, existingEntityConditional(), update)
}

func (d *DB) UpdatePendingPaymentByEmail(ctx context.Context, email string, update registration.PaymentUpdate) (registration.PaymentChange, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	id, err := d.newestPendingRegistrationID(ctx, gsi1, emailGSIPK(email))
	if err != nil {
		return registration.PaymentChange{}, err
	}

	return d.updatePayment(ctx, id, existingPendingConditional(), update)
}

func (d *DB) UpdatePendingPaymentByMobile(ctx context.Context, mobile string, update registration.PaymentUpdate) (registration.PaymentChange, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	id, err := d.newestPendingRegistrationID(ctx, gsi2, mobileGSIPK(mobile))
	if err != nil {
		return registration.PaymentChange{}, err
	}

	return d.updatePayment(ctx, id, existingPendingConditional(), update)
}

// The pending check is repeated on the write so a registration settled between
// the query and the update is treated as not found.
func existingPendingConditional() expression.ConditionBuilder {
	return existingEntityConditional().
		And(expression.Name("PaymentStatus").Equal(expression.Value(registration.PAYMENT_PENDING)))
}

func (d *DB) newestPendingRegistrationID(ctx context.Context, index string, pk string) (string, error) {
	keyCond := expression.Key(index + "PK").Equal(expression.Value(pk))
	filter := expression.Name("PaymentStatus").Equal(expression.Value(registration.PAYMENT_PENDING))

	expr := exprMustBuild(expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter))

	// Filters apply after the page is read, so page until a pending item shows up
	// rather than limiting the query to one item.
	paginator := dynamodb.NewQueryPaginator(d.dynamoClient, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", registration.NewTimeoutError("Pending registration query timed out")
			}
			return "", registration.NewFailedToFetchError(fmt.Sprintf("Failed to query %s for pending registrations", index), err)
		}

		if len(page.Items) == 0 {
			continue
		}

		var dynReg registrationDynamo
		err = attributevalue.UnmarshalMap(page.Items[0], &dynReg)
		if err != nil {
			panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
		}
		return dynReg.RegistrationID, nil
	}

	return "", registration.NewRegistrationDoesNotExistsError(fmt.Sprintf("No pending registration found in %s", index), nil)
}

// updatePayment reads back the item as it was before the write. The update only
// sets payment fields, so the new registration is the old one with update applied.
func (d *DB) updatePayment(ctx context.Context, registrationID string, cond expression.ConditionBuilder, update registration.PaymentUpdate) (registration.PaymentChange, error) {
	updateExpr := expression.Set(expression.Name("PaymentStatus"), expression.Value(update.PaymentStatus)).
		Set(expression.Name("EasebuzzID"), expression.Value(update.EasebuzzID)).
		Set(expression.Name("TransactionID"), expression.Value(update.TransactionID)).
		Set(expression.Name("UpdatedAt"), expression.Value(update.UpdatedAt))

	expr := exprMustBuild(expression.NewBuilder().WithCondition(cond).WithUpdate(updateExpr))

	resp, err := d.dynamoClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       registrationKey(registrationID),
		ConditionExpression:       expr.Condition(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllOld,
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return registration.PaymentChange{}, registration.NewRegistrationDoesNotExistsError(fmt.Sprintf("Registration with id %q not found", registrationID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return registration.PaymentChange{}, registration.NewTimeoutError("UpdatePayment timed out")
		} else {
			return registration.PaymentChange{}, registration.NewFailedToWriteError("Failed UpdateItem call", err)
		}
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Attributes, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	previous := dynamoToRegistration(dynReg)
	return registration.PaymentChange{
		Registration:   previous.WithPaymentUpdate(update),
		PreviousStatus: previous.PaymentStatus,
	}, nil
}
