package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

// LocalJournal connects to a dynamodb-local instance at endpoint and creates the journal
// table when it is missing.
func LocalJournal(ctx context.Context, endpoint string, table TableName) (*Journal, error) {
	cfg, err := EndpointConfig(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	client := Client(cfg)
	if err := EnsureTable(ctx, client, table); err != nil {
		return nil, err
	}

	return NewJournal(client, table), nil
}

func EnsureTable(ctx context.Context, client *dynamodb.Client, table TableName) error {
	exists, err := tableExists(ctx, client, table)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return createTable(ctx, client, table)
}

func tableExists(ctx context.Context, client *dynamodb.Client, name TableName) (bool, error) {
	required := &dynamodb.DescribeTableInput{TableName: aws.String(name.String())}
	description, err := client.DescribeTable(ctx, required)
	if err != nil {
		var errorType *types.ResourceNotFoundException
		if errors.As(err, &errorType) {
			return false, nil
		}
		return false, err
	}

	if description.Table.TableStatus != types.TableStatusActive {
		return false, errors.New("journal table exists but is not active")
	}

	return true, nil
}

func createTable(ctx context.Context, client *dynamodb.Client, table TableName) error {
	log.WithField("table", table.String()).Info("creating journal table")

	_, err := client.CreateTable(ctx, tableDefinition(table))
	if err != nil {
		return err
	}

	return waitForTable(ctx, client, table)
}

func tableDefinition(table TableName) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(table.String()),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}

func waitForTable(ctx context.Context, client *dynamodb.Client, name TableName) error {
	required := &dynamodb.DescribeTableInput{TableName: aws.String(name.String())}
	return dynamodb.NewTableExistsWaiter(client).Wait(ctx, required, 2*time.Minute)
}
