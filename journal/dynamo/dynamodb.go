package dynamo

import (
	"context"
	"errors"
	"strings"

	"github.com/avast/retry-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/weegigs/wee-counter-go/journal"
	"github.com/weegigs/wee-counter-go/we"
)

const tracerName = "wee-counter/journal/dynamo"

type TableName string

func (name TableName) String() string {
	return string(name)
}

type Journal struct {
	db    *dynamodb.Client
	table TableName
}

func NewJournal(db *dynamodb.Client, table TableName) *Journal {
	return &Journal{db: db, table: table}
}

var _ journal.Journal = (*Journal)(nil)

func (j *Journal) Load(ctx context.Context, store we.StoreName) (journal.Log, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "load journal")
	defer span.End()

	entries, err := j.read(ctx, store)
	if err != nil {
		span.RecordError(err)
		return journal.Log{}, err
	}

	return journal.Log{
		Store:    store,
		Entries:  entries,
		Revision: journal.RevisionOf(entries),
	}, nil
}

func (j *Journal) Append(ctx context.Context, store we.StoreName, options journal.AppendOptions, entries ...journal.Entry) (we.Revision, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "append journal")
	defer span.End()

	revision, err := j.append(ctx, store, options, entries)
	if err != nil {
		span.RecordError(err)
	}

	return revision, err
}

func (j *Journal) Remove(ctx context.Context, store we.StoreName) (int, error) {
	return j.remove(ctx, store)
}

// internal

type changeSet struct {
	PartitionKey string          `dynamodbav:"pk"`
	SortKey      string          `dynamodbav:"sk"`
	Entries      []journal.Entry `dynamodbav:"entries"`
	Revision     we.Revision     `dynamodbav:"revision"`
	Timestamp    we.Timestamp    `dynamodbav:"timestamp"`
}

type latestRecord struct {
	PartitionKey string       `dynamodbav:"pk"`
	SortKey      string       `dynamodbav:"sk"`
	Revision     we.Revision  `dynamodbav:"revision"`
	Timestamp    we.Timestamp `dynamodbav:"timestamp"`
}

const (
	changeSetPrefix = "change-set#"
	latestSortKey   = "latest-revision"
)

func partitionKey(store we.StoreName) string {
	return strings.Join([]string{"journal", store.String()}, ".")
}

func sortKey(revision we.Revision) string {
	return strings.Join([]string{changeSetPrefix, revision.String()}, "")
}

func latestFor(record *changeSet) *latestRecord {
	return &latestRecord{
		PartitionKey: record.PartitionKey,
		SortKey:      latestSortKey,
		Revision:     record.Revision,
		Timestamp:    record.Timestamp,
	}
}

func (j *Journal) read(ctx context.Context, store we.StoreName) ([]journal.Entry, error) {
	query := expression.Key("pk").Equal(expression.Value(partitionKey(store))).And(
		expression.Key("sk").BeginsWith(changeSetPrefix),
	)

	projection := expression.NamesList(expression.Name("entries"))

	builder := expression.NewBuilder().WithKeyCondition(query).WithProjection(projection)
	expr, err := builder.Build()
	if err != nil {
		return nil, err
	}

	var entries []journal.Entry
	var start map[string]types.AttributeValue
	for {
		query := &dynamodb.QueryInput{
			TableName:                 aws.String(j.table.String()),
			ExclusiveStartKey:         start,
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
		}

		out, err := j.db.Query(ctx, query)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to query change sets")
		}

		var items []changeSet
		err = attributevalue.UnmarshalListOfMaps(out.Items, &items)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to unmarshal change sets")
		}

		for _, record := range items {
			entries = append(entries, record.Entries...)
		}

		start = out.LastEvaluatedKey
		if start == nil {
			break
		}
	}

	return entries, nil
}

// latestCondition guards the latest-revision record: an explicit expectation must match it
// exactly, otherwise the first entry of the change set has to be newer than it.
func latestCondition(first *we.Revision, expectedRevision we.Revision) expression.ConditionBuilder {
	if len(expectedRevision) == 0 {
		return expression.Name("revision").LessThan(expression.Value(first)).Or(
			expression.AttributeNotExists(expression.Name("revision")),
		)
	}

	if expectedRevision == we.InitialRevision {
		return expression.AttributeNotExists(expression.Name("revision"))
	}

	return expression.Name("revision").Equal(expression.Value(expectedRevision))
}

func latestConditionExpression(first *we.Revision, expectedRevision we.Revision) (expression.Expression, error) {
	return expression.NewBuilder().WithCondition(latestCondition(first, expectedRevision)).Build()
}

func isRevisionConflict(err error) bool {
	return errors.Is(err, we.RevisionConflict)
}

func maybeRevisionConflict(err error) error {
	var oe *smithy.OperationError
	if errors.As(err, &oe) {
		var re *http.ResponseError
		if errors.As(oe.Unwrap(), &re) {
			var tc *types.TransactionCanceledException
			if errors.As(re.Unwrap(), &tc) {
				for _, reason := range tc.CancellationReasons {
					if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
						return we.RevisionConflict
					}
				}
			}
		}
	}

	return err
}

func makeChangeSet(store we.StoreName, entries []journal.Entry) *changeSet {
	last := entries[len(entries)-1]

	return &changeSet{
		PartitionKey: partitionKey(store),
		SortKey:      sortKey(last.Revision),
		Entries:      entries,
		Timestamp:    last.Timestamp,
		Revision:     last.Revision,
	}
}

func (j *Journal) append(ctx context.Context, store we.StoreName, options journal.AppendOptions, entries []journal.Entry) (we.Revision, error) {
	if len(entries) == 0 {
		return "", journal.ErrNoEntries
	}

	// entries inside one change set must already be ordered; the condition below only sees the last
	if !journal.Accepts(we.InitialRevision, journal.AppendOptions{}, entries) {
		return "", we.RevisionConflict
	}

	changes := makeChangeSet(store, entries)

	latest, err := attributevalue.MarshalMap(latestFor(changes))
	if err != nil {
		return "", err
	}

	record, err := attributevalue.MarshalMap(changes)
	if err != nil {
		return "", err
	}

	condition, err := latestConditionExpression(&entries[0].Revision, options.ExpectedRevision)
	if err != nil {
		return "", err
	}

	write := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					Item:                                latest,
					TableName:                           aws.String(j.table.String()),
					ConditionExpression:                 condition.Condition(),
					ExpressionAttributeNames:            condition.Names(),
					ExpressionAttributeValues:           condition.Values(),
					ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureNone,
				},
			},
			{
				Put: &types.Put{
					Item:      record,
					TableName: aws.String(j.table.String()),
				},
			},
		},
	}

	err = retry.Do(
		func() error {
			_, err := j.db.TransactWriteItems(ctx, write)
			return maybeRevisionConflict(err)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.RetryIf(
			func(err error) bool {
				// a conflict means a newer change set is already recorded; writing again cannot help
				return !isRevisionConflict(err)
			},
		),
		retry.LastErrorOnly(true),
	)

	if err != nil {
		return "", err
	}

	return changes.Revision, nil
}

func (j *Journal) remove(ctx context.Context, store we.StoreName) (int, error) {
	type record struct {
		PartitionKey string `dynamodbav:"pk"`
		SortKey      string `dynamodbav:"sk"`
	}

	query := expression.Key("pk").Equal(expression.Value(partitionKey(store)))
	projection := expression.NamesList(expression.Name("pk"), expression.Name("sk"))

	builder := expression.NewBuilder().WithKeyCondition(query).WithProjection(projection)
	expr, err := builder.Build()
	if err != nil {
		return 0, err
	}

	var count int
	var start map[string]types.AttributeValue
	for {
		query := &dynamodb.QueryInput{
			TableName:                 aws.String(j.table.String()),
			ExclusiveStartKey:         start,
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			Limit:                     aws.Int32(25),
		}

		out, err := j.db.Query(ctx, query)
		if err != nil {
			return count, err
		}

		if len(out.Items) > 0 {
			var items []record
			err = attributevalue.UnmarshalListOfMaps(out.Items, &items)
			if err != nil {
				return count, err
			}

			var actions []types.TransactWriteItem
			for _, record := range items {
				key, err := attributevalue.MarshalMap(record)
				if err != nil {
					return count, err
				}

				actions = append(
					actions, types.TransactWriteItem{
						Delete: &types.Delete{
							Key:       key,
							TableName: aws.String(j.table.String()),
						},
					},
				)
			}

			_, err = j.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: actions})
			if err != nil {
				return count, err
			}

			count += len(items)
		}

		start = out.LastEvaluatedKey
		if start == nil {
			break
		}
	}

	return count, nil
}
