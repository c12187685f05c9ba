package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

// sortable, fixed-width timestamp for sort keys
const skTimeLayout = "2006-01-02T15:04:05.000000000Z"

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoDBItem represents an item stored in DynamoDB
type DynamoDBItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	Data        string `dynamodbav:"Data"`
	Timestamp   string `dynamodbav:"Timestamp"`
	RequestHash string `dynamodbav:"RequestHash,omitempty"`
	TTL         int64  `dynamodbav:"TTL,omitempty"`
}

// DynamoStore stores prediction results in a single DynamoDB table.
//
// Results live under PK=SUBJECT#<subject>, SK=PREDICTION#<time>#<id> so a
// subject's history is one descending Query. A result created with an
// idempotency key also writes a guard item PK=IDEMPOTENCY#<key>, SK=RESULT in
// the same transaction; the guard's existence condition makes the create
// at-most-once per key.
type DynamoStore struct {
	api       DynamoAPI
	tableName string
}

// NewDynamoStore creates a store over api.
func NewDynamoStore(api DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{api: api, tableName: tableName}
}

// NewDynamoStoreFromConfig creates a store with a client built from cfg.
func NewDynamoStoreFromConfig(cfg aws.Config, tableName string) *DynamoStore {
	return NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName)
}

func subjectPK(subjectID string) string { return "SUBJECT#" + subjectID }

func predictionSK(p *domain.PredictionResult) string {
	return fmt.Sprintf("PREDICTION#%s#%s", p.Timestamp.UTC().Format(skTimeLayout), p.ID)
}

func guardPK(key string) string { return "IDEMPOTENCY#" + key }

const guardSK = "RESULT"

func (s *DynamoStore) marshalItem(pk, sk string, p *domain.PredictionResult) (map[string]types.AttributeValue, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling prediction: %w", err)
	}
	item := DynamoDBItem{
		PK:          pk,
		SK:          sk,
		Data:        string(data),
		Timestamp:   p.Timestamp.UTC().Format(time.RFC3339),
		RequestHash: p.RequestHash,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("marshaling item: %w", err)
	}
	return av, nil
}

// Create stores p. A reused idempotency key yields prediction.ErrDuplicateKey.
func (s *DynamoStore) Create(ctx context.Context, p *domain.PredictionResult) error {
	item, err := s.marshalItem(subjectPK(p.SubjectID), predictionSK(p), p)
	if err != nil {
		return err
	}

	if p.IdempotencyKey == "" {
		_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return prediction.ErrDuplicateKey
			}
			return fmt.Errorf("putting item to DynamoDB: %w", err)
		}
		return nil
	}

	guard, err := s.marshalItem(guardPK(p.IdempotencyKey), guardSK, p)
	if err != nil {
		return err
	}
	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(s.tableName),
				Item:                guard,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      item,
			}},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && conditionFailed(canceled) {
			return prediction.ErrDuplicateKey
		}
		return fmt.Errorf("writing prediction transaction: %w", err)
	}
	return nil
}

func conditionFailed(e *types.TransactionCanceledException) bool {
	for _, r := range e.CancellationReasons {
		if aws.ToString(r.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

// GetByIdempotencyKey reads the guard item written with the result.
func (s *DynamoStore) GetByIdempotencyKey(ctx context.Context, key string) (*domain.PredictionResult, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: guardPK(key)},
			"SK": &types.AttributeValueMemberS{Value: guardSK},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting item from DynamoDB: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, prediction.ErrNotFound
	}
	return unmarshalPrediction(out.Item)
}

// ListBySubject returns up to limit results, newest first.
func (s *DynamoStore) ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.PredictionResult, error) {
	result, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: subjectPK(subjectID)},
			":prefix": &types.AttributeValueMemberS{Value: "PREDICTION#"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	out := make([]domain.PredictionResult, 0, len(result.Items))
	for _, item := range result.Items {
		p, err := unmarshalPrediction(item)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// Ping checks that the table is reachable.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	return err
}

func unmarshalPrediction(item map[string]types.AttributeValue) (*domain.PredictionResult, error) {
	var dbItem DynamoDBItem
	if err := attributevalue.UnmarshalMap(item, &dbItem); err != nil {
		return nil, fmt.Errorf("unmarshaling item: %w", err)
	}
	var p domain.PredictionResult
	if err := json.Unmarshal([]byte(dbItem.Data), &p); err != nil {
		return nil, fmt.Errorf("unmarshaling prediction: %w", err)
	}
	p.RequestHash = dbItem.RequestHash
	return &p, nil
}
