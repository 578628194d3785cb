package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	// BatchWriteItem accepts at most 25 put requests per call
	dynamoBatchSize    = 25
	dynamoBatchRetries = 3
)

// DynamoDBAPI interface for mocking
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoDBPickupStorage stores one item per pickup, keyed by its numeric id
type DynamoDBPickupStorage struct {
	client    DynamoDBAPI
	tableName string
}

func NewDynamoDBPickupStorage(client DynamoDBAPI, tableName string) *DynamoDBPickupStorage {
	return &DynamoDBPickupStorage{
		client:    client,
		tableName: tableName,
	}
}

func (d *DynamoDBPickupStorage) Load(ctx context.Context) ([]*Pickup, error) {
	var pickups []*Pickup
	var startKey map[string]types.AttributeValue

	for {
		result, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(d.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan pickups: %w", err)
		}

		for _, item := range result.Items {
			pickup, err := unmarshalPickup(item)
			if err != nil {
				return nil, err
			}
			pickups = append(pickups, pickup)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	sort.Slice(pickups, func(i, j int) bool {
		return pickups[i].ID > pickups[j].ID
	})

	if pickups == nil {
		pickups = []*Pickup{}
	}
	return pickups, nil
}

// Save upserts every pickup. Records are immutable, so items that already
// exist are rewritten with identical content.
func (d *DynamoDBPickupStorage) Save(ctx context.Context, pickups []*Pickup) error {
	for start := 0; start < len(pickups); start += dynamoBatchSize {
		end := start + dynamoBatchSize
		if end > len(pickups) {
			end = len(pickups)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, pickup := range pickups[start:end] {
			item, err := marshalPickup(pickup)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := d.writeBatch(ctx, requests); err != nil {
			return err
		}
	}

	return nil
}

func (d *DynamoDBPickupStorage) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{d.tableName: requests}

	for attempt := 0; attempt < dynamoBatchRetries; attempt++ {
		result, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("failed to batch write pickups: %w", err)
		}

		if len(result.UnprocessedItems[d.tableName]) == 0 {
			return nil
		}
		pending = result.UnprocessedItems
	}

	return fmt.Errorf("failed to batch write pickups: %d items unprocessed", len(pending[d.tableName]))
}

func (d *DynamoDBPickupStorage) Append(ctx context.Context, pickup *Pickup) error {
	item, err := marshalPickup(pickup)
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return fmt.Errorf("pickup %d already exists", pickup.ID)
		}
		return fmt.Errorf("failed to put pickup: %w", err)
	}

	return nil
}

// cost is stored as a DynamoDB number so exact decimal values survive
func marshalPickup(pickup *Pickup) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(pickup)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pickup: %w", err)
	}
	item["cost"] = &types.AttributeValueMemberN{Value: pickup.Cost.String()}
	return item, nil
}

func unmarshalPickup(item map[string]types.AttributeValue) (*Pickup, error) {
	var pickup Pickup
	if err := attributevalue.UnmarshalMap(item, &pickup); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pickup: %w", err)
	}

	if n, ok := item["cost"].(*types.AttributeValueMemberN); ok {
		cost, err := decimal.NewFromString(n.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cost of pickup %d: %w", pickup.ID, err)
		}
		pickup.Cost = cost
	}

	return &pickup, nil
}
