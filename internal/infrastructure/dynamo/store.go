package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-api-flatfile/internal/domain"
)

// Attribute names of the documents table.
const (
	attrCollection = "collection"
	attrKey        = "doc_key"
	attrBody       = "body"
)

// api is the subset of *dynamodb.Client used by Store.
type api interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store keeps every collection in a single table partitioned by collection
// name and sorted by document key.
type Store struct {
	client    api
	tableName string
}

func NewStore(client api, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

func (s *Store) put(ctx context.Context, collection, key string, doc any, cond string) error {
	if err := validate(collection, key); err != nil {
		return err
	}
	body, err := marshalBody(doc)
	if err != nil {
		return err
	}
	item := compositeKey(attrCollection, collection, attrKey, key)
	item[attrBody] = body
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      aws.String(cond),
		ExpressionAttributeNames: map[string]string{"#k": attrKey},
	})
	return err
}

// Create stores doc only if collection/key is absent.
func (s *Store) Create(ctx context.Context, collection, key string, doc any) error {
	err := s.put(ctx, collection, key, doc, "attribute_not_exists(#k)")
	switch {
	case err == nil:
		return nil
	case isConditionFailed(err):
		return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrAlreadyExists)
	default:
		return wrapStorage("create", collection, key, err)
	}
}

// Update replaces doc only if collection/key is present.
func (s *Store) Update(ctx context.Context, collection, key string, doc any) error {
	err := s.put(ctx, collection, key, doc, "attribute_exists(#k)")
	switch {
	case err == nil:
		return nil
	case isConditionFailed(err):
		return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrNotFound)
	default:
		return wrapStorage("update", collection, key, err)
	}
}

func (s *Store) Read(ctx context.Context, collection, key string, out any) error {
	if err := validate(collection, key); err != nil {
		return err
	}
	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            compositeKey(attrCollection, collection, attrKey, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return wrapStorage("read", collection, key, err)
	}
	if res.Item == nil {
		return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrNotFound)
	}
	if err := unmarshalBody(res.Item[attrBody], out); err != nil {
		return fmt.Errorf("%s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if err := validate(collection, key); err != nil {
		return err
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      compositeKey(attrCollection, collection, attrKey, key),
		ConditionExpression:      aws.String("attribute_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": attrKey},
	})
	switch {
	case err == nil:
		return nil
	case isConditionFailed(err):
		return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrNotFound)
	default:
		return wrapStorage("delete", collection, key, err)
	}
}

// List pages through the collection partition and returns its keys in order.
func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := domain.ValidateName(collection); err != nil {
		return nil, err
	}
	p := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                aws.String(s.tableName),
		KeyConditionExpression:   aws.String("#c = :c"),
		ProjectionExpression:     aws.String("#k"),
		ExpressionAttributeNames: map[string]string{"#c": attrCollection, "#k": attrKey},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: collection},
		},
	})
	keys := []string{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %w", domain.ErrStorage, collection, err)
		}
		for _, item := range page.Items {
			if k, ok := item[attrKey].(*types.AttributeValueMemberS); ok {
				keys = append(keys, k.Value)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func validate(collection, key string) error {
	if err := domain.ValidateName(collection); err != nil {
		return err
	}
	return domain.ValidateName(key)
}

func wrapStorage(op, collection, key string, err error) error {
	return fmt.Errorf("%w: %s %s/%s: %w", domain.ErrStorage, op, collection, key, err)
}
