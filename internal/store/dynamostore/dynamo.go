// Package dynamostore implements a DynamoDB adapter.
//
// The table is keyed by keyFingerprint alone. expiryEpochSeconds doubles as
// the table's TTL attribute, so DynamoDB reaps dead rows on its own schedule;
// freshness is still checked here because that sweep lags the logical expiry
// by design. Mutating conditionals use condition expressions so each call is
// one atomic round trip.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hoardkv/hoard/internal/store"
)

// Compile-time check that Store implements store.Adapter.
var _ store.Adapter = (*Store)(nil)

// DefaultTable is the table name used when none is configured.
const DefaultTable = "hoard-entries"

// Store is a DynamoDB-backed adapter.
type Store struct {
	client *dynamodb.Client
	table  string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithTable sets the table name. Default is "hoard-entries".
func WithTable(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return fmt.Errorf("dynamostore: empty table name")
		}
		s.table = name
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		s.client = dynamodb.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for DynamoDB Local).
func WithEndpoint(endpoint string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		s.client = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
		return nil
	}
}

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		s.now = now
		return nil
	}
}

// New creates a DynamoDB adapter. The table must already exist, with
// keyFingerprint as its partition key and expiryEpochSeconds enabled as the
// TTL attribute.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s := &Store{
		client: dynamodb.NewFromConfig(cfg),
		table:  DefaultTable,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Table returns the configured table name.
func (s *Store) Table() string {
	return s.table
}

// entryKey builds the primary key attribute map.
func entryKey(keyFingerprint string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"keyFingerprint": &types.AttributeValueMemberS{Value: keyFingerprint},
	}
}

// getEntry fetches and unmarshals the full item.
func (s *Store) getEntry(ctx context.Context, keyFingerprint string) (store.Entry, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       entryKey(keyFingerprint),
	})
	if err != nil {
		return store.Entry{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if out.Item == nil {
		return store.Entry{}, store.ErrNotFound
	}

	var e store.Entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return store.Entry{}, fmt.Errorf("%w: unmarshaling entry: %v", store.ErrUnavailable, err)
	}
	return e, nil
}

// FetchFresh returns the value projection if the entry is unexpired and
// recent enough. The read itself carries no condition; both filters are
// read-only and evaluated here.
func (s *Store) FetchFresh(ctx context.Context, keyFingerprint string, minUpdatedAtMillis int64) (store.Fresh, error) {
	e, err := s.getEntry(ctx, keyFingerprint)
	if err != nil {
		return store.Fresh{}, err
	}
	if e.ExpiryEpochSeconds <= s.now().Unix() || e.UpdatedAtMillis <= minUpdatedAtMillis {
		return store.Fresh{}, store.ErrNotFound
	}
	return store.Fresh{
		SerializedValue:    e.SerializedValue,
		ExpiryEpochSeconds: e.ExpiryEpochSeconds,
	}, nil
}

// BumpDownloadCounter increments downloadCount on an existing item.
func (s *Store) BumpDownloadCounter(ctx context.Context, keyFingerprint string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name("downloadCount"), expression.Value(1))).
		WithCondition(expression.AttributeExists(expression.Name("keyFingerprint"))).
		Build()
	if err != nil {
		return fmt.Errorf("building update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       entryKey(keyFingerprint),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// FetchIfValueMatches returns expiry and TTL if the stored value fingerprint
// matches an unexpired item.
func (s *Store) FetchIfValueMatches(ctx context.Context, keyFingerprint, valueFingerprint string) (store.Match, error) {
	e, err := s.getEntry(ctx, keyFingerprint)
	if err != nil {
		return store.Match{}, err
	}
	if e.ExpiryEpochSeconds <= s.now().Unix() || e.ValueFingerprint != valueFingerprint {
		return store.Match{}, store.ErrNotFound
	}
	return store.Match{
		ExpiryEpochSeconds: e.ExpiryEpochSeconds,
		TTLSeconds:         e.TTLSeconds,
	}, nil
}

// ExtendMatchingEntry bumps the redundancy counter and advances update and
// expiry instants in one conditional update, returning the applied expiry.
func (s *Store) ExtendMatchingEntry(ctx context.Context, keyFingerprint string, newExpiryEpochSeconds, nowMillis int64) (int64, error) {
	update := expression.
		Set(expression.Name("updatedAtMillis"), expression.Value(nowMillis)).
		Set(expression.Name("expiryEpochSeconds"), expression.Value(newExpiryEpochSeconds)).
		Add(expression.Name("redundancyCount"), expression.Value(1))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("keyFingerprint"))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("building update expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       entryKey(keyFingerprint),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, store.ErrNotFound
		}
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	var applied struct {
		ExpiryEpochSeconds int64 `dynamodbav:"expiryEpochSeconds"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &applied); err != nil {
		return 0, fmt.Errorf("%w: unmarshaling applied expiry: %v", store.ErrUnavailable, err)
	}
	return applied.ExpiryEpochSeconds, nil
}

// WriteEntry unconditionally upserts the full item.
func (s *Store) WriteEntry(ctx context.Context, e store.Entry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// DeleteEntry removes the item if present.
func (s *Store) DeleteEntry(ctx context.Context, keyFingerprint string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       entryKey(keyFingerprint),
	}); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op; the DynamoDB client holds no connections to release.
func (s *Store) Close() error {
	return nil
}
