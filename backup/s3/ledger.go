package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/olovm/cora-diskstorage/backup"
)

// ErrConcurrentRun is returned when another process recorded the same run
// number first.
var ErrConcurrentRun = errors.New("s3: concurrent backup run recorded")

// DDBClient is the subset of the DynamoDB API the ledger uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Run is one recorded backup.
type Run struct {
	Version  uint64
	Uploaded int
	Pruned   int
	Bytes    int64
	At       time.Time
}

// Ledger records completed backup runs in a DynamoDB table keyed by
// base_uri (string) and version (number).
//
//	aws dynamodb create-table \
//	  --table-name diskstorage-backups \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Ledger struct {
	client  DDBClient
	table   string
	baseURI string
}

// NewLedger creates a ledger for the backups stored at baseURI, usually
// "s3://bucket/prefix".
func NewLedger(client DDBClient, table, baseURI string) *Ledger {
	return &Ledger{client: client, table: table, baseURI: baseURI}
}

// NewLedgerFromConfig creates a ledger with a DynamoDB client built from
// the default AWS configuration.
func NewLedgerFromConfig(ctx context.Context, region, table, baseURI string) (*Ledger, error) {
	awsCfg, err := loadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return NewLedger(dynamodb.NewFromConfig(awsCfg), table, baseURI), nil
}

// Latest returns the most recent run. ok is false if none was recorded.
func (l *Ledger) Latest(ctx context.Context) (run Run, ok bool, err error) {
	resp, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.table),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: l.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return Run{}, false, fmt.Errorf("s3: query ledger: %w", err)
	}
	if len(resp.Items) == 0 {
		return Run{}, false, nil
	}
	run, err = decodeRun(resp.Items[0])
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// Record stores res as the next run and returns its version.
func (l *Ledger) Record(ctx context.Context, res backup.Result, at time.Time) (uint64, error) {
	latest, _, err := l.Latest(ctx)
	if err != nil {
		return 0, err
	}
	version := latest.Version + 1

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: l.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"uploaded": &types.AttributeValueMemberN{Value: strconv.Itoa(res.Uploaded)},
			"pruned":   &types.AttributeValueMemberN{Value: strconv.Itoa(res.Pruned)},
			"bytes":    &types.AttributeValueMemberN{Value: strconv.FormatInt(res.Bytes, 10)},
			"at":       &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentRun
		}
		return 0, fmt.Errorf("s3: record run: %w", err)
	}
	return version, nil
}

func decodeRun(item map[string]types.AttributeValue) (Run, error) {
	var run Run
	var err error
	number := func(name string) int64 {
		attr, ok := item[name].(*types.AttributeValueMemberN)
		if !ok {
			err = errors.Join(err, fmt.Errorf("s3: ledger item without %s", name))
			return 0
		}
		n, perr := strconv.ParseInt(attr.Value, 10, 64)
		if perr != nil {
			err = errors.Join(err, fmt.Errorf("s3: ledger %s: %w", name, perr))
		}
		return n
	}
	run.Version = uint64(number("version"))
	run.Uploaded = int(number("uploaded"))
	run.Pruned = int(number("pruned"))
	run.Bytes = number("bytes")
	if at, ok := item["at"].(*types.AttributeValueMemberS); ok {
		t, perr := time.Parse(time.RFC3339Nano, at.Value)
		if perr != nil {
			err = errors.Join(err, fmt.Errorf("s3: ledger at: %w", perr))
		}
		run.At = t
	}
	return run, err
}
