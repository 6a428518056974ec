package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Dynamo persists job records in a single-table DynamoDB layout:
// PK "EPISODE#<id>", SK "METADATA", with GSI1 keyed on creation time
// for listing recent episodes.
type Dynamo struct {
	client *dynamodb.Client
	table  string
}

func NewDynamo(ctx context.Context, table string) (*Dynamo, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Dynamo{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

type episodeItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	GSI1PK    string `dynamodbav:"GSI1PK"`
	GSI1SK    string `dynamodbav:"GSI1SK"`
	EpisodeID string `dynamodbav:"episode_id"`
	GameID    int64  `dynamodbav:"game_id"`
	Title     string `dynamodbav:"title,omitempty"`
	Status    string `dynamodbav:"status"`
	Error     string `dynamodbav:"error,omitempty"`
	AudioURL  string `dynamodbav:"audio_url,omitempty"`
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func episodePK(id string) string { return "EPISODE#" + id }

func (d *Dynamo) Create(ctx context.Context, rec *Record) error {
	now := time.Now().UTC().Format(time.RFC3339)
	item := episodeItem{
		PK:        episodePK(rec.EpisodeID),
		SK:        "METADATA",
		GSI1PK:    "EPISODES",
		GSI1SK:    now,
		EpisodeID: rec.EpisodeID,
		GameID:    rec.GameID,
		Title:     rec.Title,
		Status:    string(rec.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal episode item: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("create episode %s: %w", rec.EpisodeID, err)
	}
	return nil
}

func (d *Dynamo) UpdateStatus(ctx context.Context, episodeID string, status Status) error {
	return d.updateItem(ctx, episodeID,
		"SET #s = :s, updated_at = :now",
		map[string]string{"#s": "status"},
		map[string]types.AttributeValue{
			":s":   &types.AttributeValueMemberS{Value: string(status)},
			":now": nowAttr(),
		})
}

func (d *Dynamo) Complete(ctx context.Context, episodeID, title, audioURL string) error {
	return d.updateItem(ctx, episodeID,
		"SET #s = :s, title = :t, audio_url = :u, updated_at = :now",
		map[string]string{"#s": "status"},
		map[string]types.AttributeValue{
			":s":   &types.AttributeValueMemberS{Value: string(StatusComplete)},
			":t":   &types.AttributeValueMemberS{Value: title},
			":u":   &types.AttributeValueMemberS{Value: audioURL},
			":now": nowAttr(),
		})
}

func (d *Dynamo) Fail(ctx context.Context, episodeID, reason string) error {
	return d.updateItem(ctx, episodeID,
		"SET #s = :s, #e = :e, updated_at = :now",
		map[string]string{"#s": "status", "#e": "error"},
		map[string]types.AttributeValue{
			":s":   &types.AttributeValueMemberS{Value: string(StatusFailed)},
			":e":   &types.AttributeValueMemberS{Value: reason},
			":now": nowAttr(),
		})
}

func (d *Dynamo) Get(ctx context.Context, episodeID string) (*Record, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &d.table,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: episodePK(episodeID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get episode %s: %w", episodeID, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	var item episodeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal episode %s: %w", episodeID, err)
	}
	return item.record()
}

// ListRecent returns up to limit episodes, newest first.
func (d *Dynamo) ListRecent(ctx context.Context, limit int32) ([]*Record, error) {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &d.table,
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "EPISODES"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	recs := make([]*Record, 0, len(out.Items))
	for _, raw := range out.Items {
		var item episodeItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal episode item: %w", err)
		}
		rec, err := item.record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (d *Dynamo) updateItem(ctx context.Context, episodeID, expr string, names map[string]string, values map[string]types.AttributeValue) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &d.table,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: episodePK(episodeID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("update episode %s: %w", episodeID, err)
	}
	return nil
}

func (i *episodeItem) record() (*Record, error) {
	created, err := time.Parse(time.RFC3339, i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at on %s: %w", i.EpisodeID, err)
	}
	updated, err := time.Parse(time.RFC3339, i.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("bad updated_at on %s: %w", i.EpisodeID, err)
	}
	return &Record{
		EpisodeID: i.EpisodeID,
		GameID:    i.GameID,
		Title:     i.Title,
		Status:    Status(i.Status),
		Error:     i.Error,
		AudioURL:  i.AudioURL,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func nowAttr() types.AttributeValue {
	return &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)}
}
