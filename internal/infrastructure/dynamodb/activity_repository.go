package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"kinship-backend/internal/domain/activity"
	"kinship-backend/internal/domain/shared"
	appErrors "kinship-backend/internal/errors"
)

// ddbActivity is an append-only activity item in the member's partition.
type ddbActivity struct {
	PK         string  `dynamodbav:"PK"` // MEMBER#{memberId}
	SK         string  `dynamodbav:"SK"` // ACT#{occurredAt}#{eventId}
	EventID    string  `dynamodbav:"EventID"`
	MemberID   string  `dynamodbav:"MemberID"`
	Kind       string  `dynamodbav:"Kind"`
	Weight     float64 `dynamodbav:"Weight"`
	OccurredAt string  `dynamodbav:"OccurredAt"`
	Verified   bool    `dynamodbav:"Verified"`
}

// ActivityRepository implements activity.Repository using DynamoDB.
type ActivityRepository struct {
	client    *dynamodb.Client
	tableName string
}

// NewActivityRepository creates an ActivityRepository instance.
func NewActivityRepository(client *dynamodb.Client, tableName string) *ActivityRepository {
	return &ActivityRepository{client: client, tableName: tableName}
}

func activitySK(occurredAt time.Time, eventID string) string {
	return fmt.Sprintf("ACT#%s#%s", occurredAt.UTC().Format(timeLayout), eventID)
}

// Append writes the event with a not-exists condition so a producer retrying
// the same event id is a no-op rather than a duplicate score input.
func (r *ActivityRepository) Append(ctx context.Context, event *activity.Event) error {
	item, err := attributevalue.MarshalMap(ddbActivity{
		PK:         memberPK(event.MemberID.String()),
		SK:         activitySK(event.OccurredAt, event.ID),
		EventID:    event.ID,
		MemberID:   event.MemberID.String(),
		Kind:       string(event.Kind),
		Weight:     event.Weight,
		OccurredAt: event.OccurredAt.UTC().Format(timeLayout),
		Verified:   event.Verified,
	})
	if err != nil {
		return appErrors.Wrap(err, "Append", "failed to marshal activity item")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil // already appended, retry is a no-op
		}
		return storeUnavailable("Append", err)
	}
	return nil
}

// FindByMember returns the member's events, newest first.
func (r *ActivityRepository) FindByMember(ctx context.Context, memberID shared.MemberID) ([]*activity.Event, error) {
	items, err := r.queryActivity(ctx, memberID)
	if err != nil {
		return nil, err
	}

	events := make([]*activity.Event, 0, len(items))
	for _, item := range items {
		event, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Summarize folds the member's events into trust-score inputs. The fold
// happens client-side; the partition holds one member's history, which is
// bounded by how much one person can do.
func (r *ActivityRepository) Summarize(ctx context.Context, memberID shared.MemberID) (activity.Summary, error) {
	items, err := r.queryActivity(ctx, memberID)
	if err != nil {
		return activity.Summary{}, err
	}

	var summary activity.Summary
	for _, item := range items {
		switch activity.Kind(item.Kind) {
		case activity.KindGroupJoined:
			summary.GroupCount++
		case activity.KindCampaignJoined:
			summary.CampaignCount++
		default:
			summary.WeightSum += item.Weight
		}
	}
	return summary, nil
}

func (r *ActivityRepository) queryActivity(ctx context.Context, memberID shared.MemberID) ([]ddbActivity, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(memberPK(memberID.String()))).
		And(expression.Key("SK").BeginsWith("ACT#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "queryActivity", "failed to build query expression")
	}

	var items []ddbActivity
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, storeUnavailable("queryActivity", err)
		}
		var page []ddbActivity
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, appErrors.Wrap(err, "queryActivity", "failed to unmarshal activity items")
		}
		items = append(items, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (i ddbActivity) toDomain() (*activity.Event, error) {
	memberID, err := shared.ParseMemberID(i.MemberID)
	if err != nil {
		return nil, err
	}
	occurredAt, err := time.Parse(timeLayout, i.OccurredAt)
	if err != nil {
		return nil, appErrors.Internal(appErrors.CodeInternalError.String(), "corrupt OccurredAt on activity item").WithCause(err).Build()
	}
	return activity.NewEvent(i.EventID, memberID, activity.Kind(i.Kind), i.Weight, occurredAt, i.Verified)
}
