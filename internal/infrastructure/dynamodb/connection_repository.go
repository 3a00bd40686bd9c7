// Package dynamodb implements the persistence ports against DynamoDB using
// a single-table design. The ledger's two correctness rules live here as
// condition expressions: pair uniqueness on create and pending-only on
// resolve. Client processes are not co-located, so these are the only
// guards that hold under concurrency.
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
	"github.com/aws/smithy-go"

	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/shared"
	appErrors "kinship-backend/internal/errors"
)

const (
	skConnection = "CONNECTION"
	timeLayout   = time.RFC3339Nano
)

// ddbConnection is the main connection item, keyed by the canonical pair so
// the partition key itself enforces one record per unordered pair.
type ddbConnection struct {
	PK           string `dynamodbav:"PK"` // PAIR#{lo}#{hi}
	SK           string `dynamodbav:"SK"` // CONNECTION
	ConnectionID string `dynamodbav:"ConnectionID"`
	RequesterID  string `dynamodbav:"RequesterID"`
	AddresseeID  string `dynamodbav:"AddresseeID"`
	Status       string `dynamodbav:"Status"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	RespondedAt  string `dynamodbav:"RespondedAt,omitempty"`
	GSI1PK       string `dynamodbav:"GSI1PK"` // CONN#{connectionId}
	GSI1SK       string `dynamodbav:"GSI1SK"` // CONNECTION
}

// ddbAdjacency is a per-member projection of the same record, written in the
// same transaction, so member-scoped reads are a single partition query.
type ddbAdjacency struct {
	PK           string `dynamodbav:"PK"` // MEMBER#{memberId}
	SK           string `dynamodbav:"SK"` // CONN#{createdAt}#{connectionId}
	ConnectionID string `dynamodbav:"ConnectionID"`
	OtherID      string `dynamodbav:"OtherID"`
	RequesterID  string `dynamodbav:"RequesterID"`
	AddresseeID  string `dynamodbav:"AddresseeID"`
	Status       string `dynamodbav:"Status"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	RespondedAt  string `dynamodbav:"RespondedAt,omitempty"`
}

// ConnectionRepository implements connection.Repository using DynamoDB.
type ConnectionRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string // GSI resolving ConnectionID -> pair item
}

// NewConnectionRepository creates a ConnectionRepository instance.
func NewConnectionRepository(client *dynamodb.Client, tableName, indexName string) *ConnectionRepository {
	return &ConnectionRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
	}
}

func pairPK(a, b shared.MemberID) string {
	return "PAIR#" + shared.PairKey(a, b)
}

func memberPK(id string) string {
	return "MEMBER#" + id
}

func adjacencySK(createdAt time.Time, connectionID string) string {
	return fmt.Sprintf("CONN#%s#%s", createdAt.UTC().Format(timeLayout), connectionID)
}

// Create writes the pair item and both member projections in one
// transaction. The attribute_not_exists condition on the pair item makes
// exactly one of two concurrent creates for the same pair succeed; the
// loser sees ErrDuplicateConnection.
func (r *ConnectionRepository) Create(ctx context.Context, record *connection.Record) error {
	main := ddbConnection{
		PK:           pairPK(record.RequesterID(), record.AddresseeID()),
		SK:           skConnection,
		ConnectionID: record.ID().String(),
		RequesterID:  record.RequesterID().String(),
		AddresseeID:  record.AddresseeID().String(),
		Status:       string(record.Status()),
		CreatedAt:    record.CreatedAt().UTC().Format(timeLayout),
		GSI1PK:       "CONN#" + record.ID().String(),
		GSI1SK:       skConnection,
	}
	mainItem, err := attributevalue.MarshalMap(main)
	if err != nil {
		return appErrors.Wrap(err, "Create", "failed to marshal connection item")
	}

	transactItems := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                mainItem,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	}}

	for _, side := range []shared.MemberID{record.RequesterID(), record.AddresseeID()} {
		adjacency := ddbAdjacency{
			PK:           memberPK(side.String()),
			SK:           adjacencySK(record.CreatedAt(), record.ID().String()),
			ConnectionID: record.ID().String(),
			OtherID:      record.Other(side).String(),
			RequesterID:  record.RequesterID().String(),
			AddresseeID:  record.AddresseeID().String(),
			Status:       string(record.Status()),
			CreatedAt:    main.CreatedAt,
		}
		item, err := attributevalue.MarshalMap(adjacency)
		if err != nil {
			return appErrors.Wrap(err, "Create", "failed to marshal adjacency item")
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.tableName),
				Item:      item,
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		if isConditionFailure(err) {
			return shared.ErrDuplicateConnection
		}
		return storeUnavailable("Create", err)
	}
	return nil
}

// FindByID resolves the record through the connection-id GSI.
func (r *ConnectionRepository) FindByID(ctx context.Context, id shared.ConnectionID) (*connection.Record, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("CONN#" + id.String()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "FindByID", "failed to build query expression")
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, storeUnavailable("FindByID", err)
	}
	if len(out.Items) == 0 {
		return nil, shared.ErrConnectionNotFound
	}

	var item ddbConnection
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, appErrors.Wrap(err, "FindByID", "failed to unmarshal connection item")
	}
	return item.toDomain()
}

// FindByPair is a direct key lookup on the canonical pair partition.
func (r *ConnectionRepository) FindByPair(ctx context.Context, a, b shared.MemberID) (*connection.Record, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": pairPK(a, b),
		"SK": skConnection,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "FindByPair", "failed to marshal key")
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       key,
	})
	if err != nil {
		return nil, storeUnavailable("FindByPair", err)
	}
	if out.Item == nil {
		return nil, shared.ErrConnectionNotFound
	}

	var item ddbConnection
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "FindByPair", "failed to unmarshal connection item")
	}
	return item.toDomain()
}

// Resolve applies the terminal status with a condition on the stored status
// still being pending, and updates both member projections in the same
// transaction. Of two concurrent responders the first write wins and the
// second observes ErrAlreadyResolved.
func (r *ConnectionRepository) Resolve(ctx context.Context, record *connection.Record) error {
	if record.RespondedAt() == nil {
		return shared.ErrInvalidRecordState
	}
	respondedAt := record.RespondedAt().UTC().Format(timeLayout)

	update := expression.
		Set(expression.Name("Status"), expression.Value(string(record.Status()))).
		Set(expression.Name("RespondedAt"), expression.Value(respondedAt))
	cond := expression.Name("Status").Equal(expression.Value(string(connection.StatusPending)))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return appErrors.Wrap(err, "Resolve", "failed to build update expression")
	}

	mainKey, err := attributevalue.MarshalMap(map[string]string{
		"PK": pairPK(record.RequesterID(), record.AddresseeID()),
		"SK": skConnection,
	})
	if err != nil {
		return appErrors.Wrap(err, "Resolve", "failed to marshal key")
	}

	transactItems := []types.TransactWriteItem{{
		Update: &types.Update{
			TableName:                 aws.String(r.tableName),
			Key:                       mainKey,
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}}

	// The adjacency projections carry no condition: the guarded main item
	// serializes the transition, and the projections just follow it.
	adjUpdate := expression.
		Set(expression.Name("Status"), expression.Value(string(record.Status()))).
		Set(expression.Name("RespondedAt"), expression.Value(respondedAt))
	adjExpr, err := expression.NewBuilder().WithUpdate(adjUpdate).Build()
	if err != nil {
		return appErrors.Wrap(err, "Resolve", "failed to build adjacency expression")
	}
	for _, side := range []shared.MemberID{record.RequesterID(), record.AddresseeID()} {
		adjKey, err := attributevalue.MarshalMap(map[string]string{
			"PK": memberPK(side.String()),
			"SK": adjacencySK(record.CreatedAt(), record.ID().String()),
		})
		if err != nil {
			return appErrors.Wrap(err, "Resolve", "failed to marshal adjacency key")
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       adjKey,
				UpdateExpression:          adjExpr.Update(),
				ExpressionAttributeNames:  adjExpr.Names(),
				ExpressionAttributeValues: adjExpr.Values(),
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		if isConditionFailure(err) {
			return shared.ErrAlreadyResolved
		}
		return storeUnavailable("Resolve", err)
	}
	return nil
}

// FindByMember queries the member's adjacency partition.
func (r *ConnectionRepository) FindByMember(ctx context.Context, memberID shared.MemberID, status *connection.Status, page connection.Page) ([]*connection.Record, error) {
	items, err := r.queryAdjacency(ctx, memberID, status)
	if err != nil {
		return nil, err
	}

	if page.Offset >= len(items) {
		return []*connection.Record{}, nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && len(items) > page.Limit {
		items = items[:page.Limit]
	}

	records := make([]*connection.Record, 0, len(items))
	for _, item := range items {
		record, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// AcceptedNeighbors projects OtherID from accepted adjacency items.
func (r *ConnectionRepository) AcceptedNeighbors(ctx context.Context, memberID shared.MemberID) ([]shared.MemberID, error) {
	accepted := connection.StatusAccepted
	items, err := r.queryAdjacency(ctx, memberID, &accepted)
	if err != nil {
		return nil, err
	}

	neighbors := make([]shared.MemberID, 0, len(items))
	for _, item := range items {
		id, err := shared.ParseMemberID(item.OtherID)
		if err != nil {
			return nil, appErrors.Wrap(err, "AcceptedNeighbors", "corrupt adjacency item")
		}
		neighbors = append(neighbors, id)
	}
	return neighbors, nil
}

// RelatedMembers projects OtherID from every adjacency item regardless of status.
func (r *ConnectionRepository) RelatedMembers(ctx context.Context, memberID shared.MemberID) ([]shared.MemberID, error) {
	items, err := r.queryAdjacency(ctx, memberID, nil)
	if err != nil {
		return nil, err
	}

	related := make([]shared.MemberID, 0, len(items))
	for _, item := range items {
		id, err := shared.ParseMemberID(item.OtherID)
		if err != nil {
			return nil, appErrors.Wrap(err, "RelatedMembers", "corrupt adjacency item")
		}
		related = append(related, id)
	}
	return related, nil
}

// CountAcceptedByMember counts accepted adjacency items without unmarshaling them.
func (r *ConnectionRepository) CountAcceptedByMember(ctx context.Context, memberID shared.MemberID) (int, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(memberPK(memberID.String()))).
		And(expression.Key("SK").BeginsWith("CONN#"))
	filter := expression.Name("Status").Equal(expression.Value(string(connection.StatusAccepted)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return 0, appErrors.Wrap(err, "CountAcceptedByMember", "failed to build query expression")
	}

	count := 0
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return 0, storeUnavailable("CountAcceptedByMember", err)
		}
		count += int(out.Count)
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return count, nil
}

func (r *ConnectionRepository) queryAdjacency(ctx context.Context, memberID shared.MemberID, status *connection.Status) ([]ddbAdjacency, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(memberPK(memberID.String()))).
		And(expression.Key("SK").BeginsWith("CONN#"))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if status != nil {
		builder = builder.WithFilter(expression.Name("Status").Equal(expression.Value(string(*status))))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "queryAdjacency", "failed to build query expression")
	}

	var items []ddbAdjacency
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false), // newest first
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, storeUnavailable("queryAdjacency", err)
		}
		var page []ddbAdjacency
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, appErrors.Wrap(err, "queryAdjacency", "failed to unmarshal adjacency items")
		}
		items = append(items, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return items, nil
}

// toDomain reconstructs the aggregate from the main item.
func (i ddbConnection) toDomain() (*connection.Record, error) {
	return reconstructRecord(i.ConnectionID, i.RequesterID, i.AddresseeID, i.Status, i.CreatedAt, i.RespondedAt)
}

// toDomain reconstructs the aggregate from a member projection.
func (i ddbAdjacency) toDomain() (*connection.Record, error) {
	return reconstructRecord(i.ConnectionID, i.RequesterID, i.AddresseeID, i.Status, i.CreatedAt, i.RespondedAt)
}

func reconstructRecord(connectionID, requesterID, addresseeID, status, createdAt, respondedAt string) (*connection.Record, error) {
	id, err := shared.ParseConnectionID(connectionID)
	if err != nil {
		return nil, err
	}
	requester, err := shared.ParseMemberID(requesterID)
	if err != nil {
		return nil, err
	}
	addressee, err := shared.ParseMemberID(addresseeID)
	if err != nil {
		return nil, err
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, appErrors.Internal(appErrors.CodeInternalError.String(), "corrupt CreatedAt on connection item").WithCause(err).Build()
	}
	var responded *time.Time
	if respondedAt != "" {
		t, err := time.Parse(timeLayout, respondedAt)
		if err != nil {
			return nil, appErrors.Internal(appErrors.CodeInternalError.String(), "corrupt RespondedAt on connection item").WithCause(err).Build()
		}
		responded = &t
	}
	return connection.Reconstruct(id, requester, addressee, connection.Status(status), created, responded), nil
}

// isConditionFailure reports whether the error is a conditional write losing
// its race, either directly or inside a cancelled transaction.
func isConditionFailure(err error) bool {
	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		return true
	}
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

// storeUnavailable wraps transport and throttling failures as the retryable
// Unavailable kind the error contract promises callers. Throttling gets a
// retry hint so the HTTP layer can emit Retry-After.
func storeUnavailable(operation string, err error) error {
	builder := appErrors.Unavailable(appErrors.CodeStoreUnavailable.String(), "dynamodb request failed").
		WithOperation(operation).
		WithCause(err)
	if isThrottle(err) {
		builder = builder.WithRetryAfter(time.Second)
	}
	return builder.Build()
}

func isThrottle(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return true
	}
	return false
}
