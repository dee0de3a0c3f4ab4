/* Copyright 2025 Driftpad Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// Dynamo is a DynamoDB-backed ledger
type Dynamo struct {
	client       *dynamodb.Client
	notesTable   string
	aclTable     string
	updatedAtGSI string
}

// DynamoParams are the parameters for creating a Dynamo ledger
type DynamoParams struct {
	Region       string
	Endpoint     string
	NotesTable   string
	ACLTable     string
	UpdatedAtGSI string
}

// NewDynamo creates a ledger backed by DynamoDB. Credentials come from the
// default provider chain. A non-empty endpoint overrides the service URL for
// local development.
func NewDynamo(ctx context.Context, p DynamoParams) (*Dynamo, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(p.Region),
	}
	if p.Endpoint != "" {
		// a local DynamoDB still insists on credentials being present
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if p.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.Endpoint)
		}
	})

	return &Dynamo{
		client:       client,
		notesTable:   p.NotesTable,
		aclTable:     p.ACLTable,
		updatedAtGSI: p.UpdatedAtGSI,
	}, nil
}

func noteKey(ownerID, noteID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: ownerID},
		"noteId": &types.AttributeValueMemberS{Value: noteID},
	}
}

func grantKey(granteeID, noteID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: granteeID},
		"noteId": &types.AttributeValueMemberS{Value: noteID},
	}
}

// GetNote fetches a single note from the given owner's partition
func (d *Dynamo) GetNote(ctx context.Context, ownerID, noteID string) (Record, bool, error) {
	var record Record

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.notesTable),
		Key:       noteKey(ownerID, noteID),
	})
	if err != nil {
		return record, false, errors.Wrap(err, "getting note item")
	}
	if out.Item == nil {
		return record, false, nil
	}

	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return record, false, errors.Wrap(err, "unmarshaling note item")
	}

	return record, true, nil
}

// BatchWriteNotes persists up to MaxBatchWriteItems records in a single
// batch write and returns the records the store left unprocessed
func (d *Dynamo) BatchWriteNotes(ctx context.Context, records []Record) ([]Record, error) {
	if len(records) > MaxBatchWriteItems {
		return nil, ErrBatchTooLarge
	}
	if len(records) == 0 {
		return nil, nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(records))
	for _, record := range records {
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return nil, errors.Wrapf(err, "marshaling note %s", record.NoteID)
		}

		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	out, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			d.notesTable: writeRequests,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "batch writing notes")
	}

	var unprocessed []Record
	for _, req := range out.UnprocessedItems[d.notesTable] {
		if req.PutRequest == nil {
			continue
		}

		var record Record
		if err := attributevalue.UnmarshalMap(req.PutRequest.Item, &record); err != nil {
			return nil, errors.Wrap(err, "unmarshaling unprocessed item")
		}
		unprocessed = append(unprocessed, record)
	}

	return unprocessed, nil
}

// encodeStartKey serializes a continuation point as "updatedAt/noteId". The
// index key attributes are derivable from the owner and those two values, so
// the token stays opaque to clients without needing to round-trip the raw
// LastEvaluatedKey.
func encodeStartKey(record Record) string {
	return fmt.Sprintf("%d/%s", record.GsiUpdatedAtSk, record.NoteID)
}

func decodeStartKey(ownerID, token string) (map[string]types.AttributeValue, error) {
	skPart, noteID, found := strings.Cut(token, "/")
	if !found {
		return nil, errors.Errorf("malformed continuation token '%s'", token)
	}

	sk, err := strconv.ParseInt(skPart, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parsing continuation token")
	}

	return map[string]types.AttributeValue{
		"gsiUpdatedAtPk": &types.AttributeValueMemberS{Value: ownerID},
		"gsiUpdatedAtSk": &types.AttributeValueMemberN{Value: strconv.FormatInt(sk, 10)},
		"userId":         &types.AttributeValueMemberS{Value: ownerID},
		"noteId":         &types.AttributeValueMemberS{Value: noteID},
	}, nil
}

// QueryOwnerSince reads the owner's notes updated strictly after since in
// ascending update time order through the update-time index
func (d *Dynamo) QueryOwnerSince(ctx context.Context, ownerID string, since int64, limit int, startKey string) (Page, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.notesTable),
		IndexName:              aws.String(d.updatedAtGSI),
		KeyConditionExpression: aws.String("#pk = :pk AND #updatedAt > :since"),
		ExpressionAttributeNames: map[string]string{
			"#pk":        "gsiUpdatedAtPk",
			"#updatedAt": "gsiUpdatedAtSk",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":    &types.AttributeValueMemberS{Value: ownerID},
			":since": &types.AttributeValueMemberN{Value: strconv.FormatInt(since, 10)},
		},
		Limit:            aws.Int32(int32(limit)),
		ScanIndexForward: aws.Bool(true),
	}

	if startKey != "" {
		exclusiveStartKey, err := decodeStartKey(ownerID, startKey)
		if err != nil {
			return Page{}, err
		}
		input.ExclusiveStartKey = exclusiveStartKey
	}

	out, err := d.client.Query(ctx, input)
	if err != nil {
		return Page{}, errors.Wrap(err, "querying notes by update time")
	}

	records := make([]Record, 0, len(out.Items))
	for _, item := range out.Items {
		var record Record
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return Page{}, errors.Wrap(err, "unmarshaling note item")
		}
		records = append(records, record)
	}

	page := Page{Records: records}
	if out.LastEvaluatedKey != nil && len(records) > 0 {
		page.NextKey = encodeStartKey(records[len(records)-1])
	}

	return page, nil
}

// GetGrant fetches the grant for the given grantee and note
func (d *Dynamo) GetGrant(ctx context.Context, granteeID, noteID string) (Grant, bool, error) {
	var grant Grant

	if d.aclTable == "" {
		return grant, false, nil
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.aclTable),
		Key:       grantKey(granteeID, noteID),
	})
	if err != nil {
		return grant, false, errors.Wrap(err, "getting grant item")
	}
	if out.Item == nil {
		return grant, false, nil
	}

	if err := attributevalue.UnmarshalMap(out.Item, &grant); err != nil {
		return grant, false, errors.Wrap(err, "unmarshaling grant item")
	}

	return grant, true, nil
}

// PutGrant stores the given grant, replacing any existing one
func (d *Dynamo) PutGrant(ctx context.Context, grant Grant) error {
	if d.aclTable == "" {
		return ErrSharingDisabled
	}

	item, err := attributevalue.MarshalMap(grant)
	if err != nil {
		return errors.Wrap(err, "marshaling grant")
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.aclTable),
		Item:      item,
	})
	if err != nil {
		return errors.Wrap(err, "putting grant item")
	}

	return nil
}

// DeleteGrant removes the grant for the given grantee and note
func (d *Dynamo) DeleteGrant(ctx context.Context, granteeID, noteID string) error {
	if d.aclTable == "" {
		return ErrSharingDisabled
	}

	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.aclTable),
		Key:       grantKey(granteeID, noteID),
	})
	if err != nil {
		return errors.Wrap(err, "deleting grant item")
	}

	return nil
}

// ListGrantsFor returns all grants held by the given grantee
func (d *Dynamo) ListGrantsFor(ctx context.Context, granteeID string) ([]Grant, error) {
	if d.aclTable == "" {
		return nil, nil
	}

	var grants []Grant
	var exclusiveStartKey map[string]types.AttributeValue

	for {
		out, err := d.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(d.aclTable),
			KeyConditionExpression: aws.String("#pk = :pk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": "userId",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: granteeID},
			},
			ExclusiveStartKey: exclusiveStartKey,
		})
		if err != nil {
			return nil, errors.Wrap(err, "querying grants")
		}

		for _, item := range out.Items {
			var grant Grant
			if err := attributevalue.UnmarshalMap(item, &grant); err != nil {
				return nil, errors.Wrap(err, "unmarshaling grant item")
			}
			grants = append(grants, grant)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		exclusiveStartKey = out.LastEvaluatedKey
	}

	return grants, nil
}
