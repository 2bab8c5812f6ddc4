/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StartKey is the continuation token of a paged request: the raw
// LastEvaluatedKey returned by the previous page.
type StartKey = map[string]types.AttributeValue

// ScanParams defines parameters for a single DynamoDB Scan page request.
type ScanParams struct {
	// TableName is the archive table name.
	TableName string
	// FilterExpression is an optional conjunction of range filters.
	FilterExpression *string
	// ExpressionAttributeNames maps "#alias" placeholders to attribute names.
	ExpressionAttributeNames map[string]string
	// ExpressionAttributeValues contains the values for ":alias" placeholders.
	ExpressionAttributeValues map[string]types.AttributeValue
	// Limit defines an optional limit per page.
	Limit *int32
	// ExclusiveStartKey for pagination
	ExclusiveStartKey StartKey
}

// QueryParams defines parameters for a single DynamoDB Query page request.
type QueryParams struct {
	// TableName is the archive table name.
	TableName string
	// KeyConditionExpression is the primary condition for the query.
	KeyConditionExpression string
	// ExpressionAttributeNames maps "#alias" placeholders to attribute names.
	ExpressionAttributeNames map[string]string
	// ExpressionAttributeValues contains the values for expression placeholders.
	ExpressionAttributeValues map[string]types.AttributeValue
	// Limit defines an optional limit per query page.
	Limit *int32
	// ExclusiveStartKey for pagination
	ExclusiveStartKey StartKey
}

// GetParams identifies exactly one archived item.
type GetParams struct {
	TableName string
	Key       map[string]types.AttributeValue
}

// Page is one response of a paged Scan or Query.
type Page struct {
	Items            []map[string]types.AttributeValue
	LastEvaluatedKey StartKey
}

// HasMore reports whether the store returned a continuation token.
func (p *Page) HasMore() bool {
	return p != nil && len(p.LastEvaluatedKey) > 0
}
