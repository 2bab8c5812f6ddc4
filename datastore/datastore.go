/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/kinesisarchive/storagemodels"
)

// ArchiveStore reads one page of archived records per call. Callers drive
// pagination by feeding Page.LastEvaluatedKey back as ExclusiveStartKey.
type ArchiveStore interface {
	Scan(ctx context.Context, params *storagemodels.ScanParams) (*storagemodels.Page, error)

	Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page, error)

	// GetItem returns nil, nil when the key does not exist.
	GetItem(ctx context.Context, params *storagemodels.GetParams) (map[string]types.AttributeValue, error)
}
