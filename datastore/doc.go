/*
Package datastore defines the read interface of the stream archive.

	type ArchiveStore interface {
	    Scan(ctx context.Context, params *storagemodels.ScanParams) (*storagemodels.Page, error)
	    Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page, error)
	    GetItem(ctx context.Context, params *storagemodels.GetParams) (map[string]types.AttributeValue, error)
	}

Each call issues exactly one store request. A page with a LastEvaluatedKey
means more results remain; a page without one is terminal.

Implementations:
  - ddb: DynamoDB implementation, plus the predicate builder that turns range
    bounds into filter and key-condition expressions
  - mock: In-memory paged implementation for testing
*/
package datastore
