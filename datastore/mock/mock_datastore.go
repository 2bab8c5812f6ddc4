/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory paged ArchiveStore for testing
package mock

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/kinesisarchive/storagemodels"
)

const offsetKey = "__offset"

// Request is one call observed by the mock
type Request struct {
	Operation         string // Scan, Query or GetItem
	TableName         string
	ExclusiveStartKey storagemodels.StartKey
	Scan              *storagemodels.ScanParams
	Query             *storagemodels.QueryParams
	Get               *storagemodels.GetParams
}

// ArchiveStore is a mock implementation of datastore.ArchiveStore for testing.
//
// By default it serves its items in insertion order, PageSize (or the
// request Limit) per page. WithPages switches it to scripted pages, served in
// order regardless of parameters.
type ArchiveStore struct {
	mu       sync.Mutex
	items    []map[string]types.AttributeValue
	pages    [][]map[string]types.AttributeValue
	pageSize int
	delay    time.Duration
	failAt   map[int]error
	requests []Request
}

// New creates a new mock ArchiveStore
func New() *ArchiveStore {
	return &ArchiveStore{
		pageSize: 10,
		failAt:   make(map[int]error),
	}
}

// WithItems sets the items served by Scan, Query and GetItem
func (m *ArchiveStore) WithItems(items ...map[string]types.AttributeValue) *ArchiveStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return m
}

// WithRecords encodes records in the archiver's item shape
func (m *ArchiveStore) WithRecords(records ...storagemodels.ArchivedRecord) *ArchiveStore {
	for _, rec := range records {
		item, err := storagemodels.EncodeRecord(rec)
		if err != nil {
			panic(fmt.Sprintf("mock archive store: %v", err))
		}
		m.WithItems(item)
	}
	return m
}

// WithPages scripts the exact pages returned by successive Scan/Query calls
func (m *ArchiveStore) WithPages(pages ...[]map[string]types.AttributeValue) *ArchiveStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = pages
	return m
}

// WithPageSize sets the default page size when a request carries no Limit
func (m *ArchiveStore) WithPageSize(size int) *ArchiveStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = size
	return m
}

// WithPageDelay delays every request, simulating a slow store
func (m *ArchiveStore) WithPageDelay(d time.Duration) *ArchiveStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithErrorOnRequest makes the n-th request (1-based) fail with err
func (m *ArchiveStore) WithErrorOnRequest(n int, err error) *ArchiveStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAt[n] = err
	return m
}

// Scan serves one page of all items
func (m *ArchiveStore) Scan(ctx context.Context, params *storagemodels.ScanParams) (*storagemodels.Page, error) {
	if err := m.begin(ctx, Request{Operation: "Scan", TableName: params.TableName, ExclusiveStartKey: params.ExclusiveStartKey, Scan: params}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page(m.items, params.ExclusiveStartKey, params.Limit)
}

// Query serves one page of the items whose partitionKey matches ":partitionKey"
func (m *ArchiveStore) Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page, error) {
	if err := m.begin(ctx, Request{Operation: "Query", TableName: params.TableName, ExclusiveStartKey: params.ExclusiveStartKey, Query: params}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := stringValue(params.ExpressionAttributeValues[":partitionKey"])
	var matched []map[string]types.AttributeValue
	for _, item := range m.items {
		if pk == "" || stringValue(item["partitionKey"]) == pk {
			matched = append(matched, item)
		}
	}
	return m.page(matched, params.ExclusiveStartKey, params.Limit)
}

// GetItem returns the first item matching every attribute of the key
func (m *ArchiveStore) GetItem(ctx context.Context, params *storagemodels.GetParams) (map[string]types.AttributeValue, error) {
	if err := m.begin(ctx, Request{Operation: "GetItem", TableName: params.TableName, Get: params}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		match := true
		for k, v := range params.Key {
			if stringValue(item[k]) != stringValue(v) {
				match = false
				break
			}
		}
		if match {
			return item, nil
		}
	}
	return nil, nil
}

// Requests returns a copy of every request observed so far
func (m *ArchiveStore) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Request, len(m.requests))
	copy(result, m.requests)
	return result
}

// RequestCount returns the number of requests observed so far
func (m *ArchiveStore) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *ArchiveStore) begin(ctx context.Context, req Request) error {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	n := len(m.requests)
	delay := m.delay
	failErr := m.failAt[n]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return failErr
}

// page must be called with m.mu held.
func (m *ArchiveStore) page(items []map[string]types.AttributeValue, start storagemodels.StartKey, limit *int32) (*storagemodels.Page, error) {
	offset := 0
	if start != nil {
		n, ok := start[offsetKey].(*types.AttributeValueMemberN)
		if !ok {
			return nil, fmt.Errorf("mock archive store: unrecognised ExclusiveStartKey")
		}
		v, err := strconv.Atoi(n.Value)
		if err != nil {
			return nil, fmt.Errorf("mock archive store: bad offset: %w", err)
		}
		offset = v
	}

	if m.pages != nil {
		if offset >= len(m.pages) {
			return &storagemodels.Page{}, nil
		}
		page := &storagemodels.Page{Items: m.pages[offset]}
		if offset+1 < len(m.pages) {
			page.LastEvaluatedKey = offsetToken(offset + 1)
		}
		return page, nil
	}

	size := m.pageSize
	if limit != nil && *limit > 0 {
		size = int(*limit)
	}
	if size <= 0 {
		size = len(items)
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	page := &storagemodels.Page{}
	if offset < len(items) {
		page.Items = items[offset:end]
	}
	if end < len(items) {
		page.LastEvaluatedKey = offsetToken(end)
	}
	return page, nil
}

func offsetToken(offset int) storagemodels.StartKey {
	return storagemodels.StartKey{offsetKey: &types.AttributeValueMemberN{Value: strconv.Itoa(offset)}}
}

func stringValue(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}
