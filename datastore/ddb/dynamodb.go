/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
	"github.com/suparena/kinesisarchive/storagemodels"
)

// Client is the subset of the DynamoDB API the archive store needs.
type Client interface {
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
}

// DynamodbArchiveStore implements datastore.ArchiveStore on top of DynamoDB.
// The client is shared by every operation issued through one engine.
type DynamodbArchiveStore struct {
	client Client
}

// LoadAWSConfig loads the AWS configuration, using static credentials when an access key is given.
func LoadAWSConfig(ctx context.Context, awsAccessKey, awsSecretKey, awsRegion string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(awsRegion),
	}
	if awsAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return cfg, nil
}

// NewDynamoDBClient creates a DynamoDB client. endpoint overrides the service
// endpoint, e.g. for DynamoDB Local.
func NewDynamoDBClient(cfg aws.Config, endpoint string) *sdk.Client {
	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	log.Debug().Str("region", cfg.Region).Str("endpoint", endpoint).Msg("DynamoDB client initialized")
	return client
}

// NewDynamodbArchiveStore wraps an existing client.
func NewDynamodbArchiveStore(client Client) *DynamodbArchiveStore {
	return &DynamodbArchiveStore{client: client}
}

// Scan issues one Scan page request.
func (d *DynamodbArchiveStore) Scan(ctx context.Context, params *storagemodels.ScanParams) (*storagemodels.Page, error) {
	input := &sdk.ScanInput{
		TableName:                 aws.String(params.TableName),
		FilterExpression:          params.FilterExpression,
		ExpressionAttributeNames:  params.ExpressionAttributeNames,
		ExpressionAttributeValues: params.ExpressionAttributeValues,
		Limit:                     params.Limit,
		ExclusiveStartKey:         params.ExclusiveStartKey,
	}
	out, err := d.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}
	return &storagemodels.Page{Items: out.Items, LastEvaluatedKey: out.LastEvaluatedKey}, nil
}

// Query issues one Query page request.
func (d *DynamodbArchiveStore) Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page, error) {
	input := &sdk.QueryInput{
		TableName:                 aws.String(params.TableName),
		KeyConditionExpression:    aws.String(params.KeyConditionExpression),
		ExpressionAttributeNames:  params.ExpressionAttributeNames,
		ExpressionAttributeValues: params.ExpressionAttributeValues,
		Limit:                     params.Limit,
		ExclusiveStartKey:         params.ExclusiveStartKey,
		Select:                    types.SelectAllAttributes,
	}
	out, err := d.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return &storagemodels.Page{Items: out.Items, LastEvaluatedKey: out.LastEvaluatedKey}, nil
}

// GetItem retrieves a single archived item, or nil if it does not exist.
func (d *DynamodbArchiveStore) GetItem(ctx context.Context, params *storagemodels.GetParams) (map[string]types.AttributeValue, error) {
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(params.TableName),
		Key:       params.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return out.Item, nil
}
