// Package storage persists prediction results and archives report documents.
//
// Two repository backends implement prediction.Repository: DynamoStore for
// deployed environments and MemoryStore for local runs and tests. S3Archiver
// copies every persisted result to S3 as a JSON document.
package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/ignite/burnout-monitor/internal/config"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
)

// Repository is a prediction repository that can report its health.
type Repository interface {
	prediction.Repository
	Ping(ctx context.Context) error
}

// New returns the repository selected by cfg.Type. awsCfg is only used for
// the dynamodb backend.
func New(cfg config.StorageConfig, awsCfg aws.Config) (Repository, error) {
	switch cfg.Type {
	case "dynamodb":
		if cfg.DynamoDBTable == "" {
			return nil, fmt.Errorf("storage: dynamodb_table is required")
		}
		return NewDynamoStoreFromConfig(awsCfg, cfg.DynamoDBTable), nil
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("storage: unknown type %q", cfg.Type)
	}
}
