// Package awsutil builds the aws.Config shared by the DynamoDB, S3, SES and
// Bedrock clients.
package awsutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options selects region and credentials. Static keys win over Profile; with
// neither set the default credential chain is used.
type Options struct {
	Region    string
	Profile   string
	AccessKey string
	SecretKey string
}

// LoadConfig resolves an aws.Config for opts.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions(opts)...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

func loadOptions(opts Options) []func(*config.LoadOptions) error {
	var out []func(*config.LoadOptions) error
	if opts.Region != "" {
		out = append(out, config.WithRegion(opts.Region))
	}
	switch {
	case opts.AccessKey != "" && opts.SecretKey != "":
		creds := credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
		out = append(out, config.WithCredentialsProvider(creds))
	case opts.Profile != "":
		out = append(out, config.WithSharedConfigProfile(opts.Profile))
	}
	return out
}
