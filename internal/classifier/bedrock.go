package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/burnout-monitor/internal/pkg/logger"
)

var bedrockLog = logger.Component("classifier.bedrock")

// InvokeModelAPI is the subset of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient invokes an imported custom model on AWS Bedrock. The request
// and response bodies use the same JSON contract as the HTTP backend.
type BedrockClient struct {
	api     InvokeModelAPI
	modelID string
}

// NewBedrockClient wraps a Bedrock runtime client for modelID (model ARN or id).
func NewBedrockClient(api InvokeModelAPI, modelID string) *BedrockClient {
	return &BedrockClient{api: api, modelID: modelID}
}

// NewBedrockClientFromConfig builds the runtime client from an AWS config.
func NewBedrockClientFromConfig(cfg aws.Config, modelID string) *BedrockClient {
	return NewBedrockClient(bedrockruntime.NewFromConfig(cfg), modelID)
}

// Classify invokes the model once. Bedrock's SDK retryer handles throttling.
func (b *BedrockClient) Classify(ctx context.Context, req Request) (*Classification, error) {
	requestBody, err := json.Marshal(newPredictRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	output, err := b.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		bedrockLog.Warn("invoke model failed", "model_id", b.modelID, "subject_id", req.SubjectID, "error", err)
		return nil, fmt.Errorf("%w: bedrock: %v", ErrUnavailable, err)
	}

	c, err := decodeResponse(output.Body)
	if err != nil {
		return nil, err
	}
	if c.ModelVersion == "" {
		c.ModelVersion = b.modelID
	}
	return c, nil
}

// ListModels reports the single configured model.
func (b *BedrockClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return []ModelInfo{b.info()}, nil
}

// ModelInfo resolves "latest" and the configured model id; anything else is unknown.
func (b *BedrockClient) ModelInfo(ctx context.Context, version string) (*ModelInfo, error) {
	if version != LatestModel && version != b.modelID {
		return nil, ErrModelNotFound
	}
	info := b.info()
	return &info, nil
}

func (b *BedrockClient) info() ModelInfo {
	return ModelInfo{
		Version: b.modelID,
		Status:  "available",
		Type:    "bedrock_imported_model",
	}
}
