package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/burnout-monitor/internal/domain"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockClassify(t *testing.T) {
	fake := &fakeInvoker{body: `{"risk_level":"critical","risk_score":0.91,"confidence":0.7,"recommendations":["Seek professional support"]}`}
	c := NewBedrockClient(fake, "arn:aws:bedrock:us-west-2:1:imported-model/burnout")

	res, err := c.Classify(context.Background(), Request{SubjectID: "u-2", Features: domain.BaselineVector()})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskCritical, res.RiskLevel)
	// falls back to the model id when the body does not name a version
	assert.Equal(t, "arn:aws:bedrock:us-west-2:1:imported-model/burnout", res.ModelVersion)

	require.NotNil(t, fake.input)
	assert.Equal(t, "arn:aws:bedrock:us-west-2:1:imported-model/burnout", *fake.input.ModelId)
	var sent PredictRequest
	require.NoError(t, json.Unmarshal(fake.input.Body, &sent))
	assert.Equal(t, "u-2", sent.UserID)
	assert.Equal(t, LatestModel, sent.ModelVersion)
}

func TestBedrockClassifyErrors(t *testing.T) {
	c := NewBedrockClient(&fakeInvoker{err: errors.New("ThrottlingException")}, "m")
	_, err := c.Classify(context.Background(), Request{SubjectID: "u", Features: domain.BaselineVector()})
	assert.ErrorIs(t, err, ErrUnavailable)

	c = NewBedrockClient(&fakeInvoker{body: `{"risk_level":"unknown"}`}, "m")
	_, err = c.Classify(context.Background(), Request{SubjectID: "u", Features: domain.BaselineVector()})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBedrockCatalog(t *testing.T) {
	c := NewBedrockClient(&fakeInvoker{}, "model-a")

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "model-a", models[0].Version)

	_, err = c.ModelInfo(context.Background(), LatestModel)
	assert.NoError(t, err)
	_, err = c.ModelInfo(context.Background(), "model-b")
	assert.ErrorIs(t, err, ErrModelNotFound)
}
