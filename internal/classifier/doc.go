// Package classifier talks to the external burnout risk model.
//
// Two backends share one JSON contract: HTTPClient posts to a model-serving
// endpoint (optionally authenticated with OAuth2 client credentials) and
// BedrockClient invokes an imported custom model on AWS Bedrock. Any failure
// to obtain a well-formed answer is reported as ErrUnavailable; callers never
// see a partially decoded classification.
package classifier
