// Package prediction implements the burnout prediction pipeline.
//
// The service runs each request through a fixed sequence of stages:
// feature extraction, self-reported overrides, classification,
// recommendation composition and persistence. A failure at any stage aborts
// the request with a *PipelineError and nothing is persisted. The service
// holds no per-request mutable state; collaborators are injected once at
// start-up and must be safe for concurrent use.
//
// Repository implementations live in storage/.
package prediction
