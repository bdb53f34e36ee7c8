package rag

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyIndex   = errors.New("index has no chunks")
)

// Stage identifies the pipeline step an error originated from.
type Stage string

const (
	StageChunk     Stage = "chunk"
	StageEmbed     Stage = "embed"
	StageRetrieve  Stage = "retrieve"
	StageSynthesis Stage = "synthesis"
)

// ProviderError wraps a failure from an external provider call
// (embedding or completion), tagged with the stage that made the call.
type ProviderError struct {
	Stage Stage
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PipelineError is the Coordinator boundary error: any component failure
// surfaces wrapped with its originating stage.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
