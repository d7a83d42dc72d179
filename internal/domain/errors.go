package domain

import "errors"

var (
	// ErrInvalidConfig signals configuration that cannot be used as supplied.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownSourceKind signals a source descriptor with an unsupported kind.
	ErrUnknownSourceKind = errors.New("unknown source kind")
	// ErrBackendUnavailable signals that an upstream backend is not configured or reachable.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrTemplateCompile signals a template that failed to parse.
	ErrTemplateCompile = errors.New("template compile failed")
	// ErrTemplateRender signals a template that failed during execution.
	ErrTemplateRender = errors.New("template render failed")
	// ErrRenderCanceled signals a render batch abandoned before completion.
	ErrRenderCanceled = errors.New("render canceled")
)

// KeyPrefix is the namespace for every key written to the KV store.
const KeyPrefix = "rollup:"
