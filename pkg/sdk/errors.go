package rollup

import "github.com/kailas-cloud/rollup/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrUnknownSourceKind  = domain.ErrUnknownSourceKind
	ErrBackendUnavailable = domain.ErrBackendUnavailable
	ErrTemplateCompile    = domain.ErrTemplateCompile
	ErrTemplateRender     = domain.ErrTemplateRender
	ErrRenderCanceled     = domain.ErrRenderCanceled
)
