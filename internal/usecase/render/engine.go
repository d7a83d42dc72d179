// Package render compiles item templates, caches them by source text and renders
// item batches with cooperative cancellation.
package render

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/domain"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// Context is the data a template executes against.
type Context struct {
	Item     item.Item
	Index    int
	Total    int
	ViewMode string
}

// Field returns the text of a field of the current item.
func (c Context) Field(name string) string {
	return c.Item.Field(name).Text()
}

// Config holds engine parameters. Every field is optional.
type Config struct {
	// Now is the clock used by relativeDate.
	Now func() time.Time
	// Funcs adds template helpers; they override built-ins of the same name.
	Funcs template.FuncMap
	// RenderErrors is a counter vec with label "stage".
	RenderErrors *prometheus.CounterVec
	Logger       *zap.Logger
}

// Engine compiles templates lazily and keeps them keyed by the SHA-256 of their source.
type Engine struct {
	mu       sync.RWMutex
	cache    map[string]*template.Template
	compiles atomic.Int64
	funcs    template.FuncMap
	errors   *prometheus.CounterVec
	logger   *zap.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	funcs := helpers(now)
	for name, fn := range cfg.Funcs {
		funcs[name] = fn
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cache:  make(map[string]*template.Template),
		funcs:  funcs,
		errors: cfg.RenderErrors,
		logger: logger,
	}
}

// Compiles reports how many templates were actually parsed.
func (e *Engine) Compiles() int64 { return e.compiles.Load() }

// Compile returns the compiled template for src, parsing it on first use.
func (e *Engine) Compile(src string) (*template.Template, error) {
	key := cacheKey(src)

	e.mu.RLock()
	tmpl, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[key]; ok {
		return tmpl, nil
	}

	e.compiles.Add(1)
	tmpl, err := template.New("item").Funcs(e.funcs).Parse(src)
	if err != nil {
		e.inc("compile")
		return nil, fmt.Errorf("%w: %w", domain.ErrTemplateCompile, err)
	}
	e.cache[key] = tmpl
	return tmpl, nil
}

// Invalidate drops the compiled template for src.
func (e *Engine) Invalidate(src string) {
	e.mu.Lock()
	delete(e.cache, cacheKey(src))
	e.mu.Unlock()
}

// Reset drops every compiled template.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cache = make(map[string]*template.Template)
	e.mu.Unlock()
}

// Render executes src against one context.
func (e *Engine) Render(src string, c Context) (string, error) {
	tmpl, err := e.Compile(src)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, c)
}

// RenderBatch renders items one after another. The context is checked before
// every item; once it is done the partial output is discarded and
// ErrRenderCanceled is returned.
func (e *Engine) RenderBatch(ctx context.Context, src string, items []item.Item, viewMode string) ([]string, error) {
	tmpl, err := e.Compile(src)
	if err != nil {
		e.logger.Error("Template compile failed", zap.Error(err))
		return nil, err
	}

	out := make([]string, 0, len(items))
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			e.inc("canceled")
			return nil, fmt.Errorf("%w: %w", domain.ErrRenderCanceled, err)
		}
		html, err := e.execute(tmpl, Context{Item: it, Index: i, Total: len(items), ViewMode: viewMode})
		if err != nil {
			e.logger.Error("Template render failed", zap.String("item_id", it.ID()), zap.Error(err))
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

func (e *Engine) execute(tmpl *template.Template, c Context) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, c); err != nil {
		e.inc("render")
		return "", fmt.Errorf("%w: %w", domain.ErrTemplateRender, err)
	}
	return buf.String(), nil
}

func (e *Engine) inc(stage string) {
	if e.errors != nil {
		e.errors.WithLabelValues(stage).Inc()
	}
}

func cacheKey(src string) string {
	h := sha256.Sum256([]byte(src))
	return hex.EncodeToString(h[:])
}
