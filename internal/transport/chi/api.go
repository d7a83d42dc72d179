package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	domagg "github.com/kailas-cloud/rollup/internal/domain/aggregation"
	"github.com/kailas-cloud/rollup/internal/domain/column"
	domfacet "github.com/kailas-cloud/rollup/internal/domain/facet"
	dompage "github.com/kailas-cloud/rollup/internal/domain/pagination"
	"github.com/kailas-cloud/rollup/internal/domain/view"
	"github.com/kailas-cloud/rollup/internal/settings"
	rollupuc "github.com/kailas-cloud/rollup/internal/usecase/rollup"
)

// ErrorResponseCode classifies API errors.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeRenderFailed     ErrorResponseCode = "render_failed"
	ErrorResponseCodeRenderCanceled   ErrorResponseCode = "render_canceled"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// RollupRequest is the body of POST /v1/rollup. Configuration members are raw
// JSON parsed leniently.
type RollupRequest struct {
	settings.Raw
	State *view.State `json:"state,omitempty"`
	// ViewID applies a saved view from Views on top of State.
	ViewID   string `json:"viewId,omitempty"`
	Template string `json:"template,omitempty"`
	// SessionID scopes render supersession: a newer request with the same
	// session cancels the older one's render. Requests without it never interfere.
	SessionID string `json:"sessionId,omitempty"`
}

// RollupParams are the query parameters of POST /v1/rollup. Set values override the body state.
type RollupParams struct {
	Page     *int    `form:"page,omitempty" json:"page,omitempty"`
	PageSize *int    `form:"pageSize,omitempty" json:"pageSize,omitempty"`
	Mode     *string `form:"mode,omitempty" json:"mode,omitempty"`
	Refresh  *bool   `form:"refresh,omitempty" json:"refresh,omitempty"`
}

// ItemResponse is the JSON form of an item.
type ItemResponse struct {
	ID             string                    `json:"id"`
	NativeID       string                    `json:"nativeId,omitempty"`
	Title          string                    `json:"title"`
	Description    string                    `json:"description,omitempty"`
	Author         string                    `json:"author,omitempty"`
	Editor         string                    `json:"editor,omitempty"`
	Created        *time.Time                `json:"created,omitempty"`
	Modified       *time.Time                `json:"modified,omitempty"`
	FileRef        string                    `json:"fileRef,omitempty"`
	FileType       string                    `json:"fileType,omitempty"`
	ContentType    string                    `json:"contentType,omitempty"`
	Category       string                    `json:"category,omitempty"`
	SourceURL      string                    `json:"sourceUrl,omitempty"`
	SourceName     string                    `json:"sourceName,omitempty"`
	CollectionID   string                    `json:"collectionId,omitempty"`
	CollectionName string                    `json:"collectionName,omitempty"`
	Federated      bool                      `json:"isFromFederatedSearch"`
	Fields         map[string]any            `json:"fields,omitempty"`
	Actions        []rollupuc.ResolvedAction `json:"actions,omitempty"`
	Styles         map[string]column.Style   `json:"styles,omitempty"`
}

// GroupResponse is the JSON form of a group. Items are referenced by id.
type GroupResponse struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Count   int      `json:"count"`
	ItemIDs []string `json:"itemIds"`
}

// RollupResponse is the body returned by POST /v1/rollup.
type RollupResponse struct {
	Items        []ItemResponse   `json:"items"`
	Groups       []GroupResponse  `json:"groups"`
	Facets       []domfacet.Group `json:"facets"`
	Aggregations []domagg.Result  `json:"aggregations"`
	Pagination   dompage.State    `json:"pagination"`
	Columns      []column.Column  `json:"columns"`
	Views        []view.SavedView `json:"views,omitempty"`
	State        view.State       `json:"state"`
	Fragments    []string         `json:"fragments,omitempty"`
	RenderError  *ErrorResponse   `json:"renderError,omitempty"`
	FromCache    bool             `json:"fromCache"`
	CycleID      string           `json:"cycleId"`
}

// CompileRequest is the body of POST /v1/compile.
type CompileRequest struct {
	Query json.RawMessage `json:"query"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Mode   string            `json:"mode,omitempty"`
	Checks map[string]string `json:"checks"`
}

// ServerInterface lists the API operations.
type ServerInterface interface {
	// POST /v1/rollup
	Rollup(w http.ResponseWriter, r *http.Request, params RollupParams)
	// POST /v1/refresh
	Refresh(w http.ResponseWriter, r *http.Request)
	// POST /v1/compile
	CompileQuery(w http.ResponseWriter, r *http.Request)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts the API routes on options.BaseRouter.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	errorHandler := options.ErrorHandlerFunc
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	r.Post("/v1/rollup", func(w http.ResponseWriter, req *http.Request) {
		params, err := bindRollupParams(req)
		if err != nil {
			errorHandler(w, req, err)
			return
		}
		si.Rollup(w, req, params)
	})
	r.Post("/v1/refresh", si.Refresh)
	r.Post("/v1/compile", si.CompileQuery)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}

func bindRollupParams(r *http.Request) (RollupParams, error) {
	var params RollupParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &params.Page); err != nil {
		return params, fmt.Errorf("invalid format for parameter page: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "pageSize", q, &params.PageSize); err != nil {
		return params, fmt.Errorf("invalid format for parameter pageSize: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "mode", q, &params.Mode); err != nil {
		return params, fmt.Errorf("invalid format for parameter mode: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "refresh", q, &params.Refresh); err != nil {
		return params, fmt.Errorf("invalid format for parameter refresh: %w", err)
	}
	return params, nil
}
