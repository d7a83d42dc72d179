package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/domain"
	domagg "github.com/kailas-cloud/rollup/internal/domain/aggregation"
	"github.com/kailas-cloud/rollup/internal/domain/item"
	dompage "github.com/kailas-cloud/rollup/internal/domain/pagination"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/view"
	logpkg "github.com/kailas-cloud/rollup/internal/logger"
	"github.com/kailas-cloud/rollup/internal/settings"
	healthuc "github.com/kailas-cloud/rollup/internal/usecase/health"
	rollupuc "github.com/kailas-cloud/rollup/internal/usecase/rollup"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Defaults holds server-side fallbacks for the session state.
type Defaults struct {
	PageSize    int
	MaxPageSize int
	Pagination  dompage.Mode
	Mode        string
}

// Server implements ServerInterface.
type Server struct {
	rollup   *rollupuc.Service
	settings *settings.Parser
	health   *healthuc.Service
	defaults Defaults
	logger   *zap.Logger
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	rollup *rollupuc.Service,
	parser *settings.Parser,
	health *healthuc.Service,
	defaults Defaults,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.PageSize <= 0 {
		defaults.PageSize = dompage.DefaultPageSize
	}
	if defaults.Pagination == "" {
		defaults.Pagination = dompage.Paged
	}
	return &Server{
		rollup:   rollup,
		settings: parser,
		health:   health,
		defaults: defaults,
		logger:   logger,
	}
}

// Rollup handles POST /v1/rollup.
func (s *Server) Rollup(w http.ResponseWriter, r *http.Request, params RollupParams) {
	var req RollupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	parsed := s.settings.Parse(req.Raw)
	state := s.resolveState(req, parsed.Views, params)
	if s.defaults.MaxPageSize > 0 && state.PageSize > s.defaults.MaxPageSize {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "pageSize exceeds the maximum page size")
		return
	}

	out := s.rollup.Run(r.Context(), rollupuc.Input{
		Sources:      parsed.Sources,
		Query:        parsed.Query,
		Columns:      parsed.Columns,
		Aggregations: parsed.Aggregations,
		Actions:      parsed.Actions,
		State:        state,
		Template:     req.Template,
		ViewKey:      req.SessionID,
		Refresh:      params.Refresh != nil && *params.Refresh,
	})

	resp := rollupToResponse(out, state, parsed.Views)
	if out.RenderError != nil {
		logpkg.FromContext(r.Context()).Warn("render error", zap.Error(out.RenderError))
		resp.RenderError = renderErrorToResponse(out.RenderError)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /v1/refresh.
func (s *Server) Refresh(w http.ResponseWriter, _ *http.Request) {
	s.rollup.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

// CompileQuery handles POST /v1/compile.
func (s *Server) CompileQuery(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, query.Compile(s.settings.Query(req.Query)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Mode:   s.defaults.Mode,
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// resolveState builds the session state: body state (or server defaults), then
// the requested or default saved view, then query parameter overrides.
func (s *Server) resolveState(req RollupRequest, views []view.SavedView, params RollupParams) view.State {
	state := view.NewState(s.defaults.Pagination, s.defaults.PageSize)
	if req.State != nil {
		state = *req.State
	}

	switch {
	case req.ViewID != "":
		for _, v := range views {
			if v.ID == req.ViewID {
				state = state.ApplyView(v)
				break
			}
		}
	case req.State == nil:
		if v, ok := view.DefaultOf(views); ok {
			state = state.ApplyView(v)
		}
	}

	if params.Mode != nil {
		state = state.SwitchMode(dompage.ParseMode(*params.Mode))
	}
	if params.PageSize != nil {
		state.PageSize = *params.PageSize
	}
	if params.Page != nil {
		state = state.GoTo(*params.Page)
	}
	if state.PageSize <= 0 {
		state.PageSize = s.defaults.PageSize
	}
	return state.Normalize()
}

func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err //nolint:wrapcheck // surfaced to the client as is
}

func renderErrorToResponse(err error) *ErrorResponse {
	switch {
	case errors.Is(err, domain.ErrRenderCanceled):
		return &ErrorResponse{Code: ErrorResponseCodeRenderCanceled, Message: domain.ErrRenderCanceled.Error()}
	case errors.Is(err, domain.ErrTemplateCompile), errors.Is(err, domain.ErrTemplateRender):
		return &ErrorResponse{Code: ErrorResponseCodeRenderFailed, Message: err.Error()}
	default:
		return &ErrorResponse{Code: ErrorResponseCodeInternalError, Message: "internal error"}
	}
}

func rollupToResponse(out rollupuc.Output, state view.State, views []view.SavedView) RollupResponse {
	items := make([]ItemResponse, len(out.Items))
	for i, it := range out.Items {
		items[i] = itemToResponse(it)
		items[i].Actions = out.Actions[it.ID()]
		items[i].Styles = out.Styles[it.ID()]
	}

	groups := make([]GroupResponse, len(out.Groups))
	for i, g := range out.Groups {
		ids := make([]string, len(g.Items))
		for j, it := range g.Items {
			ids[j] = it.ID()
		}
		groups[i] = GroupResponse{Key: g.Key, Label: g.Label, Count: g.Count(), ItemIDs: ids}
	}

	aggs := out.Aggregations
	if aggs == nil {
		aggs = []domagg.Result{}
	}

	return RollupResponse{
		Items:        items,
		Groups:       groups,
		Facets:       out.Facets,
		Aggregations: aggs,
		Pagination:   out.Pagination,
		Columns:      out.Columns,
		Views:        views,
		State:        state,
		Fragments:    out.Fragments,
		FromCache:    out.FromCache,
		CycleID:      out.CycleID,
	}
}

func itemToResponse(it item.Item) ItemResponse {
	resp := ItemResponse{
		ID:             it.ID(),
		NativeID:       it.NativeID(),
		Title:          it.Title(),
		Description:    it.Description(),
		Author:         it.Author(),
		Editor:         it.Editor(),
		Created:        timePtr(it.Created()),
		Modified:       timePtr(it.Modified()),
		FileRef:        it.FileRef(),
		FileType:       it.FileType(),
		ContentType:    it.ContentType(),
		Category:       it.Category(),
		SourceURL:      it.SourceURL(),
		SourceName:     it.SourceName(),
		CollectionID:   it.CollectionID(),
		CollectionName: it.CollectionName(),
		Federated:      it.IsFromFederatedSearch(),
	}
	if fields := it.Fields(); len(fields) > 0 {
		resp.Fields = make(map[string]any, len(fields))
		for k, v := range fields {
			resp.Fields[k] = plainValue(v)
		}
	}
	return resp
}

// plainValue maps a typed value to its natural JSON form.
func plainValue(v item.Value) any {
	switch v.Kind() {
	case item.KindNull:
		return nil
	case item.KindNumber:
		f, _ := v.Float()
		return f
	case item.KindBool:
		b, _ := v.BoolValue()
		return b
	case item.KindDate:
		t, _ := v.Time()
		return t.UTC()
	default:
		return v.Text()
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
