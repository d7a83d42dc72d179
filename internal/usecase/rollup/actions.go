package rollup

import (
	"net/url"
	"regexp"

	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/view"
)

// ResolvedAction is an action bound to one item.
type ResolvedAction struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind,omitempty"`
	URL   string `json:"url,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// ActionsFor binds actions to it. {FieldName} placeholders in URLs are replaced
// with the query-escaped field text. Actions that need write access are hidden
// on federated items, which are read-only.
func ActionsFor(actions []view.Action, it item.Item) []ResolvedAction {
	out := make([]ResolvedAction, 0, len(actions))
	for _, a := range actions {
		if a.RequiresWrite && it.IsFromFederatedSearch() {
			continue
		}
		out = append(out, ResolvedAction{
			ID:    a.ID,
			Title: a.Title,
			Kind:  a.Kind,
			URL:   expandURL(a.URL, it),
			Icon:  a.Icon,
		})
	}
	return out
}

func expandURL(tmpl string, it item.Item) string {
	if tmpl == "" {
		return ""
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		return url.QueryEscape(it.Field(name).Text())
	})
}
