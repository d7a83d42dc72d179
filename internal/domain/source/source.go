package source

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/rollup/internal/domain"
)

// Kind selects the fetch strategy for a source.
type Kind string

// Source kinds.
const (
	// ListCurrent queries one collection in the caller's current site.
	ListCurrent Kind = "list-current"
	// ListOther queries one collection in another site.
	ListOther Kind = "list-other"
	// SearchSite runs a federated query scoped to one site.
	SearchSite Kind = "search-site"
	// SearchSiteCollection runs a federated query scoped to one site collection.
	SearchSiteCollection Kind = "search-sitecollection"
	// SearchAll runs an unscoped federated query.
	SearchAll Kind = "search-all"
)

// IsList reports whether the kind is served by the list fetcher.
func (k Kind) IsList() bool { return k == ListCurrent || k == ListOther }

// IsSearch reports whether the kind is served by the search fetcher.
func (k Kind) IsSearch() bool {
	return k == SearchSite || k == SearchSiteCollection || k == SearchAll
}

// Valid reports whether the kind is known.
func (k Kind) Valid() bool { return k.IsList() || k.IsSearch() }

// DefaultCollection is the collection used when no source is configured.
const DefaultCollection = "Documents"

// Source describes one place items are fetched from.
type Source struct {
	ID             string `json:"id" validate:"required"`
	Kind           Kind   `json:"kind" validate:"required"`
	CollectionName string `json:"collectionName,omitempty"`
	SiteURL        string `json:"siteUrl,omitempty"`
	Scope          string `json:"scope,omitempty"`
	ContentTypeID  string `json:"contentTypeId,omitempty"`
	Enabled        bool   `json:"enabled"`
}

// UnmarshalJSON decodes a source. A missing "enabled" member means enabled.
func (s *Source) UnmarshalJSON(data []byte) error {
	type plain Source
	v := plain{Enabled: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err //nolint:wrapcheck // decoding error surfaced as is
	}
	*s = Source(v)
	return nil
}

// Default returns the source used when configuration supplies none.
func Default() Source {
	return Source{
		ID:             "default",
		Kind:           ListCurrent,
		CollectionName: DefaultCollection,
		Enabled:        true,
	}
}

// Validate checks the kind-specific target parameters.
func (s Source) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: source id is required", domain.ErrInvalidConfig)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownSourceKind, s.Kind)
	}
	if s.Kind.IsList() && strings.TrimSpace(s.CollectionName) == "" {
		return fmt.Errorf("%w: source %q: collection name is required", domain.ErrInvalidConfig, s.ID)
	}
	if s.Kind == ListOther && strings.TrimSpace(s.SiteURL) == "" {
		return fmt.Errorf("%w: source %q: site url is required", domain.ErrInvalidConfig, s.ID)
	}
	return nil
}

// Enabled filters the enabled sources, keeping their order.
func Enabled(sources []Source) []Source {
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Signature returns an order-independent structural hash of the enabled sources.
// Two configurations that differ only in source order or disabled entries share a signature.
func Signature(sources []Source) string {
	enabled := Enabled(sources)
	sort.SliceStable(enabled, func(i, j int) bool { return enabled[i].ID < enabled[j].ID })

	// encoding/json writes struct fields in declaration order, so the bytes are canonical.
	data, err := json.Marshal(enabled)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NormalizeSiteURL lower-cases a site url and strips trailing slashes for comparison.
func NormalizeSiteURL(u string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(u)), "/")
}
