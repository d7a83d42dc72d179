// Package demosource serves a deterministic sample item set per source without any I/O.
package demosource

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
)

// PerSource is the number of sample items generated for every source.
const PerSource = 12

var (
	titles = []string{
		"Quarterly budget", "Onboarding checklist", "Travel policy", "Vendor contract",
		"Release notes", "Team offsite agenda", "Security review", "Hiring plan",
		"Brand guidelines", "Incident postmortem", "Roadmap", "Expense report",
	}
	authors    = []string{"Ana Chen", "Bo Li", "Carla Diaz", "Dev Patel", ""}
	extensions = []string{"pdf", "docx", "xlsx", "pptx", "aspx"}
	categories = []string{"Finance", "HR", "Engineering", "Legal", ""}
	types      = []string{"Document", "Page", "Policy"}
)

// Fetcher produces sample items. Output depends only on the source id and the
// fixed epoch, so repeated calls return identical items.
type Fetcher struct {
	epoch time.Time
}

// New creates a demo fetcher anchored at epoch. A zero epoch uses 2024-01-01 UTC.
func New(epoch time.Time) *Fetcher {
	if epoch.IsZero() {
		epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Fetcher{epoch: epoch}
}

// Fetch returns up to limit sample items for src. The query is not applied.
func (f *Fetcher) Fetch(_ context.Context, src source.Source, _ query.Query, limit int) []item.Item {
	n := PerSource
	if limit > 0 && limit < n {
		n = limit
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(src.ID))
	seed := int(h.Sum32() % 97)

	collection := src.CollectionName
	if collection == "" {
		collection = source.DefaultCollection
	}
	collectionID := "demo-" + src.ID

	items := make([]item.Item, 0, n)
	for i := range n {
		k := seed + i
		ext := extensions[k%len(extensions)]
		items = append(items, item.New(item.Params{
			NativeID:    fmt.Sprint(i + 1),
			Title:       titles[k%len(titles)],
			Description: fmt.Sprintf("Sample %s from %s", titles[k%len(titles)], collection),
			Author:      authors[k%len(authors)],
			Editor:      authors[(k+1)%len(authors)],
			Created:     f.epoch.Add(time.Duration(k) * 24 * time.Hour),
			// Modified descends with i so each source is already in recency order.
			Modified:    f.epoch.Add(time.Duration(n-i) * 36 * time.Hour),
			FileRef:     fmt.Sprintf("/sites/demo/%s/item-%d.%s", collection, i+1, ext),
			ContentType: types[k%len(types)],
			Category:    categories[k%len(categories)],
			Fields: map[string]item.Value{
				"Amount":   item.Number(float64((k*37)%500) + 0.5),
				"Status":   item.String([]string{"Draft", "Approved", "Archived"}[k%3]),
				"Reviewed": item.Bool(k%2 == 0),
			},
			SourceURL:      "https://demo.example/sites/demo",
			SourceName:     "demo",
			CollectionID:   collectionID,
			CollectionName: collection,
			Federated:      src.Kind.IsSearch(),
		}))
	}
	return items
}
