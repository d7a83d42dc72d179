// Package rollup embeds the content rollup engine: it fetches items from list
// collections and federated search, merges and deduplicates them, then filters,
// aggregates, sorts, pages, groups and optionally renders them.
//
// # Live backends
//
//	engine, _ := rollup.New(
//	    rollup.WithListBackends(pgStore, restClient),
//	    rollup.WithCurrentSite("https://intranet.example/sites/home"),
//	    rollup.WithSearchBackend(esStore),
//	    rollup.WithValkey("localhost:6379", ""),
//	)
//	defer engine.Close()
//
//	parsed := engine.Parse(rollup.Raw{Sources: sourcesJSON, Query: queryJSON})
//	out := engine.Run(ctx, rollup.Input{
//	    Sources: parsed.Sources,
//	    Query:   parsed.Query,
//	    State:   rollup.NewState(rollup.Paged, 20),
//	})
//
// # Rendering
//
// Input.Template renders the visible items. Runs sharing an Input.ViewKey form
// one view: a newer run cancels the older run's render. Runs without a key
// never cancel each other.
//
// # Demo mode
//
// WithDemo serves a deterministic sample set for every source, with no I/O:
//
//	engine, _ := rollup.New(rollup.WithDemo())
package rollup
