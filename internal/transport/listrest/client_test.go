package listrest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/rollup/internal/db"
	"github.com/kailas-cloud/rollup/internal/domain"
)

func TestBuildURL(t *testing.T) {
	got, err := BuildURL(db.ListQuery{
		SiteURL:       "https://contoso/sites/hr/",
		Collection:    "Team's Docs",
		Fields:        []string{"ID", "Title"},
		ContentTypeID: "0x0101",
		Filter:        "Category eq 'Finance'",
		OrderBy:       "Modified",
		Desc:          true,
		Top:           25,
	})
	if err != nil {
		t.Fatalf("BuildURL: %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasPrefix(got, "https://contoso/sites/hr/_api/web/lists/getbytitle('Team''s%20Docs')/items?") {
		t.Errorf("url = %q", got)
	}
	qs := u.Query()
	if qs.Get("$select") != "ID,Title" {
		t.Errorf("$select = %q", qs.Get("$select"))
	}
	if qs.Get("$filter") != "startswith(ContentTypeId,'0x0101') and (Category eq 'Finance')" {
		t.Errorf("$filter = %q", qs.Get("$filter"))
	}
	if qs.Get("$orderby") != "Modified desc" || qs.Get("$top") != "25" {
		t.Errorf("$orderby = %q, $top = %q", qs.Get("$orderby"), qs.Get("$top"))
	}
}

func TestBuildURL_RequiresSite(t *testing.T) {
	if _, err := BuildURL(db.ListQuery{Collection: "Docs"}); err == nil {
		t.Fatal("expected error for empty site url")
	}
}

func TestQueryList(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[{"ID":1,"Title":"A"},{"ID":2,"Title":"B"}]}`))
	}))
	defer srv.Close()

	c := New(Config{Token: "secret"})
	rows, err := c.QueryList(context.Background(), db.ListQuery{SiteURL: srv.URL, Collection: "Docs"})
	if err != nil {
		t.Fatalf("QueryList: %v", err)
	}
	if len(rows) != 2 || rows[1]["Title"] != "B" {
		t.Errorf("rows = %v", rows)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.Contains(gotAccept, "nometadata") {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestQueryList_StampsListID(t *testing.T) {
	var lookups atomic.Int32
	var lookupPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/items") {
			_, _ = w.Write([]byte(`{"value":[{"ID":1},{"ID":2,"ListId":"kept"}]}`))
			return
		}
		lookups.Add(1)
		lookupPath = r.URL.EscapedPath() + "?" + r.URL.RawQuery
		_, _ = w.Write([]byte(`{"Id":"{AB12CD34-0000-4000-8000-000000000001}"}`))
	}))
	defer srv.Close()

	c := New(Config{})
	q := db.ListQuery{SiteURL: srv.URL, Collection: "Team's Docs"}
	for range 2 {
		rows, err := c.QueryList(context.Background(), q)
		if err != nil {
			t.Fatalf("QueryList: %v", err)
		}
		if rows[0]["ListId"] != "ab12cd34-0000-4000-8000-000000000001" {
			t.Errorf("stamped ListId = %v", rows[0]["ListId"])
		}
		if rows[1]["ListId"] != "kept" {
			t.Errorf("row ListId overwritten: %v", rows[1]["ListId"])
		}
	}
	if n := lookups.Load(); n != 1 {
		t.Errorf("list id lookups = %d, want 1", n)
	}
	if lookupPath != "/_api/web/lists/getbytitle('Team''s%20Docs')?$select=Id" {
		t.Errorf("lookup = %q", lookupPath)
	}
}

func TestQueryList_ListIDLookupFailureKeepsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/items") {
			_, _ = w.Write([]byte(`{"value":[{"ID":1}]}`))
			return
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	rows, err := New(Config{}).QueryList(context.Background(), db.ListQuery{SiteURL: srv.URL, Collection: "Docs"})
	if err != nil {
		t.Fatalf("QueryList: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %v", rows)
	}
	if _, ok := rows[0]["ListId"]; ok {
		t.Errorf("no list id expected when the lookup fails, got %v", rows[0])
	}
}

func TestQueryList_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Config{})
	_, err := c.QueryList(context.Background(), db.ListQuery{SiteURL: srv.URL, Collection: "Docs"})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
	if errors.Is(err, domain.ErrBackendUnavailable) {
		t.Error("a client error must not be reported as backend unavailable")
	}
}

func TestQueryList_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	c := New(Config{})
	q := db.ListQuery{SiteURL: srv.URL, Collection: "Docs"}

	if _, err := c.QueryList(context.Background(), q); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("5xx: expected ErrBackendUnavailable, got %v", err)
	}

	srv.Close()
	if _, err := c.QueryList(context.Background(), q); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("closed server: expected ErrBackendUnavailable, got %v", err)
	}
}

func TestQueryList_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c := New(Config{})
	if _, err := c.QueryList(context.Background(), db.ListQuery{SiteURL: srv.URL, Collection: "Docs"}); err == nil {
		t.Fatal("expected decode error")
	}
}
