// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feeds

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/post-engine/pkg/types"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <item>
      <title><![CDATA[Shipping &amp; scaling queues]]></title>
      <link>https://example.com/queues</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/second</link>
    </item>
    <item>
      <title></title>
      <link>https://example.com/untitled</link>
    </item>
  </channel>
</rss>`

const atomSample = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <entry>
    <title>Atom entry one</title>
    <link rel="alternate" href="https://example.org/one"/>
    <updated>2026-02-10T08:00:00Z</updated>
  </entry>
  <entry>
    <title>Atom entry two</title>
    <link href="https://example.org/two"/>
    <published>2026-02-11T09:30:00Z</published>
  </entry>
</feed>`

func TestParseRSS(t *testing.T) {
	entries, err := Parse([]byte(rssSample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (untitled item skipped)", len(entries))
	}
	if entries[0].Title != "Shipping & scaling queues" {
		t.Errorf("CDATA/entity title = %q", entries[0].Title)
	}
	if entries[0].URL != "https://example.com/queues" {
		t.Errorf("URL = %q", entries[0].URL)
	}
	if entries[0].PublishedAt.IsZero() {
		t.Error("pubDate should parse")
	}
	if !entries[1].PublishedAt.IsZero() {
		t.Error("missing pubDate should yield zero time")
	}
}

func TestParseAtom(t *testing.T) {
	entries, err := Parse([]byte(atomSample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].URL != "https://example.org/one" {
		t.Errorf("alternate link = %q", entries[0].URL)
	}
	if entries[1].URL != "https://example.org/two" {
		t.Errorf("bare href link = %q", entries[1].URL)
	}
	want := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	if !entries[0].PublishedAt.Equal(want) {
		t.Errorf("updated fallback date = %v, want %v", entries[0].PublishedAt, want)
	}
}

func TestParseGarbage(t *testing.T) {
	entries, err := Parse([]byte("this is not xml at all"))
	if err != nil {
		t.Fatalf("garbage input must not error, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("garbage input yielded %d entries", len(entries))
	}
}

func testPlanningCfg() types.PlanningConfig {
	return types.PlanningConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 2 * time.Second, UserAgent: "post-engine-test/0.1"},
		MaxPerFeed: 6,
	}
}

func TestFetchAllMergesAfterSettle(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(rssSample))
	}))
	defer good.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer broken.Close()

	specs := []types.FeedSpec{
		{Category: "software", Source: "good", URL: good.URL},
		{Category: "software", Source: "broken", URL: broken.URL},
	}

	var logBuf bytes.Buffer
	got := FetchAll(context.Background(), good.Client(), specs, testPlanningCfg(), &logBuf)

	if len(got) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(got))
	}
	for _, c := range got {
		if c.SourceType != types.SourceTrendFeed {
			t.Errorf("source type = %q, want trend", c.SourceType)
		}
		if c.Category != "software" {
			t.Errorf("category = %q, want software", c.Category)
		}
	}
	if !strings.Contains(logBuf.String(), "warning: feed broken failed") {
		t.Errorf("broken feed should log a warning, got %q", logBuf.String())
	}
}

func TestFetchAllCapsPerFeed(t *testing.T) {
	var items strings.Builder
	for i := 0; i < 10; i++ {
		items.WriteString(`<item><title>Post</title><link>https://example.com/p</link></item>`)
	}
	feed := `<rss><channel>` + items.String() + `</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	cfg := testPlanningCfg()
	cfg.MaxPerFeed = 3
	got := FetchAll(context.Background(), srv.Client(), []types.FeedSpec{{Source: "s", URL: srv.URL}}, cfg, &bytes.Buffer{})
	if len(got) != 3 {
		t.Errorf("len(candidates) = %d, want 3", len(got))
	}
}

func TestFetchAllUnreachableHostDegrades(t *testing.T) {
	specs := []types.FeedSpec{{Source: "gone", URL: "http://127.0.0.1:1/feed.xml"}}
	var logBuf bytes.Buffer
	got := FetchAll(context.Background(), &http.Client{}, specs, testPlanningCfg(), &logBuf)
	if len(got) != 0 {
		t.Errorf("unreachable feed should contribute nothing, got %d entries", len(got))
	}
	if logBuf.Len() == 0 {
		t.Error("unreachable feed should log a warning")
	}
}
