// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feeds

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"
	"time"
)

// Entry is one parsed feed item.
type Entry struct {
	Title       string
	URL         string
	PublishedAt time.Time
}

// rssDoc covers RSS 2.0 documents (<rss><channel><item>...).
type rssDoc struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// atomDoc covers Atom documents (<feed><entry>...).
type atomDoc struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// dateLayouts are the publication date formats seen across real feeds.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02",
}

// Parse decodes a feed document, accepting both RSS <item> and Atom
// <entry> blocks. The decoder is configured leniently: unknown charsets
// pass through, CDATA and entities are unwrapped by encoding/xml, and
// entries missing a title or link are skipped rather than failing the
// whole document.
func Parse(data []byte) ([]Entry, error) {
	if items := decodeRSS(data); len(items) > 0 {
		return items, nil
	}
	return decodeAtom(data), nil
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return dec
}

func decodeRSS(data []byte) []Entry {
	var doc rssDoc
	if err := newDecoder(data).Decode(&doc); err != nil {
		return nil
	}

	var entries []Entry
	for _, item := range doc.Channel.Items {
		title := sanitizeTitle(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		entries = append(entries, Entry{
			Title:       title,
			URL:         link,
			PublishedAt: parseDate(item.PubDate),
		})
	}
	return entries
}

func decodeAtom(data []byte) []Entry {
	var doc atomDoc
	if err := newDecoder(data).Decode(&doc); err != nil {
		return nil
	}

	var entries []Entry
	for _, e := range doc.Entries {
		title := sanitizeTitle(e.Title)
		link := pickAtomLink(e.Links)
		if title == "" || link == "" {
			continue
		}
		published := e.Published
		if published == "" {
			published = e.Updated
		}
		entries = append(entries, Entry{
			Title:       title,
			URL:         link,
			PublishedAt: parseDate(published),
		})
	}
	return entries
}

// pickAtomLink prefers rel="alternate" (or unset rel), falling back to the
// first href present.
func pickAtomLink(links []atomLink) string {
	for _, l := range links {
		if (l.Rel == "" || l.Rel == "alternate") && l.Href != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	for _, l := range links {
		if l.Href != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// sanitizeTitle strips any embedded markup and collapses whitespace.
// encoding/xml already unwraps CDATA sections and decodes entities.
func sanitizeTitle(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
