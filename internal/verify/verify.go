// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify reconciles source lists coming back from the generation
// service against the research stage's own trusted list. Generation
// services are known to fabricate URLs, so this boundary is a fail-closed
// allow-list, not a validator: an untrusted source never propagates past
// it.
package verify

import (
	"net/url"
	"strings"

	"github.com/pdiddy/post-engine/pkg/types"
)

const (
	// MaxSources caps the merged source list in augmenting mode.
	MaxSources = 6

	// minValid is the number of parseable candidate URLs below which the
	// whole candidate list is rejected in favor of the trusted list.
	minValid = 2
)

// Sources filters candidate sources against the trusted allow-list. Only
// candidates whose URL matches a trusted entry are kept; the candidate's
// (usually richer) title overrides the trusted one. If the candidate list
// holds fewer than two parseable http/https URLs it is rejected outright
// and the trusted list is returned unchanged.
func Sources(candidates, trusted []types.Source) []types.Source {
	return merge(candidates, trusted, false)
}

// SourcesAugmented behaves like Sources but additionally admits candidates
// with unknown, parseable http/https URLs as new entries until the merged
// list reaches MaxSources. The fewer-than-two-valid fallback applies the
// same way.
func SourcesAugmented(candidates, trusted []types.Source) []types.Source {
	return merge(candidates, trusted, true)
}

func merge(candidates, trusted []types.Source, allowNew bool) []types.Source {
	valid := 0
	for _, c := range candidates {
		if isHTTPURL(c.URL) {
			valid++
		}
	}
	if valid < minValid {
		return trusted
	}

	trustedByURL := make(map[string]int, len(trusted))
	for i, s := range trusted {
		trustedByURL[s.URL] = i
	}

	var verified []types.Source
	seen := make(map[string]bool)

	for _, c := range candidates {
		if !isHTTPURL(c.URL) || seen[c.URL] {
			continue
		}

		if i, ok := trustedByURL[c.URL]; ok {
			kept := trusted[i]
			if strings.TrimSpace(c.Title) != "" {
				kept.Title = c.Title
			}
			verified = append(verified, kept)
			seen[c.URL] = true
			continue
		}

		if allowNew && len(verified) < MaxSources {
			verified = append(verified, c)
			seen[c.URL] = true
		}
	}

	if len(verified) == 0 {
		return trusted
	}
	if len(verified) > MaxSources {
		verified = verified[:MaxSources]
	}
	return verified
}

// Claims resolves every claim's citation against the verified source list,
// by URL first and title second. A claim whose citation matches nothing is
// reassigned to verified[i % len] round-robin rather than dropped, so each
// claim always carries a valid citation even when the generation service
// mangled the source fields.
func Claims(claims []types.Claim, verified []types.Source) []types.Claim {
	if len(verified) == 0 {
		return nil
	}

	byURL := make(map[string]types.Source, len(verified))
	byTitle := make(map[string]types.Source, len(verified))
	for _, s := range verified {
		byURL[s.URL] = s
		byTitle[strings.ToLower(s.Title)] = s
	}

	out := make([]types.Claim, 0, len(claims))
	for i, c := range claims {
		src, ok := byURL[c.SourceURL]
		if !ok && c.SourceTitle != "" {
			src, ok = byTitle[strings.ToLower(c.SourceTitle)]
		}
		if !ok {
			src = verified[i%len(verified)]
		}
		c.SourceURL = src.URL
		c.SourceTitle = src.Title
		if c.Confidence == "" {
			c.Confidence = types.ConfidenceMedium
		}
		out = append(out, c)
	}
	return out
}

// isHTTPURL reports whether raw parses as an absolute http or https URL.
func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
