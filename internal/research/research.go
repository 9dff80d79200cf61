// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research produces the per-attempt ResearchBundle: a verified
// source list plus supported claims for the selected topic. A structured
// generation backend may enrich the bundle, but everything it returns is
// reconciled against the deterministic source list before use.
package research

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/post-engine/internal/genai"
	"github.com/pdiddy/post-engine/internal/verify"
	"github.com/pdiddy/post-engine/pkg/types"
)

// DefaultSourceRules maps topic keywords to trusted reference sources,
// used when the config does not provide rules.
var DefaultSourceRules = []types.SourceRule{
	{
		Keywords: []string{"typescript", "ts"},
		Sources: []types.Source{
			{Title: "TypeScript Handbook", URL: "https://www.typescriptlang.org/docs/"},
			{Title: "TypeScript Release Notes", URL: "https://devblogs.microsoft.com/typescript/"},
		},
	},
	{
		Keywords: []string{"react", "next.js", "next"},
		Sources: []types.Source{
			{Title: "React Docs", URL: "https://react.dev/"},
			{Title: "Next.js Docs", URL: "https://nextjs.org/docs"},
		},
	},
	{
		Keywords: []string{"go", "golang"},
		Sources: []types.Source{
			{Title: "Go Documentation", URL: "https://go.dev/doc/"},
			{Title: "The Go Blog", URL: "https://go.dev/blog/"},
		},
	},
	{
		Keywords: []string{"node", "node.js", "express"},
		Sources: []types.Source{
			{Title: "Node.js Documentation", URL: "https://nodejs.org/en/docs"},
			{Title: "Express Guide", URL: "https://expressjs.com/en/guide/routing.html"},
		},
	},
	{
		Keywords: []string{"docker", "container", "kubernetes", "k8s"},
		Sources: []types.Source{
			{Title: "Docker Docs", URL: "https://docs.docker.com/"},
			{Title: "Kubernetes Docs", URL: "https://kubernetes.io/docs/"},
		},
	},
}

// DefaultFallbackSources pad the list when keyword rules match fewer than
// two sources.
var DefaultFallbackSources = []types.Source{
	{Title: "GitHub Engineering Blog", URL: "https://github.blog/engineering/"},
	{Title: "Cloudflare Blog", URL: "https://blog.cloudflare.com/"},
	{Title: "Martin Fowler", URL: "https://martinfowler.com/"},
}

// maxInferredSources caps the deterministic source list.
const maxInferredSources = 4

// InferSources derives trusted sources for a topic from the keyword rule
// table. When fewer than two rule sources match, the fallback sources pad
// the list. The result is deduplicated by URL.
func InferSources(topicTitle string, rules []types.SourceRule, fallback []types.Source) []types.Source {
	if rules == nil {
		rules = DefaultSourceRules
	}
	if fallback == nil {
		fallback = DefaultFallbackSources
	}

	lower := strings.ToLower(topicTitle)
	var matched []types.Source
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, rule.Sources...)
				break
			}
		}
	}

	if len(matched) >= 2 {
		return uniqueByURL(matched)
	}

	padded := uniqueByURL(append(matched, fallback...))
	if len(padded) > maxInferredSources {
		padded = padded[:maxInferredSources]
	}
	return padded
}

func uniqueByURL(sources []types.Source) []types.Source {
	seen := make(map[string]bool, len(sources))
	var out []types.Source
	for _, s := range sources {
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	return out
}

// claimProfile is the deterministic claim table keyed by topic keyword.
var claimProfiles = []struct {
	keywords []string
	claims   []types.Claim
}{
	{
		keywords: []string{"typescript"},
		claims: []types.Claim{
			{Text: "Stricter TypeScript boundaries reduce runtime contract mismatches.", Confidence: types.ConfidenceHigh},
			{Text: "Combining runtime validation with static types improves API resilience.", Confidence: types.ConfidenceHigh},
		},
	},
	{
		keywords: []string{"ci", "pipeline"},
		claims: []types.Claim{
			{Text: "Incremental checks reduce CI latency while preserving confidence.", Confidence: types.ConfidenceMedium},
			{Text: "Fail-fast jobs and dependency caching are common CI optimization patterns.", Confidence: types.ConfidenceHigh},
		},
	},
}

var genericClaims = []types.Claim{
	{Text: "A small, iterative rollout strategy lowers production risk for new engineering practices.", Confidence: types.ConfidenceHigh},
	{Text: "Tracking failure modes early improves maintainability and incident response.", Confidence: types.ConfidenceHigh},
}

// buildClaims selects the claim profile for the topic and cites each claim
// round-robin across the source list.
func buildClaims(topicTitle string, sources []types.Source) []types.Claim {
	lower := strings.ToLower(topicTitle)

	claims := genericClaims
	for _, p := range claimProfiles {
		matched := false
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if matched {
			claims = p.claims
			break
		}
	}

	out := make([]types.Claim, len(claims))
	for i, c := range claims {
		src := sources[i%len(sources)]
		c.SourceURL = src.URL
		c.SourceTitle = src.Title
		out[i] = c
	}
	return out
}

// aiBundle is the shape requested from the generation backend.
type aiBundle struct {
	Claims  []types.Claim  `json:"claims"`
	Sources []types.Source `json:"sources"`
}

const researchSystemPrompt = `You are a research assistant for a technical blog.
Respond with a JSON object: {"claims": [{"claim", "source_url", "source_title",
"confidence"}], "sources": [{"title", "url"}]}. Confidence is one of low,
medium, high. Cite only real, well-known documentation and engineering blogs.`

// Build assembles the ResearchBundle for the selected topic. The
// deterministic source list is always computed first and acts as the
// trusted allow-list; if the generation backend contributes a bundle, its
// sources are verified against that list (with augmentation) and its
// claims are renormalized so every citation lands on a verified source.
// Generation being absent or failing degrades to the deterministic bundle.
func Build(ctx context.Context, backend genai.Backend, topic types.SelectedTopic, cfg types.ResearchConfig, now func() time.Time, w io.Writer) types.ResearchBundle {
	if now == nil {
		now = time.Now
	}
	trusted := InferSources(topic.Title, cfg.SourceRules, cfg.FallbackSources)
	today := now().Format("2006-01-02")
	for i := range trusted {
		if trusted[i].PublishedAt == "" {
			trusted[i].PublishedAt = today
		}
	}

	bundle := types.ResearchBundle{
		Topic:      topic.Title,
		Angle:      topic.Angle,
		SourceList: trusted,
		Claims:     buildClaims(topic.Title, trusted),
	}

	var generated aiBundle
	req := genai.Request{
		SystemPrompt: researchSystemPrompt,
		UserPrompt:   fmt.Sprintf("Topic: %s\nAngle: %s", topic.Title, topic.Angle),
	}
	if !genai.DecodeInto(ctx, backend, req, &generated, w) {
		return bundle
	}

	verified := verify.SourcesAugmented(generated.Sources, trusted)
	for i := range verified {
		if verified[i].PublishedAt == "" {
			verified[i].PublishedAt = today
		}
	}
	claims := verify.Claims(generated.Claims, verified)
	if len(claims) < 2 {
		fmt.Fprintf(w, "warning: generated research too thin (%d claims), using deterministic bundle\n", len(claims))
		return bundle
	}

	bundle.SourceList = verified
	bundle.Claims = claims
	return bundle
}
