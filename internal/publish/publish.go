// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish writes a gated article into the content directory as a
// front-mattered MDX document and records it in the publish-history index.
// It is the only stage allowed to touch the content directory, and it
// refuses to run without a passing quality report.
package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/post-engine/internal/history"
	"github.com/pdiddy/post-engine/pkg/types"
)

// maxFilenameSuffix bounds the collision probe: <date>-<slug>.mdx, then
// -2 through -20.
const maxFilenameSuffix = 20

// frontMatter is the YAML block rendered between the --- fences. Field
// order here is the order in the published file.
type frontMatter struct {
	Title        string         `yaml:"title"`
	Summary      string         `yaml:"summary"`
	Date         string         `yaml:"date"`
	Slug         string         `yaml:"slug"`
	Category     string         `yaml:"category,omitempty"`
	Tags         []string       `yaml:"tags"`
	CanonicalURL string         `yaml:"canonical_url"`
	Sources      []types.Source `yaml:"sources"`
}

// Recorder receives the published post for the history index.
type Recorder interface {
	Record(ctx context.Context, post history.Post) error
}

// Publish renders the article into contentDir and records it in the
// index. A report without Pass is refused outright: the report is the
// sole gate, and publish never re-judges the article. The returned path
// is the file actually written, after collision probing.
func Publish(ctx context.Context, article types.Article, report types.QualityReport, contentDir string, recorder Recorder, w io.Writer) (string, error) {
	if !report.Pass {
		return "", fmt.Errorf("refusing to publish: quality report failed (score %d): %s",
			report.Score, strings.Join(report.Reasons, "; "))
	}

	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return "", fmt.Errorf("creating content directory: %w", err)
	}

	document, err := Render(article)
	if err != nil {
		return "", fmt.Errorf("rendering article: %w", err)
	}

	path, err := availablePath(contentDir, article.Date, article.Slug)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("writing post: %w", err)
	}
	fmt.Fprintf(w, "published: %s\n", path)

	if recorder != nil {
		post := history.Post{
			Slug:  article.Slug,
			Title: article.Title,
			Date:  article.Date,
			Path:  path,
			Body:  article.ContentMarkdown,
		}
		if err := recorder.Record(ctx, post); err != nil {
			fmt.Fprintf(w, "warning: recording post in history index: %v\n", err)
		}
	}
	return path, nil
}

// Render produces the complete front-mattered document for an article.
func Render(article types.Article) (string, error) {
	fm := frontMatter{
		Title:        article.Title,
		Summary:      article.Summary,
		Date:         article.Date,
		Slug:         article.Slug,
		Category:     article.Category,
		Tags:         article.Tags,
		CanonicalURL: article.CanonicalURL,
		Sources:      article.Sources,
	}

	encoded, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(encoded)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimRight(article.ContentMarkdown, "\n"))
	b.WriteString("\n")
	return b.String(), nil
}

// availablePath returns the first non-colliding filename for the post:
// <date>-<slug>.mdx, then numbered variants up to -20.
func availablePath(contentDir, date, slug string) (string, error) {
	base := fmt.Sprintf("%s-%s", date, slug)
	for i := 1; i <= maxFilenameSuffix; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		path := filepath.Join(contentDir, name+".mdx")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("no available filename for %s after %d candidates", base, maxFilenameSuffix)
}
