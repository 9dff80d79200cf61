// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history maintains the publish-history index: a SQLite database
// over the content directory that serves published titles to novelty
// scoring and published bodies to the duplicate-content check. The index
// is rebuilt incrementally from the post files, so deleting the database
// is always safe.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"
)

const (
	indexDir = "index"
	dbFile   = "posts.db"
)

// Post is one published article as recorded in the index.
type Post struct {
	Slug  string
	Title string
	Date  string
	Path  string
	Body  string
}

// Store manages the publish-history SQLite database.
type Store struct {
	db         *sql.DB
	contentDir string
}

// NewStore opens or creates the index at stateDir/index/posts.db and
// ensures the schema exists.
func NewStore(stateDir, contentDir string) (*Store, error) {
	dbDir := filepath.Join(stateDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, contentDir: contentDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS posts (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		date TEXT,
		path TEXT NOT NULL,
		body TEXT NOT NULL,
		file_mod_time TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// ReindexSummary holds counts from an index rebuild.
type ReindexSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of post files processed.
func (s ReindexSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Reindex scans the content directory for .md/.mdx posts and brings the
// index up to date. Unchanged files (by mod time) are skipped; changed
// ones are re-parsed and upserted. A missing content directory is an
// empty corpus, not an error.
func (s *Store) Reindex(ctx context.Context, w io.Writer) (ReindexSummary, error) {
	entries, err := os.ReadDir(s.contentDir)
	if err != nil {
		if os.IsNotExist(err) {
			return ReindexSummary{}, nil
		}
		return ReindexSummary{}, fmt.Errorf("reading content directory %s: %w", s.contentDir, err)
	}

	var summary ReindexSummary

	for _, entry := range entries {
		if entry.IsDir() || !isPostFile(entry.Name()) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		path := filepath.Join(s.contentDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM posts WHERE path = ?`, path,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		post, err := parsePostFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		_, err = s.db.ExecContext(ctx,
			`INSERT INTO posts (slug, title, date, path, body, file_mod_time)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(slug) DO UPDATE SET
				title=excluded.title, date=excluded.date, path=excluded.path,
				body=excluded.body, file_mod_time=excluded.file_mod_time`,
			post.Slug, post.Title, post.Date, post.Path, post.Body, modTime,
		)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		if isUpdate {
			summary.Updated++
		} else {
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "indexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

// Record inserts or updates one post after publication, without waiting
// for the next full reindex.
func (s *Store) Record(ctx context.Context, post Post) error {
	modTime := time.Now().UTC().Format(time.RFC3339Nano)
	if info, err := os.Stat(post.Path); err == nil {
		modTime = info.ModTime().UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (slug, title, date, path, body, file_mod_time)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			title=excluded.title, date=excluded.date, path=excluded.path,
			body=excluded.body, file_mod_time=excluded.file_mod_time`,
		post.Slug, post.Title, post.Date, post.Path, post.Body, modTime,
	)
	if err != nil {
		return fmt.Errorf("recording post %s: %w", post.Slug, err)
	}
	return nil
}

// Titles returns every indexed post title, ordered by date then slug for
// deterministic output.
func (s *Store) Titles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM posts ORDER BY date, slug`)
	if err != nil {
		return nil, fmt.Errorf("querying titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// Bodies returns every indexed post body, ordered by date then slug.
func (s *Store) Bodies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM posts ORDER BY date, slug`)
	if err != nil {
		return nil, fmt.Errorf("querying bodies: %w", err)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scanning body: %w", err)
		}
		bodies = append(bodies, b)
	}
	return bodies, rows.Err()
}

func isPostFile(name string) bool {
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".mdx")
}

// frontMatter is the subset of post front matter the index needs.
type frontMatter struct {
	Title string `yaml:"title"`
	Slug  string `yaml:"slug"`
	Date  string `yaml:"date"`
}

// parsePostFile splits a front-matter-delimited post into metadata and
// body. Posts without front matter fall back to the filename as slug.
func parsePostFile(path string) (Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Post{}, fmt.Errorf("reading post: %w", err)
	}

	fmText, body := splitFrontMatter(string(data))

	var fm frontMatter
	if fmText != "" {
		if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
			return Post{}, fmt.Errorf("parsing front matter: %w", err)
		}
	}

	slug := fm.Slug
	if slug == "" {
		base := filepath.Base(path)
		slug = strings.TrimSuffix(strings.TrimSuffix(base, ".mdx"), ".md")
	}

	return Post{
		Slug:  slug,
		Title: fm.Title,
		Date:  fm.Date,
		Path:  path,
		Body:  body,
	}, nil
}

// splitFrontMatter separates a leading "---" fenced YAML block from the
// document body. Documents without a fence are all body.
func splitFrontMatter(content string) (string, string) {
	if !strings.HasPrefix(content, "---\n") {
		return "", content
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", content
	}
	fmText := rest[:end]
	body := rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return fmText, strings.TrimLeft(body, "\n")
}
