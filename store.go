package riverpress

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/grandriver/riverpress/model"
)

var (
	// ErrNotFound is returned when a requested post or settings row does not exist.
	ErrNotFound = sql.ErrNoRows
	// ErrSlugTaken is returned when a slug already belongs to a different post.
	ErrSlugTaken = errors.New("slug already in use")
)

const postColumns = `id, title, slug, excerpt, content, cover_url, tags, published, created_at, updated_at,
	publish_date, meta_title, meta_description, hero_kicker, hero_style, highlight_quote,
	summary_points, cta_label, cta_url, featured`

const publishOrder = `COALESCE(publish_date, created_at) DESC`

// Store wraps the SQLite database holding posts and settings. A Store bound
// to a request (see Scoped) runs every query on that request's connection.
type Store struct {
	db         *sql.DB
	q          Querier
	backupPath string
	logger     echo.Logger
}

// NewStore opens the database at path and applies pending migrations.
func NewStore(ctx context.Context, path, backupPath string, logger echo.Logger) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, q: db, backupPath: backupPath, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Scoped returns a copy of s that runs its queries on q.
func (s *Store) Scoped(q Querier) *Store {
	cp := *s
	cp.q = q
	return &cp
}

func scanPost(r rowScanner) (model.Post, error) {
	var p model.Post
	var coverURL, tags, publishDate, metaTitle, metaDescription sql.NullString
	var heroKicker, heroStyle, highlightQuote, summaryPoints, ctaLabel, ctaURL sql.NullString
	var published, featured int
	if err := r.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &coverURL, &tags, &published,
		&p.CreatedAt, &p.UpdatedAt, &publishDate, &metaTitle, &metaDescription, &heroKicker, &heroStyle,
		&highlightQuote, &summaryPoints, &ctaLabel, &ctaURL, &featured); err != nil {
		return model.Post{}, err
	}
	p.CoverURL = coverURL.String
	p.Tags = tags.String
	p.Published = published == 1
	p.Featured = featured == 1
	p.PublishDate = publishDate.String
	p.MetaTitle = metaTitle.String
	p.MetaDescription = metaDescription.String
	p.HeroKicker = heroKicker.String
	p.HeroStyle = model.NormalizeHeroStyle(heroStyle.String)
	p.HighlightQuote = highlightQuote.String
	p.SummaryPoints = summaryPoints.String
	p.CTALabel = ctaLabel.String
	p.CTAURL = ctaURL.String
	return p, nil
}

func scanInt(r rowScanner) (int, error) {
	var n int
	err := r.Scan(&n)
	return n, err
}

func scanString(r rowScanner) (string, error) {
	var s sql.NullString
	err := r.Scan(&s)
	return s.String, err
}

// nullable stores empty optional text as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// HomePosts returns up to limit published posts, featured first, then newest.
func (s *Store) HomePosts(ctx context.Context, limit int) ([]model.Post, error) {
	return queryAll(ctx, s.q, scanPost,
		`SELECT `+postColumns+` FROM posts WHERE published = 1 ORDER BY featured DESC, `+publishOrder+` LIMIT ?`, limit)
}

// ListPublished returns one page of published posts, newest first.
func (s *Store) ListPublished(ctx context.Context, limit, offset int) ([]model.Post, error) {
	return queryAll(ctx, s.q, scanPost,
		`SELECT `+postColumns+` FROM posts WHERE published = 1 ORDER BY `+publishOrder+` LIMIT ? OFFSET ?`, limit, offset)
}

// AllPublished returns every published post, newest first.
func (s *Store) AllPublished(ctx context.Context) ([]model.Post, error) {
	return queryAll(ctx, s.q, scanPost,
		`SELECT `+postColumns+` FROM posts WHERE published = 1 ORDER BY `+publishOrder)
}

// MorePosts returns up to limit other published posts, newest first.
func (s *Store) MorePosts(ctx context.Context, excludeSlug string, limit int) ([]model.Post, error) {
	return queryAll(ctx, s.q, scanPost,
		`SELECT `+postColumns+` FROM posts WHERE published = 1 AND slug != ? ORDER BY `+publishOrder+` LIMIT ?`,
		excludeSlug, limit)
}

// CountPublished returns the number of published posts.
func (s *Store) CountPublished(ctx context.Context) (int, error) {
	return queryOne(ctx, s.q, scanInt, `SELECT COUNT(*) FROM posts WHERE published = 1`)
}

// PublishedTags returns the sorted, distinct tags of all published posts.
func (s *Store) PublishedTags(ctx context.Context) ([]string, error) {
	raw, err := queryAll(ctx, s.q, scanString, `SELECT tags FROM posts WHERE published = 1`)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, tags := range raw {
		for _, t := range model.SplitTags(tags) {
			set[t] = struct{}{}
		}
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// PublishedSlugs returns the slugs of every published post, newest first.
func (s *Store) PublishedSlugs(ctx context.Context) ([]string, error) {
	return queryAll(ctx, s.q, scanString, `SELECT slug FROM posts WHERE published = 1 ORDER BY `+publishOrder)
}

// PostBySlug returns a post regardless of published state.
func (s *Store) PostBySlug(ctx context.Context, slug string) (model.Post, error) {
	return queryOne(ctx, s.q, scanPost, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
}

// PostByID returns a post regardless of published state.
func (s *Store) PostByID(ctx context.Context, id int64) (model.Post, error) {
	return queryOne(ctx, s.q, scanPost, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
}

// ListAll returns every post, drafts included, newest first.
func (s *Store) ListAll(ctx context.Context) ([]model.Post, error) {
	return queryAll(ctx, s.q, scanPost, `SELECT `+postColumns+` FROM posts ORDER BY `+publishOrder)
}

// Stats counts published, draft and featured posts.
func (s *Store) Stats(ctx context.Context) (model.DashboardStats, error) {
	return queryOne(ctx, s.q, func(r rowScanner) (model.DashboardStats, error) {
		var st model.DashboardStats
		err := r.Scan(&st.Published, &st.Draft, &st.Featured)
		return st, err
	}, `SELECT
    COALESCE(SUM(CASE WHEN published = 1 THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN published = 0 THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN featured = 1 THEN 1 ELSE 0 END), 0)
FROM posts`)
}

// SlugTaken reports whether slug belongs to a post other than exceptID.
func (s *Store) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	_, err := queryOne(ctx, s.q, scanInt, `SELECT id FROM posts WHERE slug = ? AND id != ?`, slug, exceptID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreatePost inserts p and returns its id. CreatedAt and UpdatedAt must be set.
func (s *Store) CreatePost(ctx context.Context, p model.Post) (int64, error) {
	taken, err := s.SlugTaken(ctx, p.Slug, 0)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrSlugTaken
	}
	id, err := execute(ctx, s.q, `
INSERT INTO posts (
    title, slug, excerpt, content, cover_url, tags, published, created_at, updated_at,
    publish_date, meta_title, meta_description, hero_kicker, hero_style, highlight_quote,
    summary_points, cta_label, cta_url, featured
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Slug, p.Excerpt, p.Content, nullable(p.CoverURL), nullable(p.Tags), boolInt(p.Published),
		p.CreatedAt, p.UpdatedAt, nullable(p.PublishDate), nullable(p.MetaTitle), nullable(p.MetaDescription),
		nullable(p.HeroKicker), nullable(string(p.HeroStyle)), nullable(p.HighlightQuote),
		nullable(p.SummaryPoints), nullable(p.CTALabel), nullable(p.CTAURL), boolInt(p.Featured))
	if err != nil && isUniqueViolation(err) {
		return 0, ErrSlugTaken
	}
	return id, err
}

// UpdatePost overwrites every editable field of the post with id p.ID.
// CreatedAt is left untouched.
func (s *Store) UpdatePost(ctx context.Context, p model.Post) error {
	taken, err := s.SlugTaken(ctx, p.Slug, p.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugTaken
	}
	res, err := s.q.ExecContext(ctx, `
UPDATE posts SET title = ?, slug = ?, excerpt = ?, content = ?, cover_url = ?, tags = ?,
    published = ?, updated_at = ?, publish_date = ?, meta_title = ?, meta_description = ?,
    hero_kicker = ?, hero_style = ?, highlight_quote = ?, summary_points = ?, cta_label = ?,
    cta_url = ?, featured = ?
WHERE id = ?`,
		p.Title, p.Slug, p.Excerpt, p.Content, nullable(p.CoverURL), nullable(p.Tags), boolInt(p.Published),
		p.UpdatedAt, nullable(p.PublishDate), nullable(p.MetaTitle), nullable(p.MetaDescription),
		nullable(p.HeroKicker), nullable(string(p.HeroStyle)), nullable(p.HighlightQuote),
		nullable(p.SummaryPoints), nullable(p.CTALabel), nullable(p.CTAURL), boolInt(p.Featured), p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost permanently removes a post. Deleting a missing id is not an error.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	_, err := execute(ctx, s.q, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// DuplicatePost copies the post with id into a new unpublished, unfeatured
// draft whose slug is the first free "<slug>-copy[-N]". It returns the new id.
func (s *Store) DuplicatePost(ctx context.Context, id int64, now string) (int64, error) {
	src, err := s.PostByID(ctx, id)
	if err != nil {
		return 0, err
	}
	slug, err := model.CopySlug(src.Slug, func(candidate string) (bool, error) {
		return s.SlugTaken(ctx, candidate, 0)
	})
	if err != nil {
		return 0, err
	}
	cp := src
	cp.ID = 0
	cp.Title = src.Title + " (Copy)"
	cp.Slug = slug
	cp.Published = false
	cp.Featured = false
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if cp.PublishDate == "" {
		cp.PublishDate = now
	}
	return s.CreatePost(ctx, cp)
}

// Settings returns the singleton settings row.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	return queryOne(ctx, s.q, func(r rowScanner) (model.Settings, error) {
		var st model.Settings
		err := r.Scan(&st.SiteName, &st.SiteDescription, &st.BaseURL)
		return st, err
	}, `SELECT site_name, site_description, base_url FROM settings WHERE id = 1`)
}

// SaveSettings writes the singleton settings row.
func (s *Store) SaveSettings(ctx context.Context, st model.Settings) error {
	_, err := execute(ctx, s.q, `
INSERT INTO settings (id, site_name, site_description, base_url) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET site_name = excluded.site_name,
    site_description = excluded.site_description, base_url = excluded.base_url`,
		st.SiteName, st.SiteDescription, strings.TrimSuffix(st.BaseURL, "/"))
	return err
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
