package riverpress

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/gommon/log"

	"github.com/grandriver/riverpress/analytics"
	"github.com/grandriver/riverpress/model"
)

const testNow = "2024-03-01T09:00:00.000000"

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(context.Background(), filepath.Join(dir, "test.db"), filepath.Join(dir, "backup.csv"), log.New("test"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPost(slug string, published bool, publishDate string) model.Post {
	return model.Post{
		Title:       "Post " + slug,
		Slug:        slug,
		Excerpt:     "Excerpt for " + slug,
		Content:     "<p>Body of " + slug + "</p>",
		Tags:        "Tech, Large-Cap",
		Published:   published,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
		PublishDate: publishDate,
		HeroStyle:   model.HeroLight,
	}
}

func mustCreate(t *testing.T, s *Store, p model.Post) int64 {
	t.Helper()
	id, err := s.CreatePost(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePost(%s): %v", p.Slug, err)
	}
	return id
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		s, err := NewStore(context.Background(), path, "", nil)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		var version int
		if err := s.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
			t.Fatalf("read version: %v", err)
		}
		if version != migrations[len(migrations)-1].version {
			t.Errorf("schema version = %d, want %d", version, migrations[len(migrations)-1].version)
		}
		s.Close()
	}
}

func TestSeed(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	defaults := model.DefaultSettings("http://localhost:5000")

	for i := 0; i < 2; i++ {
		if err := s.Seed(ctx, defaults, testNow); err != nil {
			t.Fatalf("Seed %d: %v", i, err)
		}
	}

	posts, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(posts) != len(seedPosts) {
		t.Fatalf("got %d posts after seeding twice, want %d", len(posts), len(seedPosts))
	}
	st, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if st != defaults {
		t.Errorf("settings = %+v, want %+v", st, defaults)
	}

	f, err := os.Open(s.backupPath)
	if err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if len(records) != len(seedPosts)+1 {
		t.Errorf("backup has %d records, want header + %d", len(records), len(seedPosts))
	}
	if len(records) > 0 && len(records[0]) != len(backupColumns) {
		t.Errorf("backup header has %d columns, want %d", len(records[0]), len(backupColumns))
	}
}

func TestSeedBackupFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// The backup path sits under a regular file, so writing it must fail.
	s, err := NewStore(context.Background(), filepath.Join(dir, "test.db"), filepath.Join(blocker, "backup.csv"), log.New("test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	if err := s.Seed(context.Background(), model.DefaultSettings("http://localhost:5000"), testNow); err != nil {
		t.Fatalf("Seed returned backup failure: %v", err)
	}
}

func TestCreateAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := testPost("round-trip", true, "2024-01-15")
	p.MetaTitle = "Meta"
	p.SummaryPoints = "one\ntwo"
	p.Featured = true
	id := mustCreate(t, s, p)

	got, err := s.PostByID(ctx, id)
	if err != nil {
		t.Fatalf("PostByID: %v", err)
	}
	p.ID = id
	if got != p {
		t.Errorf("PostByID = %+v\nwant %+v", got, p)
	}
	bySlug, err := s.PostBySlug(ctx, "round-trip")
	if err != nil || bySlug.ID != id {
		t.Errorf("PostBySlug = %+v, %v", bySlug, err)
	}
	if _, err := s.PostBySlug(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("PostBySlug(missing) err = %v, want ErrNotFound", err)
	}
}

func TestSlugUniqueness(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	first := mustCreate(t, s, testPost("taken", true, ""))
	second := mustCreate(t, s, testPost("other", true, ""))

	if _, err := s.CreatePost(ctx, testPost("taken", false, "")); !errors.Is(err, ErrSlugTaken) {
		t.Errorf("CreatePost duplicate slug err = %v, want ErrSlugTaken", err)
	}

	p, err := s.PostByID(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	p.Slug = "taken"
	if err := s.UpdatePost(ctx, p); !errors.Is(err, ErrSlugTaken) {
		t.Errorf("UpdatePost to another post's slug err = %v, want ErrSlugTaken", err)
	}

	own, err := s.PostByID(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	own.Title = "Renamed"
	if err := s.UpdatePost(ctx, own); err != nil {
		t.Errorf("UpdatePost keeping its own slug: %v", err)
	}
}

func TestUpdateMissingPost(t *testing.T) {
	s := setupTestStore(t)
	p := testPost("ghost", true, "")
	p.ID = 999
	if err := s.UpdatePost(context.Background(), p); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePost(missing) err = %v, want ErrNotFound", err)
	}
}

func TestStoreDuplicatePost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	src := testPost("aapl-services-momentum", true, "")
	src.Featured = true
	id := mustCreate(t, s, src)
	mustCreate(t, s, testPost("aapl-services-momentum-copy", false, ""))

	const now = "2024-04-01T10:00:00.000000"
	newID, err := s.DuplicatePost(ctx, id, now)
	if err != nil {
		t.Fatalf("DuplicatePost: %v", err)
	}
	cp, err := s.PostByID(ctx, newID)
	if err != nil {
		t.Fatal(err)
	}
	if cp.Slug != "aapl-services-momentum-copy-2" {
		t.Errorf("slug = %q, want aapl-services-momentum-copy-2", cp.Slug)
	}
	if cp.Title != src.Title+" (Copy)" {
		t.Errorf("title = %q", cp.Title)
	}
	if cp.Published || cp.Featured {
		t.Errorf("copy published=%v featured=%v, want both false", cp.Published, cp.Featured)
	}
	if cp.PublishDate != now || cp.CreatedAt != now {
		t.Errorf("copy dates publish=%q created=%q, want %q", cp.PublishDate, cp.CreatedAt, now)
	}
	if cp.Content != src.Content || cp.Tags != src.Tags {
		t.Errorf("copy lost content or tags: %+v", cp)
	}

	if _, err := s.DuplicatePost(ctx, 999, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("DuplicatePost(missing) err = %v, want ErrNotFound", err)
	}
}

func TestListPublishedPagination(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 15; i++ {
		mustCreate(t, s, testPost(fmt.Sprintf("post-%02d", i), true, fmt.Sprintf("2024-01-%02d", i)))
	}
	mustCreate(t, s, testPost("draft", false, "2024-02-01"))

	for _, tt := range []struct{ offset, want int }{{0, 10}, {10, 5}, {20, 0}} {
		posts, err := s.ListPublished(ctx, 10, tt.offset)
		if err != nil {
			t.Fatalf("ListPublished offset %d: %v", tt.offset, err)
		}
		if len(posts) != tt.want {
			t.Errorf("offset %d: got %d posts, want %d", tt.offset, len(posts), tt.want)
		}
	}
	posts, _ := s.ListPublished(ctx, 1, 0)
	if len(posts) != 1 || posts[0].Slug != "post-15" {
		t.Errorf("newest post = %+v, want post-15", posts)
	}
	n, err := s.CountPublished(ctx)
	if err != nil || n != 15 {
		t.Errorf("CountPublished = %d, %v; want 15", n, err)
	}
}

func TestHomePostsFeaturedFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	old := testPost("old-featured", true, "2023-01-01")
	old.Featured = true
	mustCreate(t, s, old)
	mustCreate(t, s, testPost("new", true, "2024-06-01"))
	mustCreate(t, s, testPost("hidden", false, "2024-07-01"))

	posts, err := s.HomePosts(ctx, 6)
	if err != nil {
		t.Fatalf("HomePosts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	if posts[0].Slug != "old-featured" || posts[1].Slug != "new" {
		t.Errorf("order = %s, %s", posts[0].Slug, posts[1].Slug)
	}
}

func TestStatsAndTags(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	feat := testPost("a", true, "")
	feat.Featured = true
	feat.Tags = "Energy, Large-Cap"
	mustCreate(t, s, feat)
	mustCreate(t, s, testPost("b", true, ""))
	draft := testPost("c", false, "")
	draft.Tags = "Secret"
	mustCreate(t, s, draft)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if want := (model.DashboardStats{Published: 2, Draft: 1, Featured: 1}); stats != want {
		t.Errorf("Stats = %+v, want %+v", stats, want)
	}

	tags, err := s.PublishedTags(ctx)
	if err != nil {
		t.Fatalf("PublishedTags: %v", err)
	}
	want := []string{"Energy", "Large-Cap", "Tech"}
	if fmt.Sprint(tags) != fmt.Sprint(want) {
		t.Errorf("PublishedTags = %v, want %v", tags, want)
	}
}

func TestStatsEmpty(t *testing.T) {
	s := setupTestStore(t)
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats != (model.DashboardStats{}) {
		t.Errorf("Stats on empty table = %+v", stats)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := mustCreate(t, s, testPost("doomed", true, ""))
	if err := s.DeletePost(ctx, id); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := s.PostByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("post still present: %v", err)
	}
}

func TestSaveSettings(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.Settings(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Settings before save err = %v, want ErrNotFound", err)
	}
	in := model.Settings{SiteName: "River", SiteDescription: "Notes", BaseURL: "https://example.org/"}
	if err := s.SaveSettings(ctx, in); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	in.SiteName = "River Two"
	if err := s.SaveSettings(ctx, in); err != nil {
		t.Fatalf("SaveSettings again: %v", err)
	}
	got, err := s.Settings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := (model.Settings{SiteName: "River Two", SiteDescription: "Notes", BaseURL: "https://example.org"}); got != want {
		t.Errorf("Settings = %+v, want %+v", got, want)
	}
}

func TestLazyConn(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	conn := newLazyConn(s.db)
	if conn.Acquired() {
		t.Fatal("connection acquired before first query")
	}
	scoped := s.Scoped(conn)
	if _, err := scoped.CountPublished(ctx); err != nil {
		t.Fatalf("CountPublished: %v", err)
	}
	if !conn.Acquired() {
		t.Fatal("connection not acquired after a query")
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if conn.Acquired() {
		t.Fatal("connection still held after Close")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestPageViews(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	views := []analytics.View{
		{Day: "2024-03-01", Path: "/post/a", Source: "Google", Device: analytics.Desktop},
		{Day: "2024-03-01", Path: "/post/a", Source: "Google", Device: analytics.Desktop},
		{Day: "2024-03-02", Path: "/post/a", Source: analytics.Direct, Device: analytics.Mobile},
		{Day: "2024-03-02", Path: "/", Source: analytics.Direct, Device: analytics.Desktop},
		{Day: "2023-01-01", Path: "/post/old", Source: "Bing", Device: analytics.Desktop},
	}
	for _, v := range views {
		if err := s.RecordView(ctx, v); err != nil {
			t.Fatalf("RecordView: %v", err)
		}
	}

	paths, err := s.TopPaths(ctx, "2024-01-01", 5)
	if err != nil {
		t.Fatalf("TopPaths: %v", err)
	}
	want := []model.Count{{Name: "/post/a", Views: 3}, {Name: "/", Views: 1}}
	if fmt.Sprint(paths) != fmt.Sprint(want) {
		t.Errorf("TopPaths = %v, want %v", paths, want)
	}
	sources, err := s.TopSources(ctx, "2024-01-01", 5)
	if err != nil {
		t.Fatalf("TopSources: %v", err)
	}
	wantSources := []model.Count{{Name: "Direct", Views: 2}, {Name: "Google", Views: 2}}
	if fmt.Sprint(sources) != fmt.Sprint(wantSources) {
		t.Errorf("TopSources = %v, want %v", sources, wantSources)
	}

	if err := s.PruneViews(ctx, "2024-01-01"); err != nil {
		t.Fatalf("PruneViews: %v", err)
	}
	all, err := s.TopPaths(ctx, "0000-00-00", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range all {
		if c.Name == "/post/old" {
			t.Errorf("pruned path still counted: %v", all)
		}
	}
}

func TestImages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	img := model.Image{Filename: "chart.jpg", OriginalName: "Chart.PNG", Width: 800, Height: 600, Size: 1234, UploadedAt: testNow}
	if _, err := s.SaveImage(ctx, img); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	taken, err := s.ImageTaken(ctx, "chart.jpg")
	if err != nil || !taken {
		t.Errorf("ImageTaken = %v, %v; want true", taken, err)
	}
	list, err := s.ListImages(ctx)
	if err != nil || len(list) != 1 || list[0].URL() != "/uploads/chart.jpg" {
		t.Errorf("ListImages = %+v, %v", list, err)
	}
	if err := s.DeleteImage(ctx, "chart.jpg"); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if taken, _ := s.ImageTaken(ctx, "chart.jpg"); taken {
		t.Error("image still recorded after delete")
	}
}
