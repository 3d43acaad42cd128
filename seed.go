package riverpress

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/grandriver/riverpress/model"
)

var seedPosts = []model.Post{
	{
		Title:          "AAPL: Services Momentum and Valuation Floors",
		Slug:           "aapl-services-momentum",
		Excerpt:        "Assessing how Apple's services mix and installed base durability create valuation support despite cyclical hardware headwinds.",
		Content:        "<p>Apple's services momentum continues to offset hardware volatility while management leans on ecosystem stickiness...</p>",
		CoverURL:       "https://images.unsplash.com/photo-1520607162513-77705c0f0d4a?auto=format&fit=crop&w=1200&q=80",
		Tags:           "Large-Cap, Tech",
		Published:      true,
		PublishDate:    "2024-01-15T12:00:00Z",
		HeroKicker:     "Deep Dive",
		HeroStyle:      model.HeroMidnight,
		HighlightQuote: "Services mix has widened Apple's defensibility, underpinning floor valuation multiples.",
		SummaryPoints:  "Services ARR now >$100B\nHardware elasticity contained by trade-in programs",
		CTALabel:       "Read full thesis",
		CTAURL:         "/post/aapl-services-momentum",
		Featured:       true,
	},
	{
		Title:         "JPM: NII Trajectory and Credit Normalization",
		Slug:          "jpm-nii-trajectory",
		Excerpt:       "Parsing JPMorgan's net interest income outlook alongside reserve releases as consumer credit normalizes.",
		Content:       "<p>JPMorgan's guidance implies manageable NII compression as deposit betas rise and card delinquencies revert toward historical levels...</p>",
		CoverURL:      "https://images.unsplash.com/photo-1454165205744-3b78555e5572?auto=format&fit=crop&w=1200&q=80",
		Tags:          "Large-Cap, Financials",
		Published:     true,
		PublishDate:   "2024-01-22T12:00:00Z",
		HeroKicker:    "Banking",
		HeroStyle:     model.HeroSlate,
		SummaryPoints: "Deposit mix shifting to interest-bearing\nCredit normalization manageable vs reserves",
	},
	{
		Title:         "MSFT: Copilot Monetization Pathways",
		Slug:          "msft-copilot-monetization",
		Excerpt:       "Examining Microsoft's early traction with Copilot SKUs and the multi-year revenue opportunity.",
		Content:       "<p>Microsoft's AI positioning remains differentiated as enterprise pilots convert to paid commitments and attach rates expand across the Microsoft 365 base...</p>",
		CoverURL:      "https://images.unsplash.com/photo-1517430816045-df4b7de11d1d?auto=format&fit=crop&w=1200&q=80",
		Tags:          "Large-Cap, Tech",
		Published:     true,
		PublishDate:   "2024-02-01T12:00:00Z",
		HeroKicker:    "Software",
		SummaryPoints: "Copilot ARPU uplift still in early innings\nAzure AI services accelerating cloud growth",
	},
	{
		Title:       "XOM: Capex Discipline vs. Price Deck",
		Slug:        "xom-capex-discipline",
		Excerpt:     "Evaluating Exxon Mobil's capital allocation against a volatile crude price deck and shareholder returns.",
		Content:     "<p>Exxon Mobil's capital discipline anchors free cash flow resilience with upstream mix shifting toward low breakeven barrels...</p>",
		CoverURL:    "https://images.unsplash.com/photo-1509395176047-4a66953fd231?auto=format&fit=crop&w=1200&q=80",
		Tags:        "Energy, Large-Cap",
		Published:   true,
		PublishDate: "2024-02-08T12:00:00Z",
		HeroKicker:  "Energy",
		HeroStyle:   model.HeroMidnight,
	},
	{
		Title:       "COST: Traffic Resilience and Mix",
		Slug:        "cost-traffic-resilience",
		Excerpt:     "Understanding Costco's traffic resilience as mix shifts toward services and higher-margin categories.",
		Content:     "<p>Costco continues to drive strong traffic growth as membership economics fund investments in price leadership and ancillary services expansion...</p>",
		CoverURL:    "https://images.unsplash.com/photo-1515169067865-5387ec356754?auto=format&fit=crop&w=1200&q=80",
		Tags:        "Consumer, Large-Cap",
		Published:   true,
		PublishDate: "2024-02-15T12:00:00Z",
		HeroKicker:  "Consumer",
		HeroStyle:   model.HeroSlate,
	},
}

// Seed inserts the default settings row if absent and, when the posts table
// is empty, the example posts followed by a best-effort CSV backup.
func (s *Store) Seed(ctx context.Context, defaults model.Settings, now string) error {
	if _, err := execute(ctx, s.q,
		`INSERT OR IGNORE INTO settings (id, site_name, site_description, base_url) VALUES (1, ?, ?, ?)`,
		defaults.SiteName, defaults.SiteDescription, defaults.BaseURL); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	count, err := queryOne(ctx, s.q, scanInt, `SELECT COUNT(*) FROM posts`)
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, p := range seedPosts {
		p.CreatedAt = now
		p.UpdatedAt = now
		if _, err := s.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("seed post %s: %w", p.Slug, err)
		}
	}
	s.BackupPosts(ctx)
	return nil
}

var backupColumns = []string{
	"id", "title", "slug", "excerpt", "content", "cover_url", "tags", "published", "created_at", "updated_at",
	"publish_date", "meta_title", "meta_description", "hero_kicker", "hero_style", "highlight_quote",
	"summary_points", "cta_label", "cta_url", "featured",
}

// BackupPosts mirrors every post into the backup CSV file. Failures are
// logged and swallowed; the backup never blocks a write.
func (s *Store) BackupPosts(ctx context.Context) {
	if s.backupPath == "" {
		return
	}
	if err := s.writeBackup(ctx); err != nil && s.logger != nil {
		s.logger.Errorf("posts backup to %s failed: %v", s.backupPath, err)
	}
}

func (s *Store) writeBackup(ctx context.Context) error {
	posts, err := queryAll(ctx, s.q, scanPost, `SELECT `+postColumns+` FROM posts ORDER BY id`)
	if err != nil {
		return fmt.Errorf("fetch posts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.backupPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.backupPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(backupColumns); err != nil {
		return err
	}
	for _, p := range posts {
		if err := w.Write(backupRecord(p)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func backupRecord(p model.Post) []string {
	return []string{
		strconv.FormatInt(p.ID, 10), p.Title, p.Slug, p.Excerpt, p.Content, p.CoverURL, p.Tags,
		strconv.Itoa(boolInt(p.Published)), p.CreatedAt, p.UpdatedAt, p.PublishDate, p.MetaTitle,
		p.MetaDescription, p.HeroKicker, string(p.HeroStyle), p.HighlightQuote, p.SummaryPoints,
		p.CTALabel, p.CTAURL, strconv.Itoa(boolInt(p.Featured)),
	}
}
