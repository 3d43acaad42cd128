package riverpress

import (
	"context"

	"github.com/grandriver/riverpress/analytics"
	"github.com/grandriver/riverpress/model"
)

// RecordView adds one view to the day's counter for the view's dimensions.
func (s *Store) RecordView(ctx context.Context, v analytics.View) error {
	_, err := execute(ctx, s.q, `
INSERT INTO page_views (day, path, source, device, views) VALUES (?, ?, ?, ?, 1)
ON CONFLICT(day, path, source, device) DO UPDATE SET views = views + 1`,
		v.Day, v.Path, v.Source, v.Device)
	return err
}

func scanCount(r rowScanner) (model.Count, error) {
	var c model.Count
	err := r.Scan(&c.Name, &c.Views)
	return c, err
}

// TopPaths returns the most viewed paths since the given day.
func (s *Store) TopPaths(ctx context.Context, sinceDay string, limit int) ([]model.Count, error) {
	return queryAll(ctx, s.q, scanCount, `
SELECT path, SUM(views) AS total FROM page_views WHERE day >= ?
GROUP BY path ORDER BY total DESC, path LIMIT ?`, sinceDay, limit)
}

// TopSources returns the traffic sources with the most views since the given day.
func (s *Store) TopSources(ctx context.Context, sinceDay string, limit int) ([]model.Count, error) {
	return queryAll(ctx, s.q, scanCount, `
SELECT source, SUM(views) AS total FROM page_views WHERE day >= ?
GROUP BY source ORDER BY total DESC, source LIMIT ?`, sinceDay, limit)
}

// PruneViews deletes counters older than beforeDay.
func (s *Store) PruneViews(ctx context.Context, beforeDay string) error {
	_, err := execute(ctx, s.q, `DELETE FROM page_views WHERE day < ?`, beforeDay)
	return err
}
