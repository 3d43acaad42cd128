// Package export renders a site to static files by driving its HTTP
// handler in-process.
package export

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// contentTypes maps the non-HTML routes to the Content-Type a static host
// must serve them with.
var contentTypes = []struct{ route, contentType string }{
	{"/rss.xml", "application/rss+xml"},
	{"/sitemap.xml", "application/xml"},
	{"/robots.txt", "text/plain"},
}

// Exporter writes every route's response body under OutDir.
type Exporter struct {
	Handler http.Handler
	OutDir  string
	Assets  map[string]fs.FS // each copied to OutDir/<key>
}

// Run cleans OutDir and exports routes in order. The first route answering
// with an error status aborts the run and OutDir is removed, so a failed
// export never leaves a partial site behind.
func (e *Exporter) Run(ctx context.Context, routes []string) (err error) {
	if e.OutDir == "" {
		return errors.New("export: output directory is empty")
	}
	if err := os.RemoveAll(e.OutDir); err != nil {
		return errors.Wrapf(err, "clean %q", e.OutDir)
	}
	if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %q", e.OutDir)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(e.OutDir)
		}
	}()

	dirs := make([]string, 0, len(e.Assets))
	for dir := range e.Assets {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		if err := copyFS(filepath.Join(e.OutDir, dir), e.Assets[dir]); err != nil {
			return errors.Wrapf(err, "copy %s assets", dir)
		}
	}
	for _, route := range routes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.exportRoute(ctx, route); err != nil {
			return err
		}
	}
	return e.writeHeaders()
}

func (e *Exporter) exportRoute(ctx context.Context, route string) error {
	req := httptest.NewRequest(http.MethodGet, route, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.Handler.ServeHTTP(rec, req)
	if rec.Code >= http.StatusBadRequest {
		return errors.Errorf("render %s: status %d", route, rec.Code)
	}
	dest := filepath.Join(e.OutDir, filepath.FromSlash(TargetPath(route)))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", route)
	}
	if err := os.WriteFile(dest, rec.Body.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", route)
	}
	return nil
}

// TargetPath maps a route to its file under the output directory.
// Feed, sitemap and robots keep their name; every other route becomes a
// directory index so that /post/x is served from post/x/index.html.
func TargetPath(route string) string {
	route = "/" + strings.TrimPrefix(route, "/")
	switch path.Ext(route) {
	case ".xml", ".txt":
		return strings.TrimPrefix(route, "/")
	}
	p := strings.Trim(route, "/")
	if p == "" {
		return "index.html"
	}
	return p + "/index.html"
}

// writeHeaders writes the static host's _headers file.
func (e *Exporter) writeHeaders() error {
	var b strings.Builder
	for i, ct := range contentTypes {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(ct.route + "\n  Content-Type: " + ct.contentType + "\n")
	}
	if err := os.WriteFile(filepath.Join(e.OutDir, "_headers"), []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(err, "write _headers")
	}
	return nil
}

func copyFS(dst string, src fs.FS) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := src.Open(p)
		if err != nil {
			return errors.Wrapf(err, "open %q", p)
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return errors.Wrapf(err, "create %q", target)
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return errors.Wrapf(err, "copy %q", p)
		}
		return out.Close()
	})
}
