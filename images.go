package riverpress

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/grandriver/riverpress/model"
	"github.com/grandriver/riverpress/views"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
)

// processImage decodes an upload, scales it down to maxImageWidth when it
// is wider, and re-encodes it as JPEG.
func processImage(src io.Reader, originalName string) (model.Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return model.Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return model.Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	base := model.Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	return model.Image{
		Filename:     base + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
	}, buf.Bytes(), nil
}

// uniqueFilename appends -2, -3, ... until the name is free on disk and in
// the images table.
func (a *App) uniqueFilename(ctx context.Context, store *Store, filename string) (string, error) {
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	for n := 2; ; n++ {
		_, statErr := os.Stat(filepath.Join(a.Config.UploadsDir, candidate))
		taken, err := store.ImageTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if os.IsNotExist(statErr) && !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

func (a *App) handleImages(c echo.Context) error {
	images, err := a.store(c).ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	p, err := a.page(c, "images", a.adminMeta(c, "Images", "Upload cover images.", "/admin/images"))
	if err != nil {
		return err
	}
	return Render(c, views.AdminImages(p, images))
}

func (a *App) handleImageUpload(c echo.Context) error {
	ctx := c.Request().Context()
	store := a.store(c)
	reject := func(msg string) error {
		if err := a.flash(c, FlashError, msg); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/images")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return reject("Choose an image to upload.")
	}
	if file.Size > maxUploadSize {
		return reject("Images must be 10MB or smaller.")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename)
	if err != nil {
		return reject("That file is not a JPEG, PNG or GIF image.")
	}
	if img.Filename, err = a.uniqueFilename(ctx, store, img.Filename); err != nil {
		return err
	}
	img.UploadedAt = model.Timestamp(a.now())

	if err := os.MkdirAll(a.Config.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	dest := filepath.Join(a.Config.UploadsDir, img.Filename)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if _, err := store.SaveImage(ctx, img); err != nil {
		os.Remove(dest)
		return err
	}
	if err := a.flash(c, FlashSuccess, "Image uploaded."); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/images")
}

func (a *App) handleImageDelete(c echo.Context) error {
	filename := filepath.Base(c.Param("filename"))
	if filename == "." || filename == "/" {
		return ErrNotFound
	}
	if err := a.store(c).DeleteImage(c.Request().Context(), filename); err != nil {
		return err
	}
	_ = os.Remove(filepath.Join(a.Config.UploadsDir, filename))
	if err := a.flash(c, FlashSuccess, "Image deleted."); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/images")
}
