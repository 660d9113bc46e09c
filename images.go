package folio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/views"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

var errBadFilename = errors.New("invalid image filename")

// processImage decodes an image from src, resizes it down to maxImageWidth
// when wider, and encodes it as JPEG.
func processImage(src io.Reader, originalName string, now time.Time) (views.ImageInfo, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return views.ImageInfo{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return views.ImageInfo{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return views.ImageInfo{
		Filename:   slugifyFilename(originalName) + ".jpg",
		Width:      w,
		Height:     h,
		Size:       int64(buf.Len()),
		UploadedAt: now.UTC(),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename without its extension to a slug.
func slugifyFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if s := blog.Slugify(base); s != "" {
		return s
	}
	return "image"
}

// uploadsDir is the upload directory of one profile. Profile ids are UUIDs,
// so they are safe path elements.
func (a *App) uploadsDir(profile string) string {
	return filepath.Join(a.staticDir, uploadsSubdir, profile)
}

func uploadURL(profile, filename string) string {
	return "/public/" + uploadsSubdir + "/" + profile + "/" + filename
}

// uniqueFilename appends a counter until the name is free in dir.
func uniqueFilename(dir, filename string) string {
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

// saveImage processes an upload and writes it to the profile's uploads dir.
func (a *App) saveImage(profile string, src io.Reader, originalName string) (views.ImageInfo, error) {
	info, data, err := processImage(src, originalName, a.now())
	if err != nil {
		return views.ImageInfo{}, err
	}
	dir := a.uploadsDir(profile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return views.ImageInfo{}, fmt.Errorf("create uploads dir: %w", err)
	}
	info.Filename = uniqueFilename(dir, info.Filename)
	info.URL = uploadURL(profile, info.Filename)
	if err := os.WriteFile(filepath.Join(dir, info.Filename), data, 0o644); err != nil {
		return views.ImageInfo{}, fmt.Errorf("write image: %w", err)
	}
	return info, nil
}

// deleteImage removes an upload of profile. A missing file is not an error.
func (a *App) deleteImage(profile, filename string) error {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return errBadFilename
	}
	err := os.Remove(filepath.Join(a.uploadsDir(profile), filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// listImages describes the uploads of profile, newest first. Files that are
// not decodable images are left out.
func (a *App) listImages(profile string) ([]views.ImageInfo, error) {
	dir := a.uploadsDir(profile)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var images []views.ImageInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := imageInfo(dir, entry)
		if err != nil {
			continue
		}
		info.URL = uploadURL(profile, info.Filename)
		images = append(images, info)
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].UploadedAt.After(images[j].UploadedAt)
	})
	return images, nil
}

func imageInfo(dir string, entry os.DirEntry) (views.ImageInfo, error) {
	fi, err := entry.Info()
	if err != nil {
		return views.ImageInfo{}, err
	}
	f, err := os.Open(filepath.Join(dir, entry.Name()))
	if err != nil {
		return views.ImageInfo{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return views.ImageInfo{}, err
	}
	return views.ImageInfo{
		Filename:   entry.Name(),
		Width:      cfg.Width,
		Height:     cfg.Height,
		Size:       fi.Size(),
		UploadedAt: fi.ModTime().UTC(),
	}, nil
}
