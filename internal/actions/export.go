package actions

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"canvas/internal/object"

	"github.com/sourcegraph/conc/pool"
)

// Artifact: one exported file
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// DataURL: artifact encoded for sending to a browser
func (a Artifact) DataURL() string {
	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Export: selected images are downloaded by source URL; with no image selected the whole
// scene is rasterized to a PNG. Read-only: the scene and history are not touched.
func (a *Actions) Export(ctx context.Context) ([]Artifact, error) {
	if images := a.scene.SelectedImages(); len(images) > 0 {
		return a.downloadImages(ctx, images)
	}

	data, err := Rasterize(ctx, a.scene.Objects(), a.raster, a.loadImage)
	if err != nil {
		return nil, fmt.Errorf("rasterize scene: %w", err)
	}
	return []Artifact{{Name: "canvas.png", ContentType: "image/png", Data: data}}, nil
}

func (a *Actions) downloadImages(ctx context.Context, images []*object.Object) ([]Artifact, error) {
	artifacts := make([]Artifact, len(images))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(maxDownloads).WithCancelOnError()
	for i, img := range images {
		p.Go(func(ctx context.Context) error {
			data, contentType, err := a.loadImage(ctx, img.ImageURL())
			if err != nil {
				return fmt.Errorf("download %s: %w", img.ID, err)
			}
			artifacts[i] = Artifact{
				Name:        fmt.Sprintf("image-%d%s", i+1, extensionFor(contentType)),
				ContentType: contentType,
				Data:        data,
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		a.log.Error("Actions", "Image export failed", map[string]interface{}{"error": err})
		return nil, err
	}
	return artifacts, nil
}

// loadImage: data URLs are decoded locally, everything else goes through the fetcher
func (a *Actions) loadImage(ctx context.Context, src string) ([]byte, string, error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURL(src)
	}
	if a.fetch == nil {
		return nil, "", errors.New("no fetcher configured")
	}
	return a.fetch.Fetch(ctx, src)
}

func decodeDataURL(src string) ([]byte, string, error) {
	header, payload, found := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !found {
		return nil, "", errors.New("malformed data URL")
	}

	contentType, isBase64 := strings.CutSuffix(header, ";base64")
	if contentType == "" {
		contentType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data URL: %w", err)
		}
		return data, contentType, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL: %w", err)
	}
	return []byte(text), contentType, nil
}

func extensionFor(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(mediaType) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	return ".bin"
}
