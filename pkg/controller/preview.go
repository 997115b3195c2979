package controller

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"github.com/goliatone/go-lesionform/pkg/model"
)

// Previewer renders an image into a data URL for display.
type Previewer func(ctx context.Context, image model.ImageFile) (string, error)

// DataURLPreview reads the whole image and encodes it as a base64 data URL,
// using the detected MIME type.
func DataURLPreview(ctx context.Context, image model.ImageFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rc, err := image.Open()
	if err != nil {
		return "", fmt.Errorf("controller: open preview: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("controller: read preview: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mime := mimetype.Detect(data)
	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// previewRead tracks one in-flight read. done is closed once the read has
// finished, whether or not its result was committed.
type previewRead struct {
	imageID string
	done    chan struct{}
}

func (c *Controller) startPreview(image model.ImageFile) {
	read := &previewRead{imageID: image.ID, done: make(chan struct{})}
	c.previewRead = read

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		url, err := c.previewer(c.bg, image)
		c.commitPreview(read, url, err)
	}()
}

// commitPreview stores url only if the read still belongs to the selected
// image. Stale or failed reads are dropped.
func (c *Controller) commitPreview(read *previewRead, url string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(read.done)

	if c.draft.ImageID() != read.imageID {
		return
	}
	if err != nil {
		c.previewErr = err
		return
	}
	c.preview = url
	c.previewErr = nil
}

// Preview returns the data URL of the selected image, or "" while the read is
// outstanding or when no image is selected.
func (c *Controller) Preview() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// PreviewError reports why the latest preview read for the selected image
// failed, if it did.
func (c *Controller) PreviewError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previewErr
}

// AwaitPreview blocks until the preview read for the currently selected image
// has finished and returns the preview. If the selection changes while
// waiting, it waits for the newer read instead.
func (c *Controller) AwaitPreview(ctx context.Context) (string, error) {
	for {
		c.mu.Lock()
		read := c.previewRead
		if c.draft.Image == nil || read == nil || read.imageID != c.draft.ImageID() {
			preview := c.preview
			c.mu.Unlock()
			return preview, nil
		}
		c.mu.Unlock()

		select {
		case <-read.done:
		case <-ctx.Done():
			return "", ctx.Err()
		}

		c.mu.Lock()
		if c.draft.ImageID() == read.imageID {
			preview, err := c.preview, c.previewErr
			c.mu.Unlock()
			return preview, err
		}
		c.mu.Unlock()
	}
}
