package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"ecotrack/internal/models"
)

const (
	// maxImageUpload caps featured image uploads at 5 MB.
	maxImageUpload = 5 << 20
	// maxPostForm caps the whole post form: the image plus the text fields.
	maxPostForm = maxImageUpload + 1<<20
)

// uploadTypes maps the sniffed content types accepted for post images to
// the extension stored with them.
var uploadTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore keeps uploaded post images and serves them from a public URL.
type ImageStore interface {
	PutImage(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
	RemoveImage(ctx context.Context, url string) error
}

// readPostForm parses the post form, multipart or urlencoded, reading at
// most maxPostForm bytes of body. It reports whether the body was too big.
func readPostForm(w http.ResponseWriter, r *http.Request) (tooLarge bool, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPostForm)
	err = r.ParseMultipartForm(maxPostForm)
	if errors.Is(err, http.ErrNotMultipart) {
		return false, nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true, err
	}
	return false, err
}

// attachImage stores the uploaded image_file, if any, and points the post
// at it. It returns a message for the form when the upload is rejected.
func (a *Admin) attachImage(r *http.Request, p *models.BlogPost) string {
	if a.images == nil {
		return ""
	}

	file, header, err := r.FormFile("image_file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return ""
	case err != nil:
		slog.Warn("read uploaded image failed", "error", err)
		return "Could not read the uploaded image."
	}
	defer file.Close()

	if header.Size > maxImageUpload {
		return "Image is too large (max 5 MB)."
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	contentType := http.DetectContentType(head[:n])
	ext, ok := uploadTypes[contentType]
	if !ok {
		return "Please upload a JPEG, PNG, WebP or GIF image."
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		slog.Error("rewind uploaded image failed", "error", err)
		return "Could not read the uploaded image."
	}

	url, err := a.images.PutImage(r.Context(), uuid.NewString()+ext, contentType, file, header.Size)
	if err != nil {
		slog.Error("upload image failed", "error", err)
		return "Failed to upload the image."
	}

	slog.Info("post image uploaded", "url", url, "bytes", header.Size)
	p.Image = url
	return ""
}

// dropImage removes an image that no post references any more, including
// one uploaded for a save that then failed.
func (a *Admin) dropImage(ctx context.Context, url string) {
	if a.images == nil || url == "" {
		return
	}
	if err := a.images.RemoveImage(ctx, url); err != nil {
		slog.Warn("remove image failed", "error", err, "url", url)
	}
}
