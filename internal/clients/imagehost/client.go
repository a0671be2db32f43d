// Package imagehost uploads and deletes experience photos on Cloudinary.
package imagehost

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// DefaultBaseURL is the Cloudinary API root.
const DefaultBaseURL = "https://api.cloudinary.com"

// Config holds the Cloudinary account settings.
type Config struct {
	BaseURL   string
	CloudName string
	APIKey    string
	APISecret string
	// Folder, when set, groups uploads under a Cloudinary folder.
	Folder  string
	Timeout time.Duration
}

// Client wraps the Cloudinary upload API. A Client built without credentials
// is valid but every call fails with domain.ErrTransport.
type Client struct {
	cld     *cloudinary.Cloudinary
	folder  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a Cloudinary client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{folder: cfg.Folder, timeout: cfg.Timeout, logger: logger.With("component", "imagehost")}
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return c
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		c.logger.Warn("cloudinary client setup failed", "error", err)
		return c
	}
	cld.Upload.Config.API.UploadPrefix = strings.TrimRight(cfg.BaseURL, "/")
	cld.Upload.Client = http.Client{Timeout: cfg.Timeout}
	c.cld = cld
	return c
}

// Configured reports whether account credentials are present.
func (c *Client) Configured() bool {
	return c.cld != nil
}

// Upload stores a base64 image (raw or as a data URI) and returns its hosted
// URL and public id.
func (c *Client) Upload(ctx context.Context, image string) (domain.Photo, error) {
	file, err := dataURI(image)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("imagehost.Client.Upload: %w", err)
	}
	if !c.Configured() {
		return domain.Photo{}, fmt.Errorf("imagehost.Client.Upload: %w", errNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: "image",
	})
	if err != nil {
		return domain.Photo{}, fmt.Errorf("imagehost.Client.Upload: %w: %w", domain.ErrTransport, err)
	}
	if res.Error.Message != "" {
		return domain.Photo{}, fmt.Errorf("imagehost.Client.Upload: %w: %s", domain.ErrTransport, res.Error.Message)
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return domain.Photo{}, fmt.Errorf("imagehost.Client.Upload: %w: incomplete response", domain.ErrTransport)
	}
	return domain.Photo{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Destroy deletes the image with publicID. Deleting an image Cloudinary no
// longer has is not an error.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	if strings.TrimSpace(publicID) == "" {
		return fmt.Errorf("imagehost.Client.Destroy: %w: public_id is required", domain.ErrValidation)
	}
	if !c.Configured() {
		return fmt.Errorf("imagehost.Client.Destroy: %w", errNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("imagehost.Client.Destroy: %w: %w", domain.ErrTransport, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("imagehost.Client.Destroy: %w: %s", domain.ErrTransport, res.Error.Message)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("imagehost.Client.Destroy: %w: result %q", domain.ErrTransport, res.Result)
	}
}

var errNotConfigured = fmt.Errorf("%w: image hosting is not configured", domain.ErrTransport)

// dataURI validates a base64 payload and returns it as a data URI. Raw base64
// is assumed to be a JPEG.
func dataURI(image string) (string, error) {
	image = strings.TrimSpace(image)
	payload := image
	prefix := "data:image/jpeg;base64,"
	if strings.HasPrefix(image, "data:") {
		head, rest, ok := strings.Cut(image, ",")
		if !ok || !strings.HasSuffix(head, ";base64") || !strings.HasPrefix(head, "data:image/") {
			return "", fmt.Errorf("%w: image must be a base64 image data URI", domain.ErrValidation)
		}
		prefix, payload = head+",", rest
	}
	if payload == "" {
		return "", fmt.Errorf("%w: image is empty", domain.ErrValidation)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return "", fmt.Errorf("%w: image is not valid base64", domain.ErrValidation)
	}
	return prefix + payload, nil
}
