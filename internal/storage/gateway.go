// Package storage persists generated images in blob storage and hands back
// a public retrieval URL.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"
	"go-news-inspector/pkg/validation"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Uploader writes bytes under a key and returns the object's public URL
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Provider() string
}

// Requirement is one configuration value an uploader cannot work without
type Requirement struct {
	Setting string
	Value   string
}

// Gateway validates configuration, names the object and validates the
// URL the far end returns
type Gateway struct {
	uploader     Uploader
	requirements []Requirement
	folder       string
	validator    *validation.URLValidator
	now          func() time.Time
}

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithFolder sets the key prefix for stored objects
func WithFolder(folder string) GatewayOption {
	return func(g *Gateway) {
		g.folder = strings.Trim(folder, "/")
	}
}

// WithClock overrides the time source used in object keys
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.now = now
	}
}

// NewGateway creates a gateway. uploader may be nil when requirements are
// unmet; Store then reports ConfigMissing.
func NewGateway(uploader Uploader, requirements []Requirement, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		uploader:     uploader,
		requirements: requirements,
		folder:       "generated",
		validator:    validation.NewURLValidator(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MissingSettings lists the required settings that are empty
func (g *Gateway) MissingSettings() []string {
	var missing []string
	for _, r := range g.requirements {
		if strings.TrimSpace(r.Value) == "" {
			missing = append(missing, r.Setting)
		}
	}
	return missing
}

// Store uploads image bytes and returns a validated public URL
func (g *Gateway) Store(ctx context.Context, data []byte, hint string) (string, error) {
	if missing := g.MissingSettings(); len(missing) > 0 {
		return "", apperrors.NewConfigMissing(apperrors.StageStorage, missing...)
	}
	if g.uploader == nil {
		return "", apperrors.NewConfigMissing(apperrors.StageStorage, "storage provider")
	}
	if len(data) == 0 {
		return "", apperrors.NewStorageFailure("", fmt.Errorf("no image bytes to upload"))
	}

	contentType := mimetype.Detect(data).String()
	key := ObjectKey(g.folder, hint, g.now(), contentType)

	start := time.Now()
	fields := logrus.Fields{
		"stage":    apperrors.StageStorage,
		"provider": g.uploader.Provider(),
		"key":      key,
		"bytes":    len(data),
	}

	url, err := g.uploader.Upload(ctx, key, data, contentType)
	fields["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		classified := apperrors.Classify(apperrors.StageStorage, err)
		logger.FromContext(ctx).WithFields(fields).WithField("kind", classified.Kind).WithError(err).Error("Image upload failed")
		return "", classified
	}

	if err := g.validator.ValidateRetrievalURL(url); err != nil {
		logger.FromContext(ctx).WithFields(fields).WithField("url", url).Error("Upload returned no retrievable URL")
		return "", apperrors.NewStorageFailure("The image was uploaded but the store returned no retrievable URL; retry the upload.", err)
	}

	logger.FromContext(ctx).WithFields(fields).WithField("url", url).Info("Image stored")
	return url, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

const maxHintLength = 48

// SanitizeHint reduces a free-form hint to a lowercase slug
func SanitizeHint(hint string) string {
	slug := strings.Trim(unsafeKeyChars.ReplaceAllString(strings.ToLower(hint), "-"), "-")
	if len(slug) > maxHintLength {
		slug = strings.TrimRight(slug[:maxHintLength], "-")
	}
	if slug == "" {
		return "image"
	}
	return slug
}

// ObjectKey builds folder/slug-millis-suffix.ext
func ObjectKey(folder, hint string, at time.Time, contentType string) string {
	name := fmt.Sprintf("%s-%d-%s%s", SanitizeHint(hint), at.UnixMilli(), uuid.NewString()[:8], extensionFor(contentType))
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func extensionFor(contentType string) string {
	switch strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
