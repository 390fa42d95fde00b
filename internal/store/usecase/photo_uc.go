package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

// MaxPhotoWidth is the width uploads are clamped to; height scales
// proportionally.
const MaxPhotoWidth = 800

// jpegQuality is good enough for web display without bloating storage.
const jpegQuality = 82

// PhotoUpload is a received upload: raw bytes plus the declared MIME type,
// held in memory until the pipeline stores them.
type PhotoUpload struct {
	Data     []byte
	MIMEType string
	Filename string
}

// PhotoUsecase is the photo intake pipeline. Each upload moves through
// validate, rename, resize and store; a failure at any stage aborts the
// dependent listing write.
type PhotoUsecase struct {
	storage domain.PhotoStorage
	logger  *logger.Logger
}

func NewPhotoUsecase(storage domain.PhotoStorage, log *logger.Logger) *PhotoUsecase {
	return &PhotoUsecase{storage: storage, logger: log.Named("PhotoUsecase")}
}

// Process runs the intake pipeline and returns the stored filename. A nil or
// empty upload is a no-op returning "", so the caller keeps the existing or
// default photo value.
func (uc *PhotoUsecase) Process(ctx context.Context, upload *PhotoUpload) (string, error) {
	if upload == nil || len(upload.Data) == 0 {
		return "", nil
	}

	// Validated: the declared MIME type must name an image.
	if !strings.HasPrefix(strings.ToLower(upload.MIMEType), "image/") {
		return "", fmt.Errorf("%w: got %q", domain.ErrUnsupportedMediaType, upload.MIMEType)
	}

	// Renamed: a fresh random stem guarantees no collision with existing
	// files regardless of the original name.
	ext := normalizeExt(upload)
	name := uuid.New().String() + ext

	// Resized: decode, clamp width, re-encode.
	img, err := imaging.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("%w: undecodable image data: %v", domain.ErrUnsupportedMediaType, err)
	}
	if img.Bounds().Dx() > MaxPhotoWidth {
		img = imaging.Resize(img, MaxPhotoWidth, 0, imaging.Lanczos)
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		format = imaging.JPEG
		name = strings.TrimSuffix(name, ext) + ".jpg"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encoding photo %s: %w", name, err)
	}

	// Stored: only now do the bytes leave memory.
	if err := uc.storage.Upload(ctx, name, buf.Bytes(), upload.MIMEType); err != nil {
		uc.logger.Error("Failed to store photo", zap.String("name", name), zap.Error(err))
		return "", err
	}

	uc.logger.Info("Photo stored",
		zap.String("name", name),
		zap.String("original", upload.Filename),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return name, nil
}

// normalizeExt picks the output extension from the original filename,
// falling back to the MIME subtype.
func normalizeExt(upload *PhotoUpload) string {
	if ext := strings.ToLower(filepath.Ext(upload.Filename)); ext != "" {
		return ext
	}
	subtype := strings.TrimPrefix(strings.ToLower(upload.MIMEType), "image/")
	switch subtype {
	case "jpeg", "jpg":
		return ".jpg"
	case "png", "gif", "bmp", "tiff":
		return "." + subtype
	default:
		return ".jpg"
	}
}
