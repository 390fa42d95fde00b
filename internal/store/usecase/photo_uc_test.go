package usecase

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

// makeTestPNG encodes a solid-color PNG of the given dimensions.
func makeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPhotoProcessNoUploadIsNoOp(t *testing.T) {
	storage := newFakePhotoStorage()
	uc := NewPhotoUsecase(storage, logger.NewNop())

	name, err := uc.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, name)

	name, err = uc.Process(context.Background(), &PhotoUpload{})
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, storage.objects)
}

func TestPhotoProcessRejectsNonImageMIME(t *testing.T) {
	storage := newFakePhotoStorage()
	uc := NewPhotoUsecase(storage, logger.NewNop())

	_, err := uc.Process(context.Background(), &PhotoUpload{
		Data:     []byte("%PDF-1.4 ..."),
		MIMEType: "application/pdf",
		Filename: "menu.pdf",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedMediaType)
	assert.Empty(t, storage.objects)
}

func TestPhotoProcessRejectsUndecodableImage(t *testing.T) {
	storage := newFakePhotoStorage()
	uc := NewPhotoUsecase(storage, logger.NewNop())

	_, err := uc.Process(context.Background(), &PhotoUpload{
		Data:     []byte("image/png says the header, garbage say the bytes"),
		MIMEType: "image/png",
		Filename: "fake.png",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedMediaType)
}

func TestPhotoProcessClampsWidthTo800(t *testing.T) {
	storage := newFakePhotoStorage()
	uc := NewPhotoUsecase(storage, logger.NewNop())

	name, err := uc.Process(context.Background(), &PhotoUpload{
		Data:     makeTestPNG(t, 1200, 600),
		MIMEType: "image/png",
		Filename: "wide.png",
	})
	require.NoError(t, err)
	require.Contains(t, storage.objects, name)

	stored, err := imaging.Decode(bytes.NewReader(storage.objects[name]))
	require.NoError(t, err)
	assert.Equal(t, MaxPhotoWidth, stored.Bounds().Dx())
	// Height scales proportionally: 1200x600 -> 800x400.
	assert.Equal(t, 400, stored.Bounds().Dy())
}

func TestPhotoProcessKeepsSmallImagesUnscaled(t *testing.T) {
	storage := newFakePhotoStorage()
	uc := NewPhotoUsecase(storage, logger.NewNop())

	name, err := uc.Process(context.Background(), &PhotoUpload{
		Data:     makeTestPNG(t, 300, 200),
		MIMEType: "image/png",
		Filename: "small.png",
	})
	require.NoError(t, err)

	stored, err := imaging.Decode(bytes.NewReader(storage.objects[name]))
	require.NoError(t, err)
	assert.Equal(t, 300, stored.Bounds().Dx())
	assert.Equal(t, 200, stored.Bounds().Dy())
}

func TestPhotoProcessAssignsFreshUniqueStem(t *testing.T) {
	storage := newFakePhotoStorage()
	uc := NewPhotoUsecase(storage, logger.NewNop())
	ctx := context.Background()

	upload := func() *PhotoUpload {
		return &PhotoUpload{
			Data:     makeTestPNG(t, 10, 10),
			MIMEType: "image/png",
			Filename: "same-name.png",
		}
	}
	first, err := uc.Process(ctx, upload())
	require.NoError(t, err)
	second, err := uc.Process(ctx, upload())
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "identical original names must not collide")
	assert.Equal(t, ".png", filepath.Ext(first))

	stem := strings.TrimSuffix(first, ".png")
	_, err = uuid.Parse(stem)
	assert.NoError(t, err, "stem should be a fresh random identifier")
}

func TestPhotoProcessExtensionFallsBackToMIME(t *testing.T) {
	storage := newFakePhotoStorage()
	uc := NewPhotoUsecase(storage, logger.NewNop())

	name, err := uc.Process(context.Background(), &PhotoUpload{
		Data:     makeTestPNG(t, 10, 10),
		MIMEType: "image/png",
		Filename: "no-extension",
	})
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(name))
}

func TestPhotoProcessStorageFailureAborts(t *testing.T) {
	storage := newFakePhotoStorage()
	storage.fail = domain.ErrStorageUnavailable
	uc := NewPhotoUsecase(storage, logger.NewNop())

	_, err := uc.Process(context.Background(), &PhotoUpload{
		Data:     makeTestPNG(t, 10, 10),
		MIMEType: "image/png",
		Filename: "doomed.png",
	})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
