// Package imaging decodes uploaded scan bytes into a normalized in-memory
// raster plus a modality tag. DICOM files are parsed natively; everything
// else goes through Go's standard image registry.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode turns raw upload bytes into a Scan. A ".dcm" filename hint selects
// the DICOM path; when that parse fails the bytes fall through to the
// generic decoder. Unparseable content yields domain.ErrDecode — callers
// treat that as non-fatal and substitute a synthetic result.
func (d *Decoder) Decode(data []byte, filename string) (*domain.Scan, error) {
	name := strings.ToLower(filename)
	if strings.HasSuffix(name, ".dcm") {
		if scan, err := decodeDICOM(data); err == nil {
			return scan, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return &domain.Scan{Image: img, Modality: modalityForName(name)}, nil
}

// modalityForName tags common raster extensions as CT; anything unrecognised
// stays Unknown.
func modalityForName(name string) string {
	switch {
	case strings.HasSuffix(name, ".png"), strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return domain.ModalityCT
	default:
		return domain.ModalityUnknown
	}
}

// decodeDICOM parses the pixel array out of a DICOM file and linearly
// rescales intensities from the observed [min, max] range to [0, 255]
// grayscale. The modality comes from the file's own Modality element.
func decodeDICOM(data []byte) (*domain.Scan, error) {
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dicom: %v", domain.ErrDecode, err)
	}

	pixelEl, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("%w: dicom has no pixel data", domain.ErrDecode)
	}
	info, ok := pixelEl.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return nil, fmt.Errorf("%w: dicom has no frames", domain.ErrDecode)
	}

	native, err := info.Frames[0].GetNativeFrame()
	if err != nil {
		return nil, fmt.Errorf("%w: dicom frame not native: %v", domain.ErrDecode, err)
	}
	img, err := normalizeFrame(native.Data, native.Cols, native.Rows)
	if err != nil {
		return nil, err
	}

	return &domain.Scan{Image: img, Modality: dicomModality(&ds)}, nil
}

func normalizeFrame(pixels [][]int, cols, rows int) (image.Image, error) {
	if cols <= 0 || rows <= 0 || len(pixels) < cols*rows {
		return nil, fmt.Errorf("%w: dicom frame geometry %dx%d with %d pixels",
			domain.ErrDecode, cols, rows, len(pixels))
	}

	lo, hi := pixels[0][0], pixels[0][0]
	for _, px := range pixels[:cols*rows] {
		if v := px[0]; v < lo {
			lo = v
		} else if v > hi {
			hi = v
		}
	}

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	scale := 0.0
	if hi > lo {
		scale = 255.0 / float64(hi-lo)
	}
	for i, px := range pixels[:cols*rows] {
		img.Pix[i] = uint8(float64(px[0]-lo) * scale)
	}
	return img, nil
}

func dicomModality(ds *dicom.Dataset) string {
	el, err := ds.FindElementByTag(tag.Modality)
	if err != nil {
		return domain.ModalityDICOM
	}
	if vals, ok := el.Value.GetValue().([]string); ok && len(vals) > 0 && vals[0] != "" {
		return strings.TrimSpace(vals[0])
	}
	return domain.ModalityDICOM
}
