package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"unicode"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxImagePixels rejects images whose decoded form would be unreasonably large.
const maxImagePixels = 80_000_000

// minOCRLetters is the number of letters or digits OCR output needs to count as text.
const minOCRLetters = 3

func (e *Extractor) extractImage(ctx context.Context, path string, ocrEnabled bool) (*Content, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}

	thumb, err := Thumbnail(img, e.thumbnailSize)
	if err != nil {
		return nil, newError(path, ReasonUnsupportedFormat, err)
	}
	content := &Content{Thumbnail: thumb}

	if ocrEnabled && e.ocr != nil {
		text, err := e.ocr.Recognize(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, newError(path, ReasonOCRFailure, err)
		}
		if text = normalizeWhitespace(text); countAlnum(text) >= minOCRLetters {
			content.Text = text
			return content, nil
		}
	}

	content.Image = img
	return content, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(path, ReasonReadError, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, newError(path, ReasonUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, newError(path, ReasonUnsupportedFormat, errors.New("empty image"))
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, newError(path, ReasonTooLarge, fmt.Errorf("%dx%d pixels", cfg.Width, cfg.Height))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, newError(path, ReasonReadError, err)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, newError(path, ReasonUnsupportedFormat, err)
	}
	return img, nil
}

// Thumbnail scales img to fit within size x size and returns it as a JPEG data URI.
func Thumbnail(img image.Image, size int) (string, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > size || h > size {
		if w >= h {
			h = max(1, h*size/w)
			w = size
		} else {
			w = max(1, w*size/h)
			h = size
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten onto white.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func countAlnum(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
