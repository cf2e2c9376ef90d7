package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOCR struct {
	text  string
	err   error
	panic bool
	calls int
}

func (f *fakeOCR) Recognize(ctx context.Context, path string) (string, error) {
	f.calls++
	if f.panic {
		panic("ocr exploded")
	}
	return f.text, f.err
}

type fakeProber struct {
	info *MediaInfo
	err  error
}

func (f *fakeProber) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	return f.info, f.err
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	e, err := NewExtractor(opts...)
	require.NoError(t, err)
	return e
}

func TestNewExtractor_InvalidOptions(t *testing.T) {
	_, err := NewExtractor(WithMaxDocumentBytes(0))
	assert.Error(t, err)
	_, err = NewExtractor(WithMaxFileBytes(-1))
	assert.Error(t, err)
	_, err = NewExtractor(WithThumbnailSize(2))
	assert.Error(t, err)
}

func TestExtract_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", []byte("# Quarterly\n\nrevenue   grew\tby 12%\n"))

	c, err := newTestExtractor(t).Extract(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, core.FileTypeDocument, c.FileType)
	assert.Equal(t, "# Quarterly revenue grew by 12%", c.Text)
	assert.Equal(t, core.SpaceText, c.Space())
	assert.Equal(t, "icon:document", c.Thumbnail)
	assert.False(t, c.Truncated)
}

func TestExtract_EmptyDocumentUsesFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "q3_revenue-report.txt", nil)

	c, err := newTestExtractor(t).Extract(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, "q3 revenue report", c.Text)
}

func TestExtract_Truncation(t *testing.T) {
	dir := t.TempDir()
	// "é" is two bytes; a limit of 5 splits the third rune.
	path := writeFile(t, dir, "accents.txt", []byte("ééééé"))

	c, err := newTestExtractor(t, WithMaxDocumentBytes(5)).Extract(context.Background(), path, false)
	require.NoError(t, err)
	assert.True(t, c.Truncated)
	assert.Equal(t, "éé", c.Text)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "latin1.txt", []byte{'c', 'a', 'f', 0xe9, ' ', 0xff, 0xfe})

	_, err := newTestExtractor(t).Extract(context.Background(), path, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)
	assert.Equal(t, ReasonUnsupportedFormat, ReasonOf(err))
}

func TestExtract_HTML(t *testing.T) {
	dir := t.TempDir()
	page := `<html><head><style>body{color:red}</style><script>var x = 1;</script></head>
<body><h1>Budget</h1><p>Marketing <b>plan</b></p></body></html>`
	path := writeFile(t, dir, "page.html", []byte(page))

	c, err := newTestExtractor(t).Extract(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, "Budget Marketing plan", c.Text)
}

func TestExtract_CorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", []byte("%PDF-1.4\nthis is not really a pdf"))

	_, err := newTestExtractor(t).Extract(context.Background(), path, false)
	require.Error(t, err)
	assert.Equal(t, ReasonUnsupportedFormat, ReasonOf(err))
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blob.xyz", []byte("whatever"))

	_, err := newTestExtractor(t).Extract(context.Background(), path, false)
	require.Error(t, err)
	assert.Equal(t, ReasonUnsupportedFormat, ReasonOf(err))
}

func TestExtract_TooLarge(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.txt", bytes.Repeat([]byte("a"), 100))

	_, err := newTestExtractor(t, WithMaxFileBytes(10)).Extract(context.Background(), path, false)
	require.Error(t, err)
	assert.Equal(t, ReasonTooLarge, ReasonOf(err))
}

func TestExtract_Missing(t *testing.T) {
	_, err := newTestExtractor(t).Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"), false)
	require.Error(t, err)
	assert.Equal(t, ReasonReadError, ReasonOf(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_ImageVisual(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sunset.png", pngBytes(t, 300, 150))
	ocr := &fakeOCR{}

	c, err := newTestExtractor(t, WithOCR(ocr)).Extract(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, core.FileTypeImage, c.FileType)
	assert.Equal(t, core.SpaceVisual, c.Space())
	require.NotNil(t, c.Image)
	assert.Empty(t, c.Text)
	assert.True(t, strings.HasPrefix(c.Thumbnail, "data:image/jpeg;base64,"))
	assert.Zero(t, ocr.calls, "OCR must not run when disabled")
}

func TestExtract_ImageOCRText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "receipt.png", pngBytes(t, 40, 40))
	ocr := &fakeOCR{text: "  TOTAL  revenue\n 42.00 "}

	c, err := newTestExtractor(t, WithOCR(ocr)).Extract(context.Background(), path, true)
	require.NoError(t, err)
	assert.Equal(t, core.SpaceText, c.Space())
	assert.Equal(t, "TOTAL revenue 42.00", c.Text)
	assert.Nil(t, c.Image)
	assert.NotEmpty(t, c.Thumbnail)
}

func TestExtract_ImageOCRNoise(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "photo.png", pngBytes(t, 40, 40))

	c, err := newTestExtractor(t, WithOCR(&fakeOCR{text: " ~ | "})).Extract(context.Background(), path, true)
	require.NoError(t, err)
	assert.Equal(t, core.SpaceVisual, c.Space())
}

func TestExtract_ImageOCRFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.png", pngBytes(t, 40, 40))

	_, err := newTestExtractor(t, WithOCR(&fakeOCR{err: errors.New("boom")})).Extract(context.Background(), path, true)
	require.Error(t, err)
	assert.Equal(t, ReasonOCRFailure, ReasonOf(err))
}

func TestExtract_PanicRecovered(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.png", pngBytes(t, 40, 40))

	_, err := newTestExtractor(t, WithOCR(&fakeOCR{panic: true})).Extract(context.Background(), path, true)
	require.Error(t, err)
	assert.Equal(t, ReasonReadError, ReasonOf(err))
}

func TestExtract_CorruptImage(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t, 40, 40)
	path := writeFile(t, dir, "cut.png", data[:len(data)/3])

	_, err := newTestExtractor(t).Extract(context.Background(), path, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)
}

func TestExtract_VideoWithProber(t *testing.T) {
	dir := t.TempDir()
	header := append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypisom\x00\x00\x02\x00isomiso2")...)
	path := writeFile(t, dir, "beach_trip.mp4", append(header, make([]byte, 64)...))
	prober := &fakeProber{info: &MediaInfo{
		Format:     "mov",
		Duration:   90 * time.Second,
		VideoCodec: "h264",
		Width:      1920,
		Height:     1080,
	}}

	c, err := newTestExtractor(t, WithMediaProber(prober)).Extract(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, core.FileTypeVideo, c.FileType)
	assert.Equal(t, core.SpaceMedia, c.Space())
	assert.Equal(t, "icon:video", c.Thumbnail)
	assert.Equal(t, "video beach trip format mov video h264 resolution 1920x1080 duration 1m30s", c.Text)
}

func TestExtract_AudioProberFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "podcast.mp3", append([]byte("ID3"), make([]byte, 64)...))

	c, err := newTestExtractor(t, WithMediaProber(&fakeProber{err: errors.New("no ffprobe")})).
		Extract(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, core.FileTypeAudio, c.FileType)
	assert.Equal(t, core.SpaceMedia, c.Space())
	assert.Equal(t, "icon:audio", c.Thumbnail)
	assert.Contains(t, c.Text, "audio podcast")
}

func TestExtract_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", []byte("hello"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(t).Extract(ctx, path, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThumbnail_Bounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 500, 100))
	uri, err := Thumbnail(img, 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
}

func TestParseFFProbe(t *testing.T) {
	out := []byte(`{
		"streams": [
			{"codec_type": "audio", "codec_name": "aac", "sample_rate": "44100"},
			{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720}
		],
		"format": {"format_name": "mov,mp4,m4a", "duration": "12.500000", "tags": {"TITLE": "Demo"}}
	}`)

	info, err := parseFFProbe(out)
	require.NoError(t, err)
	assert.Equal(t, "mov", info.Format)
	assert.Equal(t, 12500*time.Millisecond, info.Duration)
	assert.Equal(t, "h264", info.VideoCodec)
	assert.Equal(t, 1280, info.Width)
	assert.Equal(t, "aac", info.AudioCodec)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, "Demo", info.Title)

	_, err = parseFFProbe([]byte("not json"))
	assert.Error(t, err)
}
