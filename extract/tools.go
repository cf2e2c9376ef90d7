package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// OCR recognizes text in an image file.
type OCR interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// ErrToolNotFound indicates an external binary is not on PATH.
var ErrToolNotFound = errors.New("external tool not found")

// Tesseract runs the tesseract CLI.
type Tesseract struct {
	binary   string
	language string
}

// NewTesseract locates the tesseract binary. An empty language means English.
func NewTesseract(language string) (*Tesseract, error) {
	bin, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("%w: tesseract: %w", ErrToolNotFound, err)
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{binary: bin, language: language}, nil
}

func (t *Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, path, "stdout", "-l", t.language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// FFProbe runs ffprobe and parses its JSON output.
type FFProbe struct {
	binary string
}

// NewFFProbe locates the ffprobe binary.
func NewFFProbe() (*FFProbe, error) {
	bin, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %w", ErrToolNotFound, err)
	}
	return &FFProbe{binary: bin}, nil
}

type ffprobeOutput struct {
	Format struct {
		FormatName string            `json:"format_name"`
		Duration   string            `json:"duration"`
		Tags       map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
}

func (p *FFProbe) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return parseFFProbe(out)
}

func parseFFProbe(data []byte) (*MediaInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("ffprobe output: %w", err)
	}

	info := &MediaInfo{}
	if name, _, _ := strings.Cut(out.Format.FormatName, ","); name != "" {
		info.Format = name
	}
	if secs, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil && secs > 0 {
		info.Duration = time.Duration(secs * float64(time.Second))
	}
	for k, v := range out.Format.Tags {
		switch strings.ToLower(k) {
		case "title":
			info.Title = v
		case "artist":
			info.Artist = v
		case "album":
			info.Album = v
		case "genre":
			info.Genre = v
		}
	}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = s.CodecName
				info.Width, info.Height = s.Width, s.Height
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
				info.SampleRate, _ = strconv.Atoi(s.SampleRate)
			}
		}
	}
	return info, nil
}
