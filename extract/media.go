package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/dhowden/tag"
)

// MediaInfo describes a video or audio file.
type MediaInfo struct {
	Format     string
	Duration   time.Duration
	VideoCodec string
	AudioCodec string
	Width      int
	Height     int
	SampleRate int
	Title      string
	Artist     string
	Album      string
	Genre      string
	Year       int
}

// MediaProber reads container metadata.
type MediaProber interface {
	Probe(ctx context.Context, path string) (*MediaInfo, error)
}

func (e *Extractor) extractMedia(ctx context.Context, path string, fileType core.FileType) (*Content, error) {
	info := &MediaInfo{Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")}

	if e.prober != nil {
		probed, err := e.prober.Probe(ctx, path)
		switch {
		case err == nil:
			info = probed
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			e.logger.Debug("media probe failed, using container metadata", "path", path, "err", err)
		}
	}

	if fileType == core.FileTypeAudio {
		if err := readTags(path, info); err != nil {
			e.logger.Debug("no audio tags", "path", path, "err", err)
		}
	}

	thumbnail := "icon:video"
	if fileType == core.FileTypeAudio {
		thumbnail = "icon:audio"
	}
	return &Content{Text: Describe(path, fileType, info), Thumbnail: thumbnail}, nil
}

// readTags fills empty tag fields of info from ID3, MP4, FLAC or OGG metadata.
func readTags(path string, info *MediaInfo) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return err
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&info.Title, m.Title())
	fill(&info.Artist, m.Artist())
	fill(&info.Album, m.Album())
	fill(&info.Genre, m.Genre())
	if info.Year == 0 {
		info.Year = m.Year()
	}
	if info.Format == "" {
		info.Format = strings.ToLower(string(m.FileType()))
	}
	return nil
}

// Describe renders media metadata as a sentence-like string for embedding.
func Describe(path string, fileType core.FileType, info *MediaInfo) string {
	parts := []string{fileType.String()}
	if words := filenameWords(path); words != "" {
		parts = append(parts, words)
	}
	add := func(label, v string) {
		if v != "" {
			parts = append(parts, label+" "+v)
		}
	}
	add("title", info.Title)
	add("artist", info.Artist)
	add("album", info.Album)
	add("genre", info.Genre)
	if info.Year > 0 {
		add("year", fmt.Sprint(info.Year))
	}
	add("format", info.Format)
	add("video", info.VideoCodec)
	add("audio", info.AudioCodec)
	if info.Width > 0 && info.Height > 0 {
		add("resolution", fmt.Sprintf("%dx%d", info.Width, info.Height))
	}
	if info.SampleRate > 0 {
		add("sample rate", fmt.Sprintf("%d Hz", info.SampleRate))
	}
	if info.Duration > 0 {
		add("duration", info.Duration.Round(time.Second).String())
	}
	return strings.Join(parts, " ")
}
