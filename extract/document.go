package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

func (e *Extractor) extractDocument(ctx context.Context, path string) (*Content, error) {
	var (
		text      string
		truncated bool
		err       error
		thumbnail = "icon:document"
	)

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case isPDFFile(path):
		thumbnail = "icon:pdf"
		text, truncated, err = e.readPDF(path)
	case ext == ".html" || ext == ".htm":
		text, truncated, err = e.readHTML(path)
	default:
		text, truncated, err = e.readText(path)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text = normalizeWhitespace(text)
	if text == "" {
		text = filenameWords(path)
	}
	return &Content{Text: text, Thumbnail: thumbnail, Truncated: truncated}, nil
}

// readText reads at most maxDocumentBytes of UTF-8 text.
func (e *Extractor) readText(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, newError(path, ReasonReadError, err)
	}
	defer f.Close()

	data, truncated, err := readLimited(f, e.maxDocumentBytes)
	if err != nil {
		return "", false, newError(path, ReasonReadError, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", false, newError(path, ReasonUnsupportedFormat, errInvalidUTF8)
	}
	return string(data), truncated, nil
}

// readHTML extracts visible text from an HTML document.
func (e *Extractor) readHTML(path string) (string, bool, error) {
	raw, truncated, err := e.readText(path)
	if err != nil {
		return "", false, err
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return sb.String(), truncated, nil
			}
			return "", false, newError(path, ReasonUnsupportedFormat, z.Err())
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

// readPDF extracts the plain text layer of a PDF.
func (e *Extractor) readPDF(path string) (string, bool, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", false, newError(path, ReasonUnsupportedFormat, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", false, newError(path, ReasonUnsupportedFormat, err)
	}
	data, truncated, err := readLimited(plain, e.maxDocumentBytes)
	if err != nil {
		return "", false, newError(path, ReasonReadError, err)
	}
	return strings.ToValidUTF8(string(data), ""), truncated, nil
}

// readLimited reads up to limit bytes and reports whether more remained.
// A multi-byte rune split by the limit is dropped.
func readLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) <= limit {
		return data, false, nil
	}
	data = data[:limit]
	for i := 0; i < utf8.UTFMax && len(data) > 0; i++ {
		last, size := utf8.DecodeLastRune(data)
		if last != utf8.RuneError || size != 1 {
			break
		}
		data = data[:len(data)-1]
	}
	return data, true, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isPDFFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	header := make([]byte, headerSize)
	n, _ := io.ReadFull(f, header)
	return IsPDF(header[:n])
}
