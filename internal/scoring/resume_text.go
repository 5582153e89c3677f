package scoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aicruit/internal/util"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// minResumeText is the shortest extraction accepted as a readable resume.
const minResumeText = 50

// ErrUnreadableResume means no usable text could be extracted.
var ErrUnreadableResume = errors.New("could not extract text from resume")

type documentKind int

const (
	kindText documentKind = iota
	kindPDF
	kindDOCX
	kindHTML
)

// ResumeFetcher loads a resume by URL or local path and extracts its text.
type ResumeFetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewResumeFetcher creates a fetcher that refuses documents over maxMB.
func NewResumeFetcher(timeout time.Duration, maxMB int) *ResumeFetcher {
	if maxMB <= 0 {
		maxMB = 10
	}
	return &ResumeFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   int64(maxMB) << 20,
	}
}

// Fetch returns the cleaned plain text of the resume at ref.
func (f *ResumeFetcher) Fetch(ctx context.Context, ref string) (string, error) {
	data, contentType, err := f.load(ctx, ref)
	if err != nil {
		return "", err
	}

	raw, err := ExtractText(data, contentType, ref)
	if err != nil {
		return "", err
	}
	text, err := util.CleanText([]byte(raw), ref)
	if err != nil {
		return "", err
	}
	if len(text) < minResumeText {
		return "", fmt.Errorf("%w: %s yielded %d characters", ErrUnreadableResume, ref, len(text))
	}

	log.WithFields(log.Fields{"resume_ref": ref, "chars": len(text)}).Debug("Resume text extracted")
	return text, nil
}

func (f *ResumeFetcher) load(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.download(ctx, ref)
	}

	path := strings.TrimPrefix(ref, "file://")
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("open resume %s: %w", path, err)
	}
	if info.Size() > f.maxBytes {
		return nil, "", fmt.Errorf("resume %s is %d bytes, limit is %d", path, info.Size(), f.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read resume %s: %w", path, err)
	}
	return data, mime.TypeByExtension(filepath.Ext(path)), nil
}

func (f *ResumeFetcher) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download resume: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download resume: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("download resume: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("resume at %s exceeds %d bytes", url, f.maxBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// ExtractText pulls plain text out of a PDF, DOCX, HTML or text document.
// The format is sniffed from the content first, then contentType and name.
func ExtractText(data []byte, contentType, name string) (string, error) {
	switch detectKind(data, contentType, name) {
	case kindPDF:
		return pdfText(data)
	case kindDOCX:
		return docxText(data)
	case kindHTML:
		return markupText(string(data)), nil
	default:
		if util.IsLikelyBinary(data) {
			return "", fmt.Errorf("%w: unsupported binary document %s", ErrUnreadableResume, name)
		}
		return string(data), nil
	}
}

func detectKind(data []byte, contentType, name string) documentKind {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return kindPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return kindDOCX
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/pdf":
		return kindPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return kindDOCX
	case "text/html", "application/xhtml+xml":
		return kindHTML
	}

	lower := strings.ToLower(name)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	switch filepath.Ext(lower) {
	case ".pdf":
		return kindPDF
	case ".docx":
		return kindDOCX
	case ".html", ".htm":
		return kindHTML
	}
	return kindText
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()
	return markupText(r.Editable().GetContent()), nil
}

// lineBreakTags end a line of text in HTML and WordprocessingML.
var lineBreakTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"w:p": true, "w:br": true, "w:cr": true,
}

var skippedTags = map[string]bool{"script": true, "style": true, "head": true, "noscript": true}

// markupText flattens HTML or document.xml markup to text, one block per line.
func markupText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			nameBytes, _ := z.TagName()
			name := string(nameBytes)
			if skippedTags[name] {
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
				continue
			}
			if name == "w:tab" {
				b.WriteByte('\t')
				continue
			}
			if lineBreakTags[name] && (tt != html.StartTagToken || name == "br") {
				b.WriteByte('\n')
			}
		}
	}
}
