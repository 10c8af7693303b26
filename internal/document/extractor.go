// Package document turns uploaded files into the text attached to prompts.
//
// Binary formats are not parsed: a .pdf, .doc or .docx upload is decoded as UTF-8 text
// (invalid bytes replaced by U+FFFD) and truncated, and its descriptive content is a
// placeholder naming the file.
package document

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"deepchat/internal/apperr"
	"deepchat/internal/models"
)

const (
	DefaultMaxChars = 10000

	metaPlaceholder = "placeholder"
)

var supportedExts = []string{".pdf", ".doc", ".docx"}

// Supported reports whether filename has an accepted suffix. The match is case-sensitive.
func Supported(filename string) bool {
	for _, ext := range supportedExts {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// Upload is one file received from a client.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Extractor dispatches uploads to a placeholder parser chosen by extension.
type Extractor struct {
	parser   *parser.ExtParser
	maxChars int
}

func NewExtractor(ctx context.Context, maxChars int) (*Extractor, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	pdf := &placeholderParser{label: "PDF", maxChars: maxChars}
	word := &placeholderParser{label: "Word", maxChars: maxChars}
	ext, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers: map[string]parser.Parser{
			".pdf":  pdf,
			".doc":  word,
			".docx": word,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init document parser: %w", err)
	}
	return &Extractor{parser: ext, maxChars: maxChars}, nil
}

// Validate rejects the batch if any filename is unsupported, naming the first offender.
func Validate(filenames []string) error {
	for _, name := range filenames {
		if !Supported(name) {
			return apperr.Validationf("unsupported file type: %s", name)
		}
	}
	return nil
}

// Extract converts one upload into a stored file record.
func (e *Extractor) Extract(ctx context.Context, up Upload) (models.UploadedFile, error) {
	if !Supported(up.Filename) {
		return models.UploadedFile{}, apperr.Validationf("unsupported file type: %s", up.Filename)
	}
	docs, err := e.parser.Parse(ctx, up.Body, parser.WithURI(up.Filename))
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("parse %s: %w", up.Filename, err)
	}
	if len(docs) == 0 || docs[0] == nil {
		return models.UploadedFile{}, fmt.Errorf("parse %s: no document produced", up.Filename)
	}
	doc := docs[0]
	placeholder, _ := doc.MetaData[metaPlaceholder].(string)
	return models.UploadedFile{
		Filename:    up.Filename,
		Content:     placeholder,
		FileContent: doc.Content,
	}, nil
}

// ExtractAll converts the batch, returning nothing if any upload fails. Callers run
// Validate on the filenames first so that no body is read for a rejected batch.
func (e *Extractor) ExtractAll(ctx context.Context, uploads []Upload) ([]models.UploadedFile, error) {
	files := make([]models.UploadedFile, 0, len(uploads))
	for _, up := range uploads {
		f, err := e.Extract(ctx, up)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

type placeholderParser struct {
	label    string
	maxChars int
}

func (p *placeholderParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	opt := parser.GetCommonOptions(&parser.Options{}, opts...)
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	text, err := DecodeText(raw)
	if err != nil {
		return nil, err
	}
	return []*schema.Document{{
		ID:      opt.URI,
		Content: Truncate(text, p.maxChars),
		MetaData: map[string]any{
			metaPlaceholder: fmt.Sprintf("%s file content: %s", p.label, opt.URI),
		},
	}}, nil
}

// DecodeText decodes raw as UTF-8, replacing each invalid byte with U+FFFD.
func DecodeText(raw []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode upload: %w", err)
	}
	return string(out), nil
}

// Truncate keeps at most maxChars characters (code points) of s.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
