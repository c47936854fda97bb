// Package document reads pay statements from disk or uploads and converts
// them to the plain text the extractor works on.
package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

var pdfMagic = []byte("%PDF-")

// Loader turns statement files into text.
type Loader struct {
	password string
	logger   *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithPassword sets the user password for encrypted PDF statements.
func WithPassword(password string) Option {
	return func(l *Loader) {
		l.password = password
	}
}

// NewLoader creates a loader.
func NewLoader(logger *zap.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the statement at path.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read statement %s: %w", path, err)
	}
	return l.Text(filepath.Base(path), data)
}

// Text converts raw statement bytes to text. PDFs are detected by their
// header or a .pdf name; anything else is treated as plain text.
func (l *Loader) Text(name string, data []byte) (string, error) {
	if IsPDF(name, data) {
		text, err := l.pdfText(data)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from %s: %w", name, err)
		}
		l.logger.Debug("extracted text from PDF statement",
			zap.String("op", "document.Text"),
			zap.String("name", name),
			zap.Int("chars", len(text)),
		)
		return text, nil
	}
	return normalizeNewlines(string(data)), nil
}

// IsPDF reports whether the statement looks like a PDF document.
func IsPDF(name string, data []byte) bool {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func (l *Loader) pdfText(data []byte) (_ string, err error) {
	// The pdf reader panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	if l.password != "" {
		decrypted, err := decrypt(data, l.password)
		if err != nil {
			return "", err
		}
		data = decrypted
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			writeRow(&text, row.Content)
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

// writeRow joins the text runs of one line, inserting a space where runs are
// visually separated.
func writeRow(b *strings.Builder, runs pdf.TextHorizontal) {
	for i, run := range runs {
		if i > 0 {
			prev := runs[i-1]
			if run.X-(prev.X+prev.W) > 1 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(run.S, " ") {
				b.WriteString(" ")
			}
		}
		b.WriteString(run.S)
	}
}

func decrypt(data []byte, password string) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return out.Bytes(), nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
