package crew

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Chunk — фрагмент текста документа, единица поиска.
type Chunk struct {
	Page  int
	Index int
	Text  string
}

type Document struct {
	Path   string
	Pages  int
	Chunks []Chunk
}

// LoadPDF извлекает текст постранично и режет его на перекрывающиеся фрагменты.
// Страницы, которые не удалось разобрать, пропускаются.
func LoadPDF(path string, size, overlap int) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	doc := &Document{Path: path, Pages: r.NumPage()}
	for i := 1; i <= doc.Pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		doc.Chunks = append(doc.Chunks, chunkPage(i, text, size, overlap)...)
	}
	if len(doc.Chunks) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", path)
	}
	return doc, nil
}

// NewTextDocument строит документ из уже извлечённых страниц (page index = i+1).
func NewTextDocument(path string, pages []string, size, overlap int) *Document {
	doc := &Document{Path: path, Pages: len(pages)}
	for i, text := range pages {
		doc.Chunks = append(doc.Chunks, chunkPage(i+1, text, size, overlap)...)
	}
	return doc
}

func chunkPage(page int, text string, size, overlap int) []Chunk {
	parts := chunkText(normalizeText(text), size, overlap)
	out := make([]Chunk, 0, len(parts))
	for idx, part := range parts {
		out = append(out, Chunk{Page: page, Index: idx, Text: part})
	}
	return out
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func chunkText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			chunks = append(chunks, part)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
