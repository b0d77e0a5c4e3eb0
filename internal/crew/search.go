package crew

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Tool — инструмент агента: по запросу возвращает релевантные фрагменты.
type Tool interface {
	Name() string
	Search(query string) []Chunk
}

// PDFSearchTool ранжирует фрагменты одного документа по совпадению терминов запроса.
type PDFSearchTool struct {
	doc  *Document
	topK int
	idf  map[string]float64
	tf   []map[string]int
}

func NewPDFSearchTool(doc *Document, topK int) *PDFSearchTool {
	if topK <= 0 {
		topK = 4
	}
	t := &PDFSearchTool{
		doc:  doc,
		topK: topK,
		idf:  make(map[string]float64),
		tf:   make([]map[string]int, len(doc.Chunks)),
	}
	df := make(map[string]int)
	for i, c := range doc.Chunks {
		counts := make(map[string]int)
		for _, term := range tokenize(c.Text) {
			counts[term]++
		}
		t.tf[i] = counts
		for term := range counts {
			df[term]++
		}
	}
	n := float64(len(doc.Chunks))
	for term, d := range df {
		t.idf[term] = math.Log(1 + n/float64(d))
	}
	return t
}

func (t *PDFSearchTool) Name() string { return "Search a PDF's content" }

// Search возвращает до topK фрагментов с ненулевым весом, по убыванию веса;
// при равенстве раньше идёт фрагмент с меньшим номером.
func (t *PDFSearchTool) Search(query string) []Chunk {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i, counts := range t.tf {
		var s float64
		for _, term := range terms {
			if c := counts[term]; c > 0 {
				s += (1 + math.Log(float64(c))) * t.idf[term]
			}
		}
		if s > 0 {
			hits = append(hits, scored{idx: i, score: s})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > t.topK {
		hits = hits[:t.topK]
	}
	out := make([]Chunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, t.doc.Chunks[h.idx])
	}
	return out
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {}, "i": {},
	"in": {}, "is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "why": {}, "with": {}, "you": {}, "your": {},
	"following": {}, "provide": {}, "please": {},
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
