package crew

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
)

// System — набор документации, по которому отвечает crew.
type System struct {
	Name  string
	Title string
	File  string
}

func DefaultSystems() []System {
	return []System{
		{Name: "system1", Title: "DO THE WORK BOOK", File: "system1_documentation.pdf"},
		{Name: "system2", Title: "DJANGO REST FRAMEWORK BOOK", File: "system2_documentation.pdf"},
	}
}

// Library держит зарегистрированные системы и загруженные документы.
// После создания только читается.
type Library struct {
	systems map[string]System
	docs    map[string]*Document
}

// LoadLibrary параллельно загружает PDF каждой системы из dir.
// Отсутствующий или нечитаемый файл не фатален: система остаётся
// зарегистрированной, но запросы к ней вернут errs.ErrDocumentMissing.
func LoadLibrary(ctx context.Context, dir string, systems []System, size, overlap int) (*Library, error) {
	lib := &Library{
		systems: make(map[string]System, len(systems)),
		docs:    make(map[string]*Document, len(systems)),
	}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, sys := range systems {
		lib.systems[sys.Name] = sys
		path := filepath.Join(dir, sys.File)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				slog.Warn("crew: documentation not found", "system", sys.Name, "path", path)
				return nil
			}
			doc, err := LoadPDF(path, size, overlap)
			if err != nil {
				slog.Warn("crew: load documentation", "system", sys.Name, "path", path, "error", err)
				return nil
			}
			mu.Lock()
			lib.docs[sys.Name] = doc
			mu.Unlock()
			slog.Info("crew: documentation loaded", "system", sys.Name, "pages", doc.Pages, "chunks", len(doc.Chunks))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lib, nil
}

// NewLibrary собирает библиотеку из готовых документов (ключ — имя системы).
func NewLibrary(systems []System, docs map[string]*Document) *Library {
	lib := &Library{
		systems: make(map[string]System, len(systems)),
		docs:    make(map[string]*Document, len(docs)),
	}
	for _, s := range systems {
		lib.systems[s.Name] = s
	}
	for name, d := range docs {
		lib.docs[name] = d
	}
	return lib
}

func (l *Library) Names() []string {
	names := make([]string, 0, len(l.systems))
	for n := range l.systems {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (l *Library) Has(name string) bool {
	_, ok := l.systems[name]
	return ok
}

func (l *Library) System(name string) (System, error) {
	s, ok := l.systems[name]
	if !ok {
		return System{}, fmt.Errorf("%w: %s", errs.ErrUnknownSystem, name)
	}
	return s, nil
}

func (l *Library) Document(name string) (*Document, error) {
	s, err := l.System(name)
	if err != nil {
		return nil, err
	}
	doc, ok := l.docs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", errs.ErrDocumentMissing, s.Name, s.File)
	}
	return doc, nil
}
