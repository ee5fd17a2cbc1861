// Package noteservice is the top-level controller. It owns the outline view,
// the mutator, the clipboard and the single edit session, and serializes
// every caller onto them.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/clipboard"
	"github.com/starford/arbor/internal/editor"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/outline"
	"github.com/starford/arbor/internal/parser"
)

// Backend is the store driven by the service.
type Backend interface {
	outline.Store
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// Events receives change notifications, typically the SSE broker.
type Events interface {
	PublishNoteEvent(kind, id string)
	PublishEditEvent(kind, id string)
}

type nopEvents struct{}

func (nopEvents) PublishNoteEvent(string, string) {}
func (nopEvents) PublishEditEvent(string, string) {}

// Config tunes the service.
type Config struct {
	MaxDepth int
	Indent   int
	Resolver parser.Resolver
	Sink     clipboard.TextSink
	Events   Events
	Logger   *slog.Logger
}

// Service coordinates the outline engine for concurrent callers. Every
// exported method holds one mutex for its whole duration, so the engine
// below only ever sees one operation at a time.
type Service struct {
	mu sync.Mutex

	backend  Backend
	tree     *outline.Tree
	mut      *outline.Mutator
	clip     *clipboard.Manager
	edit     *editor.Session
	parser   *parser.Parser
	resolver parser.Resolver
	indent   int
	logger   *slog.Logger
	events   Events

	deferred []func(context.Context)
}

// New builds the service and loads the view at the true root.
func New(ctx context.Context, backend Backend, cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Events == nil {
		cfg.Events = nopEvents{}
	}
	if cfg.Indent <= 0 {
		cfg.Indent = clipboard.DefaultIndent
	}
	if cfg.Resolver == nil {
		return nil, errors.New("noteservice: resolver is required")
	}

	s := &Service{
		backend:  backend,
		resolver: cfg.Resolver,
		parser:   parser.New(cfg.Resolver),
		indent:   cfg.Indent,
		logger:   cfg.Logger,
		events:   cfg.Events,
	}
	s.tree = outline.NewTree(backend, cfg.MaxDepth, cfg.Logger)
	s.mut = outline.NewMutator(s.tree, outline.NotifierFunc(func(kind outline.ChangeKind, id string) {
		s.events.PublishNoteEvent(string(kind), id)
	}))
	opts := []clipboard.Option{clipboard.WithIndent(cfg.Indent), clipboard.WithLogger(cfg.Logger)}
	if cfg.Sink != nil {
		opts = append(opts, clipboard.WithSink(cfg.Sink))
	}
	s.clip = clipboard.NewManager(s.mut, backend, opts...)
	s.edit = editor.New(s.mut, s.parser, cfg.Logger, func(kind editor.EventKind, id string) {
		s.events.PublishEditEvent(string(kind), id)
	})

	if err := s.tree.Load(ctx, ""); err != nil {
		return nil, fmt.Errorf("noteservice: load tree: %w", err)
	}
	return s, nil
}

// lock takes the service mutex and runs callbacks deferred by the previous
// operation. The returned function releases the mutex.
func (s *Service) lock(ctx context.Context) func() {
	s.mu.Lock()
	pending := s.deferred
	s.deferred = nil
	for _, fn := range pending {
		fn(ctx)
	}
	return s.mu.Unlock
}

// after queues fn to run once before the next operation. fn must tolerate
// its target having been deleted or moved in the meantime.
func (s *Service) after(fn func(context.Context)) {
	s.deferred = append(s.deferred, fn)
}

// fail logs store failures as transient notices and passes err on.
func (s *Service) fail(op string, err error) error {
	if err != nil && apperr.IsStore(err) {
		s.logger.Warn("noteservice: store failure", slog.String("op", op), slog.String("error", err.Error()))
	}
	return err
}

// reselect queues a selection of ids, skipping any that have vanished.
func (s *Service) reselect(ids []string) {
	s.after(func(context.Context) {
		current := ""
		if len(ids) > 0 {
			current = ids[0]
		}
		s.tree.RestoreSelection(ids, current)
	})
}
