package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/studyforge/ai"
	"github.com/poiesic/studyforge/retry"
	"github.com/poiesic/studyforge/semantic"
)

// DefaultPoolSize covers the widest batch the pipeline issues at once.
const DefaultPoolSize = 4

// Retriever returns transcript excerpts relevant to a query.
// *semantic.Index satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]semantic.Match, error)
}

// Request carries the shared inputs of one generation batch.
type Request struct {
	Transcript        string
	ReferencesContext string
	// Query seeds excerpt retrieval for RAG modules. Usually the summary.
	Query string
	// Retriever is optional. When set, RAG modules get matching excerpts
	// appended to their instruction.
	Retriever Retriever
}

// Generator issues module completions concurrently on a worker pool.
type Generator struct {
	completer ai.Completer
	pool      *ants.Pool
	policy    retry.Policy
	topK      int
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator) error

// WithPoolSize sets the number of modules generated at once.
func WithPoolSize(size int) Option {
	return func(g *Generator) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if g.pool != nil {
			g.pool.Release()
		}
		g.pool = pool
		return nil
	}
}

// WithRetryPolicy sets the retry policy for each completion call.
func WithRetryPolicy(p retry.Policy) Option {
	return func(g *Generator) error {
		g.policy = p
		return nil
	}
}

// WithTopK sets how many excerpts RAG modules receive.
func WithTopK(k int) Option {
	return func(g *Generator) error {
		if k > 0 {
			g.topK = k
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGenerator creates a generator that sends prompts to completer.
func NewGenerator(completer ai.Completer, opts ...Option) (*Generator, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		completer: completer,
		pool:      pool,
		policy:    retry.DefaultPolicy,
		topK:      semantic.DefaultTopK,
		logger:    slog.Default().With("component", "generation"),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			g.Release()
			return nil, err
		}
	}
	return g, nil
}

// Run generates every module in modules concurrently and waits for all of
// them to settle. Any failed module fails the batch; the returned error
// joins the failure of each module.
func (g *Generator) Run(ctx context.Context, req Request, modules ...Module) (map[Module]string, error) {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		out  = make(map[Module]string, len(modules))
		errs []error
	)
	record := func(m Module, text string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m, err))
			return
		}
		out[m] = text
	}

	for _, m := range modules {
		if m.Instruction() == "" {
			record(m, "", ErrUnknownModule)
			continue
		}
		wg.Add(1)
		err := g.pool.Submit(func() {
			defer wg.Done()
			text, err := g.generate(ctx, req, m)
			record(m, text, err)
		})
		if err != nil {
			wg.Done()
			record(m, "", err)
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

func (g *Generator) generate(ctx context.Context, req Request, m Module) (string, error) {
	logger := g.logger.With("module", m.String())
	instruction := m.Instruction()

	var prompt string
	if m.RAG() {
		instruction = g.withExcerpts(ctx, logger, req, m, instruction)
		prompt = RAGPrompt(req.ReferencesContext, req.Transcript, instruction)
	} else {
		prompt = PlainPrompt(req.Transcript, instruction)
	}

	logger.Debug("generating module", "promptLength", len(prompt))
	text, err := retry.Do(ctx, g.policy, func(ctx context.Context) (string, error) {
		return g.completer.Complete(ctx, SystemPrompt, prompt)
	})
	if err != nil {
		logger.Error("module generation failed", "err", err)
		return "", err
	}
	return text, nil
}

// withExcerpts appends retrieved transcript excerpts to instruction. A
// retrieval failure is logged and the instruction is used unchanged.
func (g *Generator) withExcerpts(ctx context.Context, logger *slog.Logger, req Request, m Module, instruction string) string {
	if req.Retriever == nil {
		return instruction
	}
	query := strings.TrimSpace(semantic.EnhanceQuery(m.String(), req.Query))
	matches, err := req.Retriever.Retrieve(ctx, query, g.topK)
	if err != nil {
		logger.Warn("excerpt retrieval failed", "err", err)
		return instruction
	}
	return semantic.FormatResults(matches) + "\n\n" + instruction
}

// Release releases the worker pool. The generator must not be used afterwards.
func (g *Generator) Release() {
	if g.pool != nil {
		g.pool.Release()
	}
}
