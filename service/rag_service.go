package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsight-ai/finsight-be/database"
	"github.com/finsight-ai/finsight-be/types"
)

const (
	retrievalLimit         = 8
	retrievalFallbackLimit = 16
	retrievalThreshold     = 0.2
	maxPromptExcerpts      = 6

	// degradedAnswer is returned when every completion provider fails, so
	// the caller always gets a displayable string.
	degradedAnswer = "I'm unable to answer right now due to a temporary service issue. Please try again in a moment."
)

// ErrDimensionMismatch signals that the configured embedding model does not
// match the collection's declared vector size. This is a configuration
// error: it is raised before any search and never retried.
var ErrDimensionMismatch = errors.New("embedding dimension does not match collection vector size")

// RAGService answers questions over the ingested corpus: it retrieves
// ranked excerpts, synthesizes a grounded answer with provider fallback,
// and optionally extracts a chart specification.
type RAGService struct {
	store     database.VectorStore
	embedder  EmbeddingService
	primary   CompletionService
	alternate CompletionService // may be nil
	chart     *ChartService
	logger    *slog.Logger
}

func NewRAGService(store database.VectorStore, embedder EmbeddingService, primary, alternate CompletionService, chart *ChartService, logger *slog.Logger) *RAGService {
	return &RAGService{
		store:     store,
		embedder:  embedder,
		primary:   primary,
		alternate: alternate,
		chart:     chart,
		logger:    logger,
	}
}

// Retrieve embeds the question and runs a filtered nearest-neighbor search.
// When an exact company filter yields nothing, it degrades gracefully: an
// unfiltered search with a larger cap, then a soft substring match on
// company/title metadata, and finally the unfiltered results as-is. Some
// context beats no context when metadata is inconsistent.
func (r *RAGService) Retrieve(ctx context.Context, question, company string) ([]types.RankedExcerpt, error) {
	qvec, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	size, err := r.store.VectorSize(ctx)
	if err != nil {
		return nil, err
	}
	if uint64(len(qvec)) != size {
		return nil, fmt.Errorf("query vector has %d dimensions, collection declares %d: %w",
			len(qvec), size, ErrDimensionMismatch)
	}

	excerpts, err := r.store.Search(ctx, qvec, database.SearchParams{
		Limit:          retrievalLimit,
		ScoreThreshold: retrievalThreshold,
		Company:        company,
	})
	if err != nil {
		return nil, err
	}
	if company == "" || len(excerpts) > 0 {
		return excerpts, nil
	}

	r.logger.Info("exact company filter empty, falling back to soft match",
		slog.String("company", company))
	wide, err := r.store.Search(ctx, qvec, database.SearchParams{
		Limit:          retrievalFallbackLimit,
		ScoreThreshold: retrievalThreshold,
	})
	if err != nil {
		return nil, err
	}

	var soft []types.RankedExcerpt
	for _, e := range wide {
		if softMatch(company, e.Company) || softMatch(company, e.Title) {
			soft = append(soft, e)
		}
	}
	if len(soft) > 0 {
		return soft, nil
	}
	return wide, nil
}

// softMatch compares strings case- and punctuation-insensitively by
// substring containment.
func softMatch(needle, haystack string) bool {
	n := foldMeta(needle)
	h := foldMeta(haystack)
	return n != "" && strings.Contains(h, n)
}

func foldMeta(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Answer builds a grounded prompt from the top excerpts and calls the
// primary completion provider, falling back to the alternate, then to a
// fixed degraded message. It never returns an error for a provider outage.
func (r *RAGService) Answer(ctx context.Context, question string, excerpts []types.RankedExcerpt) string {
	prompt := buildAnswerPrompt(question, topExcerpts(excerpts))

	text, err := r.primary.Complete(ctx, prompt)
	if err != nil && r.alternate != nil {
		r.logger.Warn("primary completion failed, trying alternate",
			slog.String("provider", r.primary.Name()),
			slog.String("error", err.Error()))
		text, err = r.alternate.Complete(ctx, prompt)
	}
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			r.logger.Error("all completion providers failed", slog.String("error", err.Error()))
		}
		return degradedAnswer
	}
	return text
}

// AnswerQuestion is the query-time entry point: retrieve, answer, and
// optionally extract a chart. Only configuration errors surface as errors;
// transient provider failures produce a degraded but displayable answer.
func (r *RAGService) AnswerQuestion(ctx context.Context, req types.AskRequest) (types.AskResponse, error) {
	question := strings.TrimSpace(req.Question)

	excerpts, err := r.Retrieve(ctx, question, req.Company)
	if err != nil {
		if errors.Is(err, ErrDimensionMismatch) {
			return types.AskResponse{}, err
		}
		r.logger.Error("retrieval failed", slog.String("error", err.Error()))
		return types.AskResponse{Answer: degradedAnswer, Sources: []types.Source{}}, nil
	}

	answer := r.Answer(ctx, question, excerpts)

	resp := types.AskResponse{
		Answer:  answer,
		Sources: sourceRefs(topExcerpts(excerpts)),
	}
	if req.EnableCharts {
		resp.ChartSpec = r.chart.Extract(ctx, question, answer, excerpts, req.ChartStrategy)
	}
	return resp, nil
}

func topExcerpts(excerpts []types.RankedExcerpt) []types.RankedExcerpt {
	if len(excerpts) > maxPromptExcerpts {
		return excerpts[:maxPromptExcerpts]
	}
	return excerpts
}

func sourceRefs(excerpts []types.RankedExcerpt) []types.Source {
	sources := make([]types.Source, 0, len(excerpts))
	for _, e := range excerpts {
		sources = append(sources, types.Source{
			Title:         e.Title,
			Source:        e.Source,
			Company:       e.Company,
			DocType:       e.DocType,
			PublishedDate: e.PublishedDate,
			Path:          e.Path,
			ChunkIndex:    e.ChunkIndex,
			PageStart:     e.PageStart,
			PageEnd:       e.PageEnd,
		})
	}
	return sources
}

func buildAnswerPrompt(question string, excerpts []types.RankedExcerpt) string {
	var b strings.Builder
	b.WriteString("You are a helpful financial research assistant. Answer the user's question using ONLY the information from the provided sources. ")
	b.WriteString("If the answer is not present, say you don't know. Be concise and factual, preserve exact figures, units and periods, ")
	b.WriteString("and distinguish between similarly named metrics (e.g. consolidated vs. standalone revenue). ")
	b.WriteString("End with a short list of citations like [S1], [S2] referring to the sources used.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	for i, e := range excerpts {
		fmt.Fprintf(&b, "Source %d:\nTitle: %s\nCompany: %s\nDocType: %s\nDate: %s\nExcerpt:\n%s\n\n",
			i+1, e.Title, e.Company, e.DocType, e.PublishedDate, e.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
