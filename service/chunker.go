package service

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/finsight-ai/finsight-be/types"
)

// Strategy selects the chunking strategy for a document.
type Strategy string

const (
	// StrategyAuto picks slide or text mode per page via DetectPageType.
	StrategyAuto Strategy = "auto"
	// StrategyRecursive forces the recursive splitter on every page.
	StrategyRecursive Strategy = "recursive"
	// StrategyPerPage emits one chunk per page.
	StrategyPerPage Strategy = "perpage"
)

// ChunkerOptions are the tunables for page chunking.
type ChunkerOptions struct {
	ChunkSize     int
	Overlap       int
	MinChunkChars int
	DedupeWindow  int
	PerPage       bool
	DetectSlides  bool
	HeaderPrefix  bool
	Strategy      Strategy
}

// Chunker splits page text into chunks by either a per-page policy or the
// recursive layout-aware splitter, depending on configuration and the
// detected page type.
type Chunker struct {
	opts ChunkerOptions
}

func NewChunker(opts ChunkerOptions) *Chunker {
	return &Chunker{opts: opts}
}

// ChunkRun holds the state of one document's ingestion run: the sequential
// chunk index and the content-hash set used for deduplication. It is local
// to a single run and discarded afterward, which keeps ingestion
// parallelizable across documents.
type ChunkRun struct {
	seen         map[string]struct{}
	nextIndex    int
	dedupeWindow int
}

func NewChunkRun(dedupeWindow int) *ChunkRun {
	return &ChunkRun{
		seen:         make(map[string]struct{}),
		dedupeWindow: dedupeWindow,
	}
}

// admit reports whether text is new within this run and records its hash.
// The hash set is cleared once it grows past the dedupe window; a rare
// duplicate may slip through after a reset, which is an accepted tradeoff
// for bounded memory.
func (r *ChunkRun) admit(text string) bool {
	h := contentHash(text)
	if _, dup := r.seen[h]; dup {
		return false
	}
	r.seen[h] = struct{}{}
	if r.dedupeWindow > 0 && len(r.seen) > r.dedupeWindow {
		r.seen = make(map[string]struct{})
	}
	return true
}

func contentHash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ChunkPage chunks one page of a document. Every accepted chunk receives the
// run's next sequential index and both page bounds set to pageNum.
func (c *Chunker) ChunkPage(run *ChunkRun, page types.PageContent, pageNum int) []types.Chunk {
	mode := c.resolveMode(page.Stats)

	heading := ""
	if c.opts.HeaderPrefix {
		heading = PickHeading(page.Lines)
	}

	base := page.Text
	if heading != "" {
		base = heading + "\n\n" + page.Text
	}

	var out []types.Chunk

	if mode == types.PageTypeSlide {
		minLen := c.opts.MinChunkChars
		if minLen < slideMinChunkChars {
			minLen = slideMinChunkChars
		}
		if len(base) >= minLen && run.admit(base) {
			out = append(out, types.Chunk{
				Text:      base,
				Index:     run.nextIndex,
				PageStart: pageNum,
				PageEnd:   pageNum,
			})
			run.nextIndex++
		}
		return out
	}

	for _, part := range SplitText(base, c.opts.ChunkSize, c.opts.Overlap) {
		text := NormalizeText(part)
		if len(text) < c.opts.MinChunkChars {
			continue
		}
		if !run.admit(text) {
			continue
		}
		out = append(out, types.Chunk{
			Text:      text,
			Index:     run.nextIndex,
			PageStart: pageNum,
			PageEnd:   pageNum,
		})
		run.nextIndex++
	}
	return out
}

// slideMinChunkChars is the floor applied to per-page chunks so that near
// empty slides are not stored.
const slideMinChunkChars = 80

// resolveMode maps the per-page and strategy settings plus the detected page
// type onto either slide (whole page) or text (recursive) handling.
func (c *Chunker) resolveMode(stats types.PageStats) types.PageType {
	if c.opts.PerPage {
		return types.PageTypeSlide
	}
	switch c.opts.Strategy {
	case StrategyPerPage:
		return types.PageTypeSlide
	case StrategyRecursive:
		return types.PageTypeText
	default: // StrategyAuto
		if c.opts.DetectSlides {
			return DetectPageType(stats)
		}
		return types.PageTypeText
	}
}
