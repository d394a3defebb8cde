package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/finsight-ai/finsight-be/database"
	"github.com/finsight-ai/finsight-be/types"
)

// IngestOptions are the tunables of one ingestion run.
type IngestOptions struct {
	ChunkSize     int
	Overlap       int
	BatchSize     int
	UpsertBatch   int
	MinChunkChars int
	DedupeWindow  int
	PageLimit     int
	PerPage       bool
	DetectSlides  bool
	HeaderPrefix  bool
	Strategy      Strategy
	Timeout       time.Duration
	LogPages      bool
}

func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		ChunkSize:     1200,
		Overlap:       200,
		BatchSize:     8,
		UpsertBatch:   32,
		MinChunkChars: 200,
		DedupeWindow:  20000,
		DetectSlides:  true,
		HeaderPrefix:  true,
		Strategy:      StrategyAuto,
		Timeout:       30 * time.Second,
	}
}

// IngestService drives the document ingestion pipeline: segment pages, chunk
// them, embed chunk batches and upsert them into the vector store, with
// retry and per-call timeouts around every external call.
type IngestService struct {
	store    database.VectorStore
	embedder EmbeddingService
	pdf      *PDFService
	logger   *slog.Logger
}

func NewIngestService(store database.VectorStore, embedder EmbeddingService, pdf *PDFService, logger *slog.Logger) *IngestService {
	return &IngestService{
		store:    store,
		embedder: embedder,
		pdf:      pdf,
		logger:   logger,
	}
}

// dimensionProbe is the sentinel string embedded once per run to learn the
// embedding model's vector size.
const dimensionProbe = "dimension probe"

// Ingest processes the given documents sequentially and returns the number
// of chunks upserted per document path. A document whose embedding or upsert
// ultimately fails is abandoned and reported in the joined error; remaining
// documents are still processed.
func (s *IngestService) Ingest(ctx context.Context, paths []string, opts IngestOptions) (map[string]int, error) {
	probeCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	probe, err := s.embedder.EmbedQuery(probeCtx, dimensionProbe)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	if err := s.store.EnsureCollection(ctx, uint64(len(probe))); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(paths))
	var errs []error
	for i, path := range paths {
		s.logger.Info("ingesting document",
			slog.Int("n", i+1),
			slog.Int("total", len(paths)),
			slog.String("path", path))

		n, err := s.ingestFile(ctx, path, opts)
		if err != nil {
			if ctx.Err() != nil {
				return counts, ctx.Err()
			}
			s.logger.Error("document ingestion failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		counts[path] = n
	}
	return counts, errors.Join(errs...)
}

func (s *IngestService) ingestFile(ctx context.Context, path string, opts IngestOptions) (int, error) {
	doc, err := s.pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer doc.Close()

	meta := FileMetaFromName(path)
	chunker := NewChunker(ChunkerOptions{
		ChunkSize:     opts.ChunkSize,
		Overlap:       opts.Overlap,
		MinChunkChars: opts.MinChunkChars,
		DedupeWindow:  opts.DedupeWindow,
		PerPage:       opts.PerPage,
		DetectSlides:  opts.DetectSlides,
		HeaderPrefix:  opts.HeaderPrefix,
		Strategy:      opts.Strategy,
	})
	run := NewChunkRun(opts.DedupeWindow)

	processed := 0
	var pending []types.Chunk

	flush := func(batch []types.Chunk) error {
		points, err := s.buildPoints(ctx, meta, batch, opts.Timeout)
		if err != nil {
			return err
		}
		for start := 0; start < len(points); start += opts.UpsertBatch {
			end := start + opts.UpsertBatch
			if end > len(points) {
				end = len(points)
			}
			sub := points[start:end]
			err := callWithRetry(ctx, s.logger, "qdrant upsert", opts.Timeout, func(ctx context.Context) error {
				return s.store.Upsert(ctx, sub)
			})
			if err != nil {
				return err
			}
		}
		processed += len(batch)
		return nil
	}

	numPages := doc.NumPages()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if opts.PageLimit > 0 && pageNum > opts.PageLimit {
			break
		}
		frags, err := doc.PageFragments(pageNum)
		if err != nil {
			// Partial-document failure: skip the page, keep the document.
			s.logger.Warn("skipping page",
				slog.String("path", path),
				slog.Int("page", pageNum),
				slog.String("error", err.Error()))
			continue
		}

		page := LinesFromFragments(frags)
		chunks := chunker.ChunkPage(run, page, pageNum)
		if opts.LogPages {
			s.logger.Info("page segmented",
				slog.Int("page", pageNum),
				slog.Int("chars", page.Stats.TotalChars),
				slog.Int("bullets", page.Stats.BulletLines),
				slog.Int("chunks", len(chunks)))
		}
		pending = append(pending, chunks...)

		for len(pending) >= opts.BatchSize {
			batch := pending[:opts.BatchSize]
			pending = pending[opts.BatchSize:]
			if err := flush(batch); err != nil {
				return processed, err
			}
		}
	}

	if len(pending) > 0 {
		if err := flush(pending); err != nil {
			return processed, err
		}
	}

	if processed == 0 {
		s.logger.Warn("no text found, document skipped", slog.String("path", path))
	} else {
		s.logger.Info("document ingested",
			slog.String("path", path),
			slog.Int("chunks", processed))
	}
	return processed, nil
}

// buildPoints embeds one batch of chunks and assembles the points to upsert.
func (s *IngestService) buildPoints(ctx context.Context, meta types.DocumentMeta, batch []types.Chunk, timeout time.Duration) ([]*qdrant.PointStruct, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	var vectors [][]float32
	err := callWithRetry(ctx, s.logger, "embeddings", timeout, func(ctx context.Context) error {
		var err error
		vectors, err = s.embedder.EmbedDocuments(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}

	points := make([]*qdrant.PointStruct, len(batch))
	for i, c := range batch {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(PointID(meta.Path, c.Index)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: database.PointPayload(meta, c),
		}
	}
	return points, nil
}

// PointID derives the deterministic point identifier for a chunk from its
// document path and index: the first 48 bits of md5(path + "#" + index).
// Re-ingesting the same document overwrites rather than duplicates.
func PointID(path string, index int) uint64 {
	sum := md5.Sum([]byte(path + "#" + strconv.Itoa(index)))
	id, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:12], 16, 64)
	return id
}
