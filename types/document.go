package types

// DocumentType is the inferred kind of a source document.
type DocumentType string

const (
	DocumentTypeTranscript   DocumentType = "transcript"
	DocumentTypePresentation DocumentType = "presentation"
	DocumentTypeUnknown      DocumentType = ""
)

// DocumentMeta describes one source file. It is derived purely from the
// filename and never changes after ingestion.
type DocumentMeta struct {
	Title         string       `json:"title"`
	Source        string       `json:"source"`
	Company       string       `json:"company"`
	DocType       DocumentType `json:"doc_type,omitempty"`
	PublishedDate string       `json:"published_date,omitempty"`
	Path          string       `json:"path"`
}

// Fragment is a positioned piece of text extracted from a PDF page.
// Y is the vertical coordinate in page units. EOL marks an explicit
// end-of-line hint from the extractor when available.
type Fragment struct {
	Text string
	Y    float64
	EOL  bool
}

// PageStats aggregates layout statistics over the cleaned lines of a page.
type PageStats struct {
	TotalChars  int
	BulletLines int
	AvgLineLen  float64
}

// PageType classifies how a page should be chunked.
type PageType string

const (
	PageTypeSlide PageType = "slide"
	PageTypeText  PageType = "text"
)

// PageContent is the reconstructed content of a single page.
type PageContent struct {
	Text  string
	Lines []string
	Stats PageStats
}

// Chunk is one retrievable unit of text. Index is zero-based and monotonic
// within its document.
type Chunk struct {
	Text      string
	Index     int
	PageStart int
	PageEnd   int
}

// RankedExcerpt is one retrieval result: chunk text plus document metadata
// and the similarity score reported by the vector store.
type RankedExcerpt struct {
	DocumentMeta
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
	PageStart  int     `json:"page_start,omitempty"`
	PageEnd    int     `json:"page_end,omitempty"`
}
