package types

type DataResponse struct {
	Status bool        `json:"status"`
	Data   interface{} `json:"data"`
}

type ErrorResponse struct {
	Status bool   `json:"status"`
	Error  string `json:"error"`
}

// Source identifies where an answer excerpt came from, without the text.
type Source struct {
	Title         string       `json:"title,omitempty"`
	Source        string       `json:"source,omitempty"`
	Company       string       `json:"company,omitempty"`
	DocType       DocumentType `json:"doc_type,omitempty"`
	PublishedDate string       `json:"published_date,omitempty"`
	Path          string       `json:"path,omitempty"`
	ChunkIndex    int          `json:"chunk_index"`
	PageStart     int          `json:"page_start,omitempty"`
	PageEnd       int          `json:"page_end,omitempty"`
}

type AskResponse struct {
	Answer    string     `json:"answer"`
	Sources   []Source   `json:"sources"`
	ChartSpec *ChartSpec `json:"chart_spec,omitempty"`
}

type SearchResponse struct {
	Excerpts []RankedExcerpt `json:"excerpts"`
}
