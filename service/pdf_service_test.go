package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finsight-ai/finsight-be/types"
)

func TestFileMetaFromName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want types.DocumentMeta
	}{
		{
			name: "earnings call transcript with date",
			path: "docs/Acme-Q3-earnings-call_20240215.pdf",
			want: types.DocumentMeta{
				Title:         "Acme-Q3-earnings-call_20240215",
				Source:        "Acme-Q3-earnings-call_20240215.pdf",
				Company:       "Acme",
				DocType:       types.DocumentTypeTranscript,
				PublishedDate: "20240215",
				Path:          "docs/Acme-Q3-earnings-call_20240215.pdf",
			},
		},
		{
			name: "investor presentation",
			path: "docs/Globex-investor-presentation.PDF",
			want: types.DocumentMeta{
				Title:   "Globex-investor-presentation",
				Source:  "Globex-investor-presentation.PDF",
				Company: "Globex",
				DocType: types.DocumentTypePresentation,
				Path:    "docs/Globex-investor-presentation.PDF",
			},
		},
		{
			name: "no dash means whole title is the company",
			path: "report.pdf",
			want: types.DocumentMeta{
				Title:   "report",
				Source:  "report.pdf",
				Company: "report",
				Path:    "report.pdf",
			},
		},
		{
			name: "analyst keyword marks a transcript",
			path: "Initech-analyst-meet-notes.pdf",
			want: types.DocumentMeta{
				Title:   "Initech-analyst-meet-notes",
				Source:  "Initech-analyst-meet-notes.pdf",
				Company: "Initech",
				DocType: types.DocumentTypeTranscript,
				Path:    "Initech-analyst-meet-notes.pdf",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileMetaFromName(tt.path))
		})
	}
}
