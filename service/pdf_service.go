package service

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/finsight-ai/finsight-be/types"
)

// PDFService reads PDF files and exposes each page as positioned text
// fragments for the layout segmenter.
type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// PDFDocument is an open PDF handle. Close releases the underlying file.
type PDFDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func (s *PDFService) Open(path string) (*PDFDocument, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	return &PDFDocument{file: f, reader: r}, nil
}

func (d *PDFDocument) Close() error {
	return d.file.Close()
}

func (d *PDFDocument) NumPages() int {
	return d.reader.NumPage()
}

// PageFragments returns the positioned text fragments of one page, in
// content-stream order. The pdf library panics on malformed content, so a
// broken page surfaces as an error and the caller can skip it.
func (d *PDFDocument) PageFragments(pageNum int) (frags []types.Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags = nil
			err = fmt.Errorf("page %d content parse failed: %v", pageNum, r)
		}
	}()

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d is null", pageNum)
	}

	content := page.Content()
	frags = make([]types.Fragment, 0, len(content.Text))
	for _, t := range content.Text {
		frags = append(frags, types.Fragment{Text: t.S, Y: t.Y})
	}
	return frags, nil
}

var (
	pdfExtRe   = regexp.MustCompile(`(?i)\.pdf$`)
	dateSufRe  = regexp.MustCompile(`(?i)[-_](\d{8})\.pdf$`)
	transcrRe  = regexp.MustCompile(`(?i)call|transcript|analyst`)
	presentaRe = regexp.MustCompile(`(?i)presentation|ppt`)
)

// FileMetaFromName infers document metadata from the filename alone: the
// title is the basename without extension, the company is the segment before
// the first dash, an 8-digit suffix is taken as the published date, and the
// document type is guessed from keywords.
func FileMetaFromName(path string) types.DocumentMeta {
	base := filepath.Base(path)
	title := pdfExtRe.ReplaceAllString(base, "")

	meta := types.DocumentMeta{
		Title:   title,
		Source:  base,
		Company: strings.SplitN(title, "-", 2)[0],
		Path:    path,
	}
	if m := dateSufRe.FindStringSubmatch(base); m != nil {
		meta.PublishedDate = m[1]
	}
	switch {
	case transcrRe.MatchString(title):
		meta.DocType = types.DocumentTypeTranscript
	case presentaRe.MatchString(title):
		meta.DocType = types.DocumentTypePresentation
	}
	return meta
}
