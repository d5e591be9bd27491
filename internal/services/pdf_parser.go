package services

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

const DefaultMaxPDFPages = 50

type PDFParserService interface {
	ExtractText(data []byte) (string, error)
	ExtractTextWithMetaData(data []byte) (*PDFContent, error)
}

type PDFContent struct {
	Text           string
	PageCount      int
	PagesProcessed int
}

type pdfParserService struct {
	maxPages int
}

func NewPDFParserService(maxPages int) PDFParserService {
	if maxPages <= 0 {
		maxPages = DefaultMaxPDFPages
	}
	return &pdfParserService{maxPages: maxPages}
}

func (p *pdfParserService) ExtractText(data []byte) (string, error) {
	content, err := p.ExtractTextWithMetaData(data)
	if err != nil {
		return "", err
	}
	return content.Text, nil
}

func (p *pdfParserService) ExtractTextWithMetaData(data []byte) (*PDFContent, error) {
	if len(data) == 0 {
		return nil, NewExtractionError(ReasonEmptyDocument, errors.New("pdf file is empty"))
	}

	content, err := p.readPages(data)
	if err != nil {
		log.Printf("❌ Error extracting text from PDF: %v\n", err)
		return nil, NewExtractionError(ReasonUnreadableDocument, err)
	}

	content.Text = strings.TrimSpace(content.Text)
	if content.Text == "" {
		return nil, NewExtractionError(ReasonNoText, errors.New("no text content found in PDF"))
	}

	return content, nil
}

// readPages parses at most maxPages pages. The reader is dropped and library
// panics are converted to errors on every return path.
func (p *pdfParserService) readPages(data []byte) (content *PDFContent, err error) {
	src := bytes.NewReader(data)
	defer func() {
		if r := recover(); r != nil {
			content = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
		src.Reset(nil)
	}()

	r, err := pdf.NewReader(src, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPage := r.NumPage()
	pages := totalPage
	if pages > p.maxPages {
		pages = p.maxPages
	}

	var textBuilder strings.Builder
	var pageErr error
	processed := 0
	for pageIndex := 1; pageIndex <= pages; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Log error but continue with other pages
			log.Printf("⚠️  Failed to read PDF page %d: %v\n", pageIndex, err)
			if pageErr == nil {
				pageErr = fmt.Errorf("failed to read page %d: %w", pageIndex, err)
			}
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
		processed++
	}

	if processed == 0 && pageErr != nil {
		return nil, pageErr
	}

	return &PDFContent{
		Text:           textBuilder.String(),
		PageCount:      totalPage,
		PagesProcessed: processed,
	}, nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
