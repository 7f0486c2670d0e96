package extract

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dslipak/pdf"
)

var errNoPages = errors.New("pdf has no pages")

// pdfPages returns the text of every readable page, in page order.
func (e *Extractor) pdfPages(data []byte) (pages []string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := r.NumPage()
	e.logger.Debug("extractPDF", "number of pages", numPages)
	if numPages == 0 {
		return nil, errNoPages
	}

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			e.logger.Debug("extractPDF", "page value is null", i)
			continue
		}

		content, err := e.protectExtract(page)
		if err != nil {
			// a broken page does not sink the document
			e.logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		pages = append(pages, content)
	}
	return pages, nil
}

func (e *Extractor) protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("page parser panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(e.pageTimeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errors.New("page extraction timeout")
	}
}
