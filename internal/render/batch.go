package render

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/documents"
)

// BatchItem is one document of a multi-document order.
type BatchItem struct {
	DocumentType string             `json:"documentType"`
	TemplateID   string             `json:"templateId,omitempty"`
	FormData     documents.FormData `json:"formData"`
	FileName     string             `json:"fileName,omitempty"`
}

// RenderBatch renders every item to PDF with at most concurrency renders in
// flight and packs them into a ZIP in input order. The first failure cancels
// the rest.
func (r *Renderer) RenderBatch(ctx context.Context, items []BatchItem, concurrency int) ([]byte, error) {
	if len(items) == 0 {
		return nil, errors.NewFormValidationFailedError("batch has no documents")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	pdfs := make([][]byte, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := r.RenderPDF(item.DocumentType, item.TemplateID, item.FormData, Options{})
			if err != nil {
				return err
			}
			pdfs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := make(map[string]bool, len(items))
	for i, item := range items {
		w, err := zw.Create(entryName(i, item, used))
		if err != nil {
			return nil, errors.NewArchiveCreationFailedError(err)
		}
		if _, err := w.Write(pdfs[i]); err != nil {
			return nil, errors.NewArchiveCreationFailedError(err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.NewArchiveCreationFailedError(err)
	}
	metrics.DocumentsRendered.WithLabelValues("batch", "zip").Inc()
	return buf.Bytes(), nil
}

// entryName keeps only the base name of the caller's file name and numbers
// repeats as stub-2.pdf, stub-3.pdf until the name is unused.
func entryName(i int, item BatchItem, used map[string]bool) string {
	name := path.Base(strings.ReplaceAll(item.FileName, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		name = fmt.Sprintf("%02d-%s.pdf", i+1, item.DocumentType)
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
	used[candidate] = true
	return candidate
}
