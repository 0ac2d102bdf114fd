package capture

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/entity"
)

const redirectTemplate = `<html><head><meta charset="UTF-8"><meta http-equiv="refresh" content="0;URL=%s"></head><body></body></html>`

// assemble serializes the snapshot tree and hands it to the sink.
func (inv *invocation) assemble(ctx context.Context) (*entity.CaptureResult, error) {
	mime := inv.doc.MediaType()
	if !inv.doc.IsMarkup() {
		mime = dom.ContentTypeHTML
	}
	artifact := entity.Artifact{
		DocumentName: inv.name,
		Mime:         mime,
		Content:      dom.DoctypeString(inv.doc.Doctype()) + dom.OuterHTML(inv.root),
	}
	ref, err := inv.engine.save(ctx, inv.settings, artifact)
	if err != nil {
		return nil, err
	}
	return &entity.CaptureResult{
		URL:          inv.doc.URL,
		DocumentName: artifact.DocumentName,
		Mime:         artifact.Mime,
		Content:      artifact.Content,
		Reference:    ref,
	}, nil
}

// captureFile stores non-markup content as a plain resource. The main frame
// additionally gets a document redirecting to it.
func (e *Engine) captureFile(ctx context.Context, doc *dom.LiveDocument, settings entity.CaptureSettings, options entity.CaptureOptions) (*entity.CaptureResult, error) {
	ref, err := e.download(ctx, doc.URL, settings, options)
	if err != nil || ref == "" {
		e.recordFailure(ctx, settings, entity.FailureKindDownload, doc.URL, doc.URL, err)
		ref = doc.URL
	} else {
		e.metrics.IncSubOperations(entity.FailureKindDownload, "saved")
	}

	if !settings.IsMainFrame {
		return &entity.CaptureResult{URL: doc.URL, Mime: doc.MediaType(), Reference: ref}, nil
	}

	artifact := entity.Artifact{
		DocumentName: settings.DocumentName,
		Mime:         dom.ContentTypeHTML,
		Content:      fmt.Sprintf(redirectTemplate, html.EscapeString(ref)),
	}
	saved, err := e.save(ctx, settings, artifact)
	if err != nil {
		return nil, err
	}
	return &entity.CaptureResult{
		URL:          doc.URL,
		DocumentName: artifact.DocumentName,
		Mime:         artifact.Mime,
		Content:      artifact.Content,
		Reference:    saved,
	}, nil
}

func (e *Engine) save(ctx context.Context, settings entity.CaptureSettings, artifact entity.Artifact) (string, error) {
	if e.sink == nil {
		return "", fmt.Errorf("save document %q: no document sink configured", artifact.DocumentName)
	}
	ref, err := e.sink.SaveDocument(ctx, settings, artifact)
	if err != nil {
		return "", fmt.Errorf("save document %q: %w", artifact.DocumentName, err)
	}
	return ref, nil
}
