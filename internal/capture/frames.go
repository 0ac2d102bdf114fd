package capture

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/pkg/utils"
)

// ErrNoFrameDelegate is the frame failure when a frame cannot be inspected
// and nothing can capture it on our behalf.
var ErrNoFrameDelegate = errors.New("no frame delegate configured")

// frameSavePolicy captures the frame document, in process when the loader
// could inspect it and through the frame delegate otherwise, and points the
// frame at the result.
func frameSavePolicy(ctx context.Context, inv *invocation, _ *rule, frame *html.Node) {
	src, _ := dom.Attr(frame, "src")
	if src == "" {
		return
	}
	child := inv.settings.ForFrame(inv.doc.URL)
	if child.FrameDepth > inv.engine.cfg.MaxFrameDepth {
		inv.engine.metrics.IncSubOperations(entity.FailureKindFrame, "skipped")
		inv.logger.Info("Frame nesting too deep, keeping link", zap.String("frame", src))
		return
	}

	if live, ok := inv.refs.Resolve(frame); ok {
		if doc, ok := inv.doc.FrameDocument(live); ok {
			if inv.isAncestor(doc) || inChain(child, doc.URL) {
				inv.engine.metrics.IncSubOperations(entity.FailureKindFrame, "skipped")
				inv.logger.Info("Frame recursion detected, keeping link", zap.String("frame", src))
				return
			}
			ancestors := make([]*dom.LiveDocument, len(inv.ancestors), len(inv.ancestors)+1)
			copy(ancestors, inv.ancestors)
			ancestors = append(ancestors, inv.doc)
			inv.schedule(func() func() {
				res, err := inv.engine.capture(ctx, doc, child, inv.options, ancestors)
				return inv.frameDone(ctx, frame, src, res, err)
			}, func(err error) func() {
				return inv.frameDone(ctx, frame, src, nil, err)
			})
			return
		}
	}

	if child.InChain(src) {
		inv.engine.metrics.IncSubOperations(entity.FailureKindFrame, "skipped")
		inv.logger.Info("Frame recursion detected, keeping link", zap.String("frame", src))
		return
	}
	inv.schedule(func() func() {
		if inv.engine.frames == nil {
			return inv.frameDone(ctx, frame, src, nil, ErrNoFrameDelegate)
		}
		res, err := inv.engine.frames.GetFrameContent(ctx, src, child, inv.options)
		return inv.frameDone(ctx, frame, src, res, err)
	}, func(err error) func() {
		return inv.frameDone(ctx, frame, src, nil, err)
	})
}

// inChain reports whether a frame document at url repeats one of its
// ancestors. Loaders may build a new document per frame, so identity alone
// misses self-framing pages. about:, data: and blob: documents are told apart
// by identity only.
func inChain(child entity.CaptureSettings, url string) bool {
	return url != "" && !utils.IsInlineScheme(url) && child.InChain(url)
}

func (inv *invocation) isAncestor(doc *dom.LiveDocument) bool {
	if doc == inv.doc {
		return true
	}
	for _, a := range inv.ancestors {
		if a == doc {
			return true
		}
	}
	return false
}

// frameDone runs off the owning goroutine and returns the rewrite of the
// frame element.
func (inv *invocation) frameDone(ctx context.Context, frame *html.Node, src string, res *entity.CaptureResult, err error) func() {
	if err == nil && res == nil {
		err = errors.New("empty frame result")
	}
	if err == nil && res.Error != "" {
		err = errors.New(res.Error)
	}
	if err != nil {
		inv.engine.recordFailure(ctx, inv.settings, entity.FailureKindFrame, src, src, err)
		return func() { dom.SetAttr(frame, "src", src) }
	}
	inv.engine.metrics.IncSubOperations(entity.FailureKindFrame, "saved")
	ref := res.Reference
	return func() {
		if ref == "" {
			dom.RemoveAttr(frame, "src")
			return
		}
		dom.SetAttr(frame, "src", ref)
	}
}
