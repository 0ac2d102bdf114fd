package capture

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/entity"
)

// InertURL replaces references under the blank policy.
const InertURL = "about:blank"

// reference is one URL-bearing attribute a policy acts on.
type reference struct {
	node   *html.Node
	attr   string
	srcset bool
}

type policyFunc func(ctx context.Context, inv *invocation, r *rule, el *html.Node)

// rule binds the elements of one category, found by selector, to the
// strategy table.
type rule struct {
	category entity.Category
	selector string
	// prepare runs on every matched element before the policy.
	prepare func(el *html.Node)
	// refs lists the references of a matched element.
	refs      func(el *html.Node) []reference
	overrides map[entity.Policy]policyFunc
}

var defaultPolicies = map[entity.Policy]policyFunc{
	entity.PolicyLink:    linkPolicy,
	entity.PolicyBlank:   blankPolicy,
	entity.PolicyComment: commentPolicy,
	entity.PolicyRemove:  removePolicy,
	entity.PolicySave:    savePolicy,
}

func (r *rule) policy(p entity.Policy) policyFunc {
	if f, ok := r.overrides[p]; ok {
		return f
	}
	if f, ok := defaultPolicies[p]; ok {
		return f
	}
	return savePolicy
}

func (r *rule) references(el *html.Node) []reference {
	if r.refs == nil {
		return nil
	}
	return r.refs(el)
}

func attrRef(attr string) func(el *html.Node) []reference {
	return func(el *html.Node) []reference {
		if _, ok := dom.Attr(el, attr); !ok {
			return nil
		}
		return []reference{{node: el, attr: attr}}
	}
}

func srcsetRef(el *html.Node) []reference {
	if _, ok := dom.Attr(el, "srcset"); !ok {
		return nil
	}
	return []reference{{node: el, attr: "srcset", srcset: true}}
}

func imgRefs(el *html.Node) []reference {
	return append(attrRef("src")(el), srcsetRef(el)...)
}

// descendantRefs collects the attr references of the descendants of el
// matched by selector.
func descendantRefs(selector, attr string, srcset bool) func(el *html.Node) []reference {
	return func(el *html.Node) []reference {
		var out []reference
		for _, n := range goquery.NewDocumentFromNode(el).Find(selector).Nodes {
			out = append(out, reference{node: n, attr: attr, srcset: srcset})
		}
		return out
	}
}

// link: references are already absolute.
func linkPolicy(context.Context, *invocation, *rule, *html.Node) {}

func noopPolicy(context.Context, *invocation, *rule, *html.Node) {}

func blankPolicy(_ context.Context, _ *invocation, r *rule, el *html.Node) {
	for _, ref := range r.references(el) {
		dom.SetAttr(ref.node, ref.attr, InertURL)
	}
}

func commentPolicy(_ context.Context, _ *invocation, _ *rule, el *html.Node) {
	dom.Replace(el, dom.NewComment(dom.EscapeComment(dom.OuterHTML(el))))
}

func removePolicy(_ context.Context, _ *invocation, _ *rule, el *html.Node) {
	dom.Detach(el)
}

func savePolicy(ctx context.Context, inv *invocation, r *rule, el *html.Node) {
	for _, ref := range r.references(el) {
		if ref.srcset {
			inv.saveSrcset(ctx, ref)
		} else {
			inv.saveAttr(ctx, ref)
		}
	}
}

// script

func scriptBlankPolicy(ctx context.Context, inv *invocation, r *rule, el *html.Node) {
	if _, ok := dom.Attr(el, "src"); ok {
		blankPolicy(ctx, inv, r, el)
		return
	}
	dom.RemoveChildren(el)
}

// noscript

func noscriptBlankPolicy(_ context.Context, _ *invocation, _ *rule, el *html.Node) {
	dom.RemoveChildren(el)
}

// background

func backgroundCommentPolicy(_ context.Context, _ *invocation, _ *rule, el *html.Node) {
	val, ok := dom.Attr(el, "background")
	if !ok {
		return
	}
	markup := `background="` + html.EscapeString(val) + `"`
	el.InsertBefore(dom.NewComment(dom.EscapeComment(markup)), el.FirstChild)
	dom.RemoveAttr(el, "background")
}

func backgroundRemovePolicy(_ context.Context, _ *invocation, _ *rule, el *html.Node) {
	dom.RemoveAttr(el, "background")
}

// canvas

const canvasRestoreScript = `(function(s){var c=s.previousSibling,i=new Image();` +
	`i.onload=function(){c.getContext("2d").drawImage(i,0,0);};i.src=%s;` +
	`s.parentNode.removeChild(s);})(document.currentScript)`

func canvasSavePolicy(_ context.Context, inv *invocation, _ *rule, el *html.Node) {
	live, ok := inv.refs.Resolve(el)
	if !ok {
		return
	}
	data, ok := inv.doc.CanvasData(live)
	if !ok {
		return
	}
	script := dom.NewElement("script")
	script.AppendChild(dom.NewText(canvasScript(data)))
	dom.InsertAfter(el, script)
}

// canvasScript returns the one-shot script drawing data into the canvas
// right before it.
func canvasScript(data string) string {
	quoted, err := json.Marshal(data)
	if err != nil {
		quoted = []byte(`""`)
	}
	return fmt.Sprintf(canvasRestoreScript, quoted)
}
