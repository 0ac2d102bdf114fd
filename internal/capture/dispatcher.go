package capture

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/entity"
)

// urlAttribute names attributes holding URLs that are made absolute before
// any policy runs.
type urlAttribute struct {
	selector string
	attr     string
	srcset   bool
}

var urlAttributes = []urlAttribute{
	{selector: `meta[property^="og:"][content]`, attr: "content"},
	{selector: "link[href], a[href], area[href]", attr: "href"},
	{selector: "script[src]", attr: "src"},
	{selector: "frame[src], iframe[src]", attr: "src"},
	{selector: "img[src]", attr: "src"},
	{selector: "img[srcset]", attr: "srcset", srcset: true},
	{selector: `input[type="image"][src]`, attr: "src"},
	{selector: "source[src], track[src]", attr: "src"},
	{selector: "source[srcset]", attr: "srcset", srcset: true},
	{selector: "embed[src]", attr: "src"},
	{selector: "object[data]", attr: "data"},
	{selector: "applet[archive]", attr: "archive"},
	{selector: "body[background], table[background], tr[background], th[background], td[background]", attr: "background"},
}

// ruleTable maps each category to its rules.
type ruleTable map[entity.Category][]*rule

func defaultRules() ruleTable {
	return ruleTable{
		entity.CategoryScript: {{
			category:  entity.CategoryScript,
			selector:  "script",
			refs:      attrRef("src"),
			overrides: map[entity.Policy]policyFunc{entity.PolicyBlank: scriptBlankPolicy},
		}},
		entity.CategoryNoscript: {{
			category: entity.CategoryNoscript,
			selector: "noscript",
			overrides: map[entity.Policy]policyFunc{
				entity.PolicyLink:  noopPolicy,
				entity.PolicySave:  noopPolicy,
				entity.PolicyBlank: noscriptBlankPolicy,
			},
		}},
		entity.CategoryFrame: {{
			category:  entity.CategoryFrame,
			selector:  "frame[src], iframe[src]",
			prepare:   func(el *html.Node) { dom.RemoveAttr(el, "srcdoc") },
			refs:      attrRef("src"),
			overrides: map[entity.Policy]policyFunc{entity.PolicySave: frameSavePolicy},
		}},
		entity.CategoryImage: {
			{category: entity.CategoryImage, selector: "picture", refs: descendantRefs("source[srcset]", "srcset", true)},
			{category: entity.CategoryImage, selector: "img[src], img[srcset]", refs: imgRefs},
			{category: entity.CategoryImage, selector: `input[type="image"]`, refs: attrRef("src")},
		},
		entity.CategoryAudio:  {{category: entity.CategoryAudio, selector: "audio", refs: descendantRefs("source[src]", "src", false)}},
		entity.CategoryVideo:  {{category: entity.CategoryVideo, selector: "video", refs: descendantRefs("source[src]", "src", false)}},
		entity.CategoryEmbed:  {{category: entity.CategoryEmbed, selector: "embed", refs: attrRef("src")}},
		entity.CategoryObject: {{category: entity.CategoryObject, selector: "object", refs: attrRef("data")}},
		entity.CategoryApplet: {{category: entity.CategoryApplet, selector: "applet", refs: attrRef("archive")}},
		entity.CategoryCanvas: {{
			category: entity.CategoryCanvas,
			selector: "canvas",
			overrides: map[entity.Policy]policyFunc{
				entity.PolicyLink:  noopPolicy,
				entity.PolicyBlank: noopPolicy,
				entity.PolicySave:  canvasSavePolicy,
			},
		}},
		entity.CategoryBackground: {{
			category: entity.CategoryBackground,
			selector: "body[background], table[background], tr[background], th[background], td[background]",
			refs:     attrRef("background"),
			overrides: map[entity.Policy]policyFunc{
				entity.PolicyComment: backgroundCommentPolicy,
				entity.PolicyRemove:  backgroundRemovePolicy,
			},
		}},
	}
}

// afterCategory runs once the rules of a category are done.
var afterCategory = map[entity.Category]func(inv *invocation){
	entity.CategoryNoscript: func(inv *invocation) {
		inv.stripScriptAttributes()
		inv.stripScriptAnchors()
	},
	entity.CategoryFrame:  func(inv *invocation) { inv.refs.Release("frame", "iframe") },
	entity.CategoryCanvas: func(inv *invocation) { inv.refs.Release("canvas") },
}

var charsetPattern = regexp.MustCompile(`(?i)(charset\s*=\s*)["']?[^"';\s]*["']?`)

// dispatch rewrites the snapshot tree in the fixed category order. Element
// rewrites happen here; fetches are scheduled on the tracker.
func (inv *invocation) dispatch(ctx context.Context) {
	inv.normalizeURLs()
	inv.rewriteBase()
	inv.forceUTF8()
	for _, cat := range entity.Categories {
		for _, r := range inv.engine.rules[cat] {
			inv.applyRule(ctx, r)
		}
		if hook := afterCategory[cat]; hook != nil {
			hook(inv)
		}
	}
}

func (inv *invocation) applyRule(ctx context.Context, r *rule) {
	fn := r.policy(inv.options.PolicyFor(r.category))
	for _, el := range inv.query(r.selector) {
		if r.prepare != nil {
			r.prepare(el)
		}
		fn(ctx, inv, r, el)
	}
}

// query returns the snapshot elements matched by selector, in document order.
func (inv *invocation) query(selector string) []*html.Node {
	return goquery.NewDocumentFromNode(inv.root).Find(selector).Nodes
}

func (inv *invocation) normalizeURLs() {
	for _, base := range inv.query("base[href]") {
		href, _ := dom.Attr(base, "href")
		docURL, err := url.Parse(inv.doc.URL)
		if err != nil {
			continue
		}
		dom.SetAttr(base, "href", dom.ResolveAgainst(docURL, href))
	}

	baseURL := inv.doc.BaseURL()
	for _, ua := range urlAttributes {
		for _, el := range inv.query(ua.selector) {
			val, _ := dom.Attr(el, ua.attr)
			if ua.srcset {
				dom.SetAttr(el, ua.attr, dom.RewriteSrcset(val, func(u string) string {
					return dom.ResolveAgainst(baseURL, u)
				}))
				continue
			}
			dom.SetAttr(el, ua.attr, dom.ResolveAgainst(baseURL, val))
		}
	}
}

func (inv *invocation) rewriteBase() {
	if inv.options.BaseHrefMode != entity.BaseHrefStrip {
		return
	}
	for _, base := range inv.query("base[href]") {
		dom.RemoveAttr(base, "href")
	}
}

// forceUTF8 declares the artifact as UTF-8, which is how it is serialized.
func (inv *invocation) forceUTF8() {
	found := false
	for _, meta := range inv.query("meta") {
		if equiv, ok := dom.Attr(meta, "http-equiv"); ok && strings.EqualFold(strings.TrimSpace(equiv), "content-type") {
			content, _ := dom.Attr(meta, "content")
			if charsetPattern.MatchString(content) {
				dom.SetAttr(meta, "content", charsetPattern.ReplaceAllString(content, "${1}UTF-8"))
				found = true
			}
			continue
		}
		if _, ok := dom.Attr(meta, "charset"); ok {
			dom.SetAttr(meta, "charset", "UTF-8")
			found = true
		}
	}
	if found {
		return
	}
	head := dom.FirstChildElement(inv.root, "head")
	if head == nil {
		return
	}
	meta := dom.NewElement("meta", html.Attribute{Key: "charset", Val: "UTF-8"})
	head.InsertBefore(meta, head.FirstChild)
	head.InsertBefore(dom.NewText("\n"), meta)
}

func (inv *invocation) stripScriptAttributes() {
	if !inv.options.ScriptAttributeStrip {
		return
	}
	for _, el := range inv.query("body, body *") {
		dom.RemoveAttrFunc(el, func(a html.Attribute) bool {
			key := strings.ToLower(a.Key)
			return strings.HasPrefix(key, "on") || key == "contextmenu"
		})
	}
}

func (inv *invocation) stripScriptAnchors() {
	if !inv.options.ScriptAnchorStrip {
		return
	}
	for _, el := range inv.query("a[href], area[href]") {
		href, _ := dom.Attr(el, "href")
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "javascript:") {
			dom.RemoveAttr(el, "href")
		}
	}
}
