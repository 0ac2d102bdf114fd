package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Policy is the treatment applied to one category of resources.
type Policy string

const (
	PolicyLink    Policy = "link"
	PolicyBlank   Policy = "blank"
	PolicyComment Policy = "comment"
	PolicyRemove  Policy = "remove"
	PolicySave    Policy = "save"
)

// Category groups the resources a policy applies to.
type Category string

const (
	CategoryScript     Category = "script"
	CategoryNoscript   Category = "noscript"
	CategoryImage      Category = "image"
	CategoryFrame      Category = "frame"
	CategoryAudio      Category = "audio"
	CategoryVideo      Category = "video"
	CategoryEmbed      Category = "embed"
	CategoryObject     Category = "object"
	CategoryApplet     Category = "applet"
	CategoryCanvas     Category = "canvas"
	CategoryBackground Category = "background"
)

// Categories lists every category in dispatch order.
var Categories = []Category{
	CategoryScript, CategoryNoscript, CategoryFrame, CategoryImage, CategoryAudio,
	CategoryVideo, CategoryEmbed, CategoryObject, CategoryApplet, CategoryCanvas,
	CategoryBackground,
}

var policies = map[Policy]struct{}{
	PolicyLink: {}, PolicyBlank: {}, PolicyComment: {}, PolicyRemove: {}, PolicySave: {},
}

// BaseHrefMode controls what happens to base[href] in the artifact.
type BaseHrefMode string

const (
	BaseHrefKeep  BaseHrefMode = "keep"
	BaseHrefStrip BaseHrefMode = "strip"
)

var (
	ErrInvalidPolicy       = errors.New("invalid capture policy")
	ErrInvalidCategory     = errors.New("invalid resource category")
	ErrInvalidBaseHrefMode = errors.New("invalid base href mode")
)

// CaptureOptions is the user configuration of one capture. It is treated as
// immutable once a capture starts: use WithPolicy to derive variants.
type CaptureOptions struct {
	Policies             map[Category]Policy `json:"policies,omitempty"`
	SelectionOnly        bool                `json:"selection_only"`
	ScriptAttributeStrip bool                `json:"script_attribute_strip"`
	ScriptAnchorStrip    bool                `json:"script_anchor_strip"`
	BaseHrefMode         BaseHrefMode        `json:"base_href_mode,omitempty"`
	SaveInlineAsHTML     bool                `json:"save_inline_as_html"`
}

// DefaultOptions saves every resource and strips inline script handlers.
func DefaultOptions() CaptureOptions {
	return CaptureOptions{
		ScriptAttributeStrip: true,
		ScriptAnchorStrip:    true,
		BaseHrefMode:         BaseHrefKeep,
	}
}

// PolicyFor returns the policy of c. Unset categories are saved.
func (o CaptureOptions) PolicyFor(c Category) Policy {
	if p, ok := o.Policies[c]; ok && p != "" {
		return p
	}
	return PolicySave
}

// WithPolicy returns a copy of o with c set to p.
func (o CaptureOptions) WithPolicy(c Category, p Policy) CaptureOptions {
	m := make(map[Category]Policy, len(o.Policies)+1)
	for k, v := range o.Policies {
		m[k] = v
	}
	m[c] = p
	o.Policies = m
	return o
}

// Validate checks every policy, category and mode against the closed sets.
func (o CaptureOptions) Validate() error {
	for c, p := range o.Policies {
		if _, err := ParseCategory(string(c)); err != nil {
			return err
		}
		if _, err := ParsePolicy(string(p)); err != nil {
			return err
		}
	}
	switch o.BaseHrefMode {
	case "", BaseHrefKeep, BaseHrefStrip:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBaseHrefMode, o.BaseHrefMode)
	}
	return nil
}

// ParsePolicy validates a policy token.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := policies[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
	return p, nil
}

// ParseCategory validates a category token.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// ParsePolicies reads the "script=remove,image=save" form.
func ParsePolicies(s string) (map[Category]Policy, error) {
	out := make(map[Category]Policy)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not category=policy", ErrInvalidPolicy, pair)
		}
		c, err := ParseCategory(k)
		if err != nil {
			return nil, err
		}
		p, err := ParsePolicy(v)
		if err != nil {
			return nil, err
		}
		out[c] = p
	}
	return out, nil
}

// FormatPolicies is the inverse of ParsePolicies, sorted by category.
func FormatPolicies(m map[Category]Policy) string {
	pairs := make([]string, 0, len(m))
	for c, p := range m {
		pairs = append(pairs, string(c)+"="+string(p))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
