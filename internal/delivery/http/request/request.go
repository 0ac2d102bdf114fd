package request

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// SubmitCaptureRequest is the body of both capture endpoints.
type SubmitCaptureRequest struct {
	URL       string         `json:"url"`
	Options   CaptureOptions `json:"options"`
	Selectors []string       `json:"selectors"`
}

// CaptureOptions is the flat options object of a request: category keys
// carry policies ("script": "remove"), the other keys are switches.
type CaptureOptions struct {
	Policies             map[string]string
	SelectionOnly        *bool
	ScriptAttributeStrip *bool
	ScriptAnchorStrip    *bool
	SaveInlineAsHTML     *bool
	BaseHref             string
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *CaptureOptions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Policies = map[string]string{}
	for key, val := range raw {
		var err error
		switch strings.ToLower(key) {
		case "selection_only":
			o.SelectionOnly, err = decodeBool(val)
		case "script_attribute_strip":
			o.ScriptAttributeStrip, err = decodeBool(val)
		case "script_anchor_strip":
			o.ScriptAnchorStrip, err = decodeBool(val)
		case "save_inline_as_html":
			o.SaveInlineAsHTML, err = decodeBool(val)
		case "base_href":
			err = json.Unmarshal(val, &o.BaseHref)
		default:
			var policy string
			err = json.Unmarshal(val, &policy)
			o.Policies[key] = policy
		}
		if err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
	}
	return nil
}

func decodeBool(val json.RawMessage) (*bool, error) {
	var b bool
	if err := json.Unmarshal(val, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ToOptions applies the request on top of defaults.
func (o CaptureOptions) ToOptions(defaults entity.CaptureOptions) (entity.CaptureOptions, error) {
	opts := defaults
	for key, val := range o.Policies {
		c, err := entity.ParseCategory(key)
		if err != nil {
			return entity.CaptureOptions{}, err
		}
		p, err := entity.ParsePolicy(val)
		if err != nil {
			return entity.CaptureOptions{}, err
		}
		opts = opts.WithPolicy(c, p)
	}
	if o.SelectionOnly != nil {
		opts.SelectionOnly = *o.SelectionOnly
	}
	if o.ScriptAttributeStrip != nil {
		opts.ScriptAttributeStrip = *o.ScriptAttributeStrip
	}
	if o.ScriptAnchorStrip != nil {
		opts.ScriptAnchorStrip = *o.ScriptAnchorStrip
	}
	if o.SaveInlineAsHTML != nil {
		opts.SaveInlineAsHTML = *o.SaveInlineAsHTML
	}
	if o.BaseHref != "" {
		opts.BaseHrefMode = entity.BaseHrefMode(o.BaseHref)
	}
	return opts, opts.Validate()
}

// ToEntity converts the request into a capture job.
func (r SubmitCaptureRequest) ToEntity(defaults entity.CaptureOptions) (*entity.CaptureRequest, error) {
	opts, err := r.Options.ToOptions(defaults)
	if err != nil {
		return nil, err
	}
	return &entity.CaptureRequest{URL: r.URL, Options: opts, Selectors: r.Selectors}, nil
}
