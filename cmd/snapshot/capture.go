package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jack23912/webscrapbook/internal/adapter/chromedp_loader"
	"github.com/jack23912/webscrapbook/internal/adapter/filestore"
	"github.com/jack23912/webscrapbook/internal/adapter/httpfetch"
	"github.com/jack23912/webscrapbook/internal/adapter/memory"
	"github.com/jack23912/webscrapbook/internal/capture"
	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
	"github.com/jack23912/webscrapbook/internal/usecase"
	"github.com/jack23912/webscrapbook/pkg/config"
	"github.com/jack23912/webscrapbook/pkg/logger"
)

type captureFlags struct {
	out           string
	session       string
	loader        string
	policies      []string
	selectors     []string
	selectionOnly bool
	keepScripts   bool
	stripBase     bool
	inlineAsHTML  bool
	maxFrameDepth int
	timeout       time.Duration
}

var captureOpts captureFlags

var captureCmd = &cobra.Command{
	Use:   "capture URL",
	Short: "Capture a page into a folder",
	Long: `Loads URL, saves the page with its frames and resources under OUT/SESSION
and prints the path of the main document.

Policies are given per category, e.g. --policy script=remove --policy image=link.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		log := logger.NewDevelopment(verbose)
		defer func() { _ = log.Sync() }()

		path, err := runCapture(cmd.Context(), args[0], captureOpts, log, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	f := captureCmd.Flags()
	f.StringVarP(&captureOpts.out, "out", "o", "./captures", "Directory the capture is written to")
	f.StringVar(&captureOpts.session, "session", "", "Session directory name (default: a new id)")
	f.StringVar(&captureOpts.loader, "loader", config.LoaderChromedp, "Document loader: chromedp or http")
	f.StringArrayVarP(&captureOpts.policies, "policy", "p", nil, "Category policy as category=policy")
	f.StringArrayVarP(&captureOpts.selectors, "selector", "s", nil, "CSS selector of content to keep (with --selection-only)")
	f.BoolVar(&captureOpts.selectionOnly, "selection-only", false, "Capture only the selected content")
	f.BoolVar(&captureOpts.keepScripts, "keep-script-attributes", false, "Keep inline event handlers and javascript: links")
	f.BoolVar(&captureOpts.stripBase, "strip-base", false, "Remove base href from captured documents")
	f.BoolVar(&captureOpts.inlineAsHTML, "inline-as-html", false, "Wrap non-HTML documents in an HTML page")
	f.IntVar(&captureOpts.maxFrameDepth, "max-frame-depth", capture.DefaultConfig().MaxFrameDepth, "Deepest frame nesting captured")
	f.DurationVar(&captureOpts.timeout, "timeout", time.Minute, "Page load timeout")
	rootCmd.AddCommand(captureCmd)
}

// options turns the flags into capture options.
func (f captureFlags) options() (entity.CaptureOptions, error) {
	opts := entity.DefaultOptions()
	policies, err := entity.ParsePolicies(strings.Join(f.policies, ","))
	if err != nil {
		return opts, err
	}
	for c, p := range policies {
		opts = opts.WithPolicy(c, p)
	}
	opts.SelectionOnly = f.selectionOnly
	opts.ScriptAttributeStrip = !f.keepScripts
	opts.ScriptAnchorStrip = !f.keepScripts
	opts.SaveInlineAsHTML = f.inlineAsHTML
	if f.stripBase {
		opts.BaseHrefMode = entity.BaseHrefStrip
	}
	return opts, opts.Validate()
}

func runCapture(ctx context.Context, rawURL string, f captureFlags, log *zap.Logger, stderr io.Writer) (string, error) {
	opts, err := f.options()
	if err != nil {
		return "", err
	}
	req := &entity.CaptureRequest{SessionID: f.session, URL: rawURL, Options: opts, Selectors: f.selectors}
	if err := usecase.ValidateRequest(req); err != nil {
		return "", err
	}

	registry := memory.NewRegistry()
	records := memory.NewRecordStore()
	store := filestore.NewOS(f.out)
	agents := httpfetch.NewAgents(nil, nil)
	client := agents.NewClient(f.timeout)
	fetcher := httpfetch.NewFetcher(registry, store, log,
		httpfetch.WithClient(client),
		httpfetch.WithCache(memory.NewCache()),
		httpfetch.WithAgents(agents),
	)

	var loader repository.DocumentLoader
	switch strings.ToLower(f.loader) {
	case config.LoaderHTTP:
		loader = httpfetch.NewLoader(client, agents, log)
	case config.LoaderChromedp:
		browser := chromedp_loader.NewChromedpLoader(1, f.timeout, f.maxFrameDepth, log,
			chromedp_loader.WithUserAgents(agents.UserAgent))
		defer browser.Close()
		loader = browser
	default:
		return "", fmt.Errorf("unknown loader %q", f.loader)
	}

	svc := usecase.NewCaptureService(usecase.Dependencies{
		Loader:   loader,
		Registry: registry,
		Fetcher:  fetcher,
		Sink:     store,
		Records:  records,
		Failures: records,
	}, capture.Config{MaxFrameDepth: f.maxFrameDepth}, nil, log)

	res, err := svc.Capture(ctx, req)
	if err != nil {
		return "", err
	}

	failures, err := records.ListBySession(ctx, req.SessionID)
	if err == nil {
		for _, fr := range failures {
			fmt.Fprintf(stderr, "warning: %s %s kept as %s: %s\n", fr.Kind, fr.URL, fr.Fallback, fr.FailureReason)
		}
	}
	return store.Path(req.SessionID, res.Reference)
}
