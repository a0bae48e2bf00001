// Package browser drives the EuroBonus profile page in Chrome through the
// DevTools protocol. A Page serves as the mount.Document the trigger lives
// on and as the export.Provider, export.Downloader and export.Alerter of the
// exports it runs.
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/yurifrl/ebcrawler/pkg/csv"
	"github.com/yurifrl/ebcrawler/pkg/export"
	"github.com/yurifrl/ebcrawler/pkg/models"
	"github.com/yurifrl/ebcrawler/pkg/mount"
)

var ErrMarkerGone = errors.New("profile marker disappeared before mount")

type Options struct {
	Headless    bool
	UserDataDir string
}

// NewContext starts a Chrome instance and returns a tab context for it.
func NewContext(parent context.Context, opts Options) (context.Context, context.CancelFunc) {
	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)
	return ctx, func() {
		cancelCtx()
		cancelAlloc()
	}
}

// Page is a profile page tab. ctx passed to its methods must descend from the
// tab context it was created with.
type Page struct {
	logger *log.Logger
	clicks chan struct{}
}

var (
	_ mount.Document    = (*Page)(nil)
	_ mount.Trigger     = (*Page)(nil)
	_ export.Provider   = (*Page)(nil)
	_ export.Downloader = (*Page)(nil)
	_ export.Alerter    = (*Page)(nil)
)

// New attaches to the tab in ctx and starts listening for trigger clicks.
func New(ctx context.Context, logger *log.Logger) *Page {
	p := &Page{
		logger: logger,
		clicks: make(chan struct{}, 1),
	}
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		called, ok := ev.(*runtime.EventBindingCalled)
		if !ok || called.Name != bindingName {
			return
		}
		select {
		case p.clicks <- struct{}{}:
		default:
		}
	})
	return p
}

// Open navigates the tab to url.
func (p *Page) Open(ctx context.Context, url string) error {
	p.logger.Info("opening profile page", "url", url)
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

func (p *Page) Ready(ctx context.Context) (bool, error) {
	var ready bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(readyScript(), &ready)); err != nil {
		return false, err
	}
	return ready, nil
}

func (p *Page) Mount(ctx context.Context, label string) (mount.Trigger, error) {
	var mounted bool
	err := chromedp.Run(ctx,
		runtime.AddBinding(bindingName),
		chromedp.Evaluate(mountScript(label), &mounted),
	)
	if err != nil {
		return nil, err
	}
	if !mounted {
		return nil, ErrMarkerGone
	}
	p.logger.Debug("trigger mounted", "selector", MarkerSelector)
	return p, nil
}

func (p *Page) Clicks() <-chan struct{} {
	return p.clicks
}

func (p *Page) SetLabel(ctx context.Context, label string) error {
	var found bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(labelScript(label), &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("trigger %s not found", triggerID)
	}
	return nil
}

// LoadProfileInfo asks the page's own profile service, which runs in the
// member's authenticated session.
func (p *Page) LoadProfileInfo(ctx context.Context) (*models.Profile, error) {
	var raw string
	err := chromedp.Run(ctx, chromedp.Evaluate(profileScript, &raw, awaitPromise))
	if err != nil {
		return nil, err
	}
	return models.DecodeProfile([]byte(raw))
}

func (p *Page) Download(ctx context.Context, filename, mediaType string, data []byte) error {
	var status string
	script := downloadScript(filename, csv.DataURI(mediaType, data))
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &status)); err != nil {
		return err
	}
	switch status {
	case statusOK:
		return nil
	case statusNoContentRegion:
		return export.ErrNoContentRegion
	default:
		return fmt.Errorf("unexpected download status %q", status)
	}
}

func (p *Page) Alert(ctx context.Context, message string) error {
	var shown bool
	return chromedp.Run(ctx, chromedp.Evaluate(alertScript(message), &shown))
}

func awaitPromise(params *runtime.EvaluateParams) *runtime.EvaluateParams {
	return params.WithAwaitPromise(true)
}
