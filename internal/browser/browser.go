// Package browser drives the live document over the Chrome DevTools
// Protocol (chromedp).
//
// Two ways in: Attach hooks onto a browser the operator already signed in
// with (the login command starts one with a devtools port open), Launch
// starts a managed browser on the persistent profile. Connect tries them
// in that order. Everything above this package talks through the narrow
// ports in resolver and editor; nothing else imports chromedp.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Options configure the session.
type Options struct {
	// DebugPort is the devtools port probed by Attach and opened by
	// Launch.
	DebugPort int
	// ProfileDir is the persistent user-data directory for Launch.
	ProfileDir string
	// ChromePath overrides browser binary discovery.
	ChromePath string
	// Headless runs the managed browser without a window.
	Headless bool
	// OpTimeout bounds individual document operations.
	OpTimeout time.Duration
	// NavTimeout bounds full page navigations.
	NavTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.DebugPort <= 0 {
		o.DebugPort = 9223
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 15 * time.Second
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = 60 * time.Second
	}
	return o
}

// Session is one connected browser.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    Options
	mode    string
	log     zerolog.Logger
}

// Mode reports how the session was established: "attach" or "launch".
func (s *Session) Mode() string { return s.mode }

// Connect attaches to a running browser on the devtools port and falls
// back to launching a managed one on the persistent profile.
func Connect(ctx context.Context, opts Options, log zerolog.Logger) (*Session, error) {
	s, attachErr := Attach(ctx, opts, log)
	if attachErr == nil {
		return s, nil
	}
	log.Debug().Err(attachErr).Int("port", opts.withDefaults().DebugPort).
		Msg("no attachable browser, launching")

	s, launchErr := Launch(ctx, opts, log)
	if launchErr != nil {
		return nil, fmt.Errorf("attach failed (%v); launch failed: %w", attachErr, launchErr)
	}
	return s, nil
}

// Attach connects to a browser already listening on the devtools port and
// re-uses its first open page, so the operator's signed-in tab keeps its
// session.
func Attach(ctx context.Context, opts Options, log zerolog.Logger) (*Session, error) {
	opts = opts.withDefaults()

	url := fmt.Sprintf("http://127.0.0.1:%d/", opts.DebugPort)
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, url)

	probeCtx, probeCancel := context.WithTimeout(allocCtx, 5*time.Second)
	infos, err := chromedp.Targets(probeCtx)
	probeCancel()
	if err != nil {
		allocCancel()
		return nil, fmt.Errorf("no browser on port %d: %w", opts.DebugPort, err)
	}

	var pick *target.Info
	for _, info := range infos {
		if info.Type == "page" && !strings.HasPrefix(info.URL, "devtools://") {
			pick = info
			break
		}
	}

	var tabCtx context.Context
	var tabCancel context.CancelFunc
	if pick != nil {
		log.Debug().Str("url", pick.URL).Msg("attaching to existing page")
		tabCtx, tabCancel = chromedp.NewContext(allocCtx, chromedp.WithTargetID(pick.TargetID))
	} else {
		tabCtx, tabCancel = chromedp.NewContext(allocCtx)
	}

	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("attach to browser: %w", err)
	}

	return &Session{
		ctx:     tabCtx,
		cancels: []context.CancelFunc{tabCancel, allocCancel},
		opts:    opts,
		mode:    "attach",
		log:     log,
	}, nil
}

// Launch starts a managed browser on the persistent profile. It dies with
// the session; login cookies in the profile survive.
func Launch(ctx context.Context, opts Options, log zerolog.Logger) (*Session, error) {
	opts = opts.withDefaults()

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1400, 1000),
	)
	if opts.ProfileDir != "" {
		execOpts = append(execOpts, chromedp.UserDataDir(opts.ProfileDir))
	}
	if opts.ChromePath != "" {
		execOpts = append(execOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	startCtx, startCancel := context.WithTimeout(tabCtx, 30*time.Second)
	err := chromedp.Run(startCtx)
	startCancel()
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	log.Debug().Str("profile", opts.ProfileDir).Bool("headless", opts.Headless).
		Msg("launched managed browser")

	return &Session{
		ctx:     tabCtx,
		cancels: []context.CancelFunc{tabCancel, allocCancel},
		opts:    opts,
		mode:    "launch",
		log:     log,
	}, nil
}

// Close tears the session down. An attached browser keeps running; a
// launched one exits with its allocator.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// CurrentURL returns the page's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var url string
	if err := s.run(s.opts.OpTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return url, nil
}

// Navigate drives the page to url and waits for the document to load.
// Navigation is skipped when the page is already there (case-insensitive),
// so an operator parked on the right course is not reloaded mid-session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if current, err := s.CurrentURL(ctx); err == nil {
		if strings.EqualFold(strings.TrimRight(current, "/"), strings.TrimRight(url, "/")) {
			s.log.Debug().Str("url", url).Msg("already on target page")
			return nil
		}
	}

	err := s.run(s.opts.NavTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	// The listing renders rows after load; give it a beat.
	s.sleep(ctx, time.Second)
	return nil
}

// Page returns the document port bound to this session.
func (s *Session) Page() *Page {
	return &Page{sess: s, log: s.log.With().Str("component", "page").Logger()}
}

// run executes chromedp actions on the session context under a timeout.
// The session context survives the call; only the op deadline is scoped.
func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

func (s *Session) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
