package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Logger is the logging surface a Session writes to. *logging.Logger
// satisfies it.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records session activity on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// withSleep replaces the blocking delay used between expand clicks and
// before restarts.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Session) {
		s.sleep = sleep
	}
}

// Session owns exactly one browser driver at a time and fetches pages
// through overlays, collapsed sections and anti-bot defenses.
// A Session is not safe for concurrent use.
type Session struct {
	opts     Options
	launcher Launcher
	driver   Driver
	hosts    *hostMatcher
	limiter  *rate.Limiter
	logger   Logger
	metrics  *Metrics
	sleep    func(ctx context.Context, d time.Duration) error
	restarts int
	closed   bool
}

// New validates opts and launches the first browser through launcher.
// A configured executable path that does not exist fails with
// ErrDriverNotFound before anything is launched.
func New(opts Options, launcher Launcher, options ...Option) (*Session, error) {
	if launcher == nil {
		return nil, errInvalidOption("launcher is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if opts.ExecutablePath != "" {
		if _, err := os.Stat(opts.ExecutablePath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, opts.ExecutablePath)
		}
	}

	hosts, err := newHostMatcher(opts.AllowedHosts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	s := &Session{
		opts:     opts,
		launcher: launcher,
		hosts:    hosts,
		logger:   nopLogger{},
		sleep:    sleepContext,
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	for _, option := range options {
		option(s)
	}

	s.logger.Debugf("starting %s browser: headless = %t", opts.Engine, opts.Headless)
	driver, err := launcher.Launch(opts.launchOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	s.driver = driver

	return s, nil
}

// GetURL navigates to url and prepares the page for extraction: overlays are
// dismissed and collapsed sections expanded. A rate-limited page restarts
// the browser and tries again. A banned page closes the session and returns
// ErrIPBanned. On success the browser is left on the fetched page.
func (s *Session) GetURL(ctx context.Context, url string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.hosts.check(url); err != nil {
		return err
	}

	s.logger.Debugf("get_url: %s", url)
	restarts := 0
	for {
		if err := s.navigate(ctx, url); err != nil {
			return err
		}

		if err := s.dismissOverlays(); err != nil {
			return err
		}

		s.expandSections(ctx)

		banned, err := s.IsIPBanned()
		if err != nil {
			return err
		}
		if banned {
			s.logger.Errorf("IP banned from site, no further requests are possible")
			s.metrics.ban()
			_ = s.Close()
			return ErrIPBanned
		}

		limited, err := s.IsRateLimited()
		if err != nil {
			return err
		}
		if !limited {
			return nil
		}

		if s.opts.MaxRestarts > 0 && restarts >= s.opts.MaxRestarts {
			s.logger.Errorf("rate limit persisted after %d restarts", restarts)
			return fmt.Errorf("%w (%d)", ErrRestartsExhausted, restarts)
		}

		s.logger.Warnf("rate limit detected, restarting browser")
		if s.opts.RestartBackoff > 0 {
			if err := s.sleep(ctx, s.opts.RestartBackoff); err != nil {
				return err
			}
		}
		if err := s.Restart(); err != nil {
			return err
		}
		restarts++
	}
}

func (s *Session) navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	s.metrics.navigation()
	if err := s.driver.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// dismissOverlays clicks the first element of each overlay class present.
func (s *Session) dismissOverlays() error {
	for _, class := range s.opts.OverlayClasses {
		elements, err := s.driver.FindElementsByClass(class)
		if err != nil {
			return fmt.Errorf("overlay lookup failed: %w", err)
		}
		if len(elements) == 0 {
			continue
		}

		if err := elements[0].Click(); err != nil {
			return fmt.Errorf("failed to dismiss %s: %w", class, err)
		}
		s.metrics.overlay(class)
		s.logger.Debugf("%s found, clicked on it", class)
	}
	return nil
}

// expandSections opens every collapsed section in document order. The first
// failure stops the expansion; it is logged and otherwise ignored.
func (s *Session) expandSections(ctx context.Context) {
	if s.opts.ExpandClass == "" {
		return
	}

	links, err := s.driver.FindElementsByClass(s.opts.ExpandClass)
	if err != nil {
		s.logger.Debugf("no expand links found: %v", err)
		return
	}

	for i, link := range links {
		if err := s.driver.ExecuteScript(scrollIntoViewScript(s.opts.ExpandClass, i)); err != nil {
			s.logger.Debugf("expand link %d not scrollable: %v", i, err)
			return
		}
		if err := link.Click(); err != nil {
			s.logger.Debugf("expand link %d not clickable: %v", i, err)
			return
		}
		s.metrics.expanded()

		if err := s.sleep(ctx, s.opts.ExpandDelay); err != nil {
			s.logger.Debugf("section expansion interrupted: %v", err)
			return
		}
	}
}

func scrollIntoViewScript(class string, index int) string {
	return fmt.Sprintf(
		"document.getElementsByClassName('%s')[%d].scrollIntoView(true);",
		strings.ReplaceAll(class, "'", "\\'"), index,
	)
}

// Restart terminates the current browser and launches a fresh one with the
// same engine, headless flag and executable path.
func (s *Session) Restart() error {
	if s.closed {
		return ErrSessionClosed
	}

	if err := s.driver.Quit(); err != nil {
		s.logger.Warnf("failed to quit browser before restart: %v", err)
	}
	s.driver = nil

	driver, err := s.launcher.Launch(s.opts.launchOptions())
	if err != nil {
		s.closed = true
		return fmt.Errorf("failed to relaunch browser: %w", err)
	}

	s.driver = driver
	s.restarts++
	s.metrics.restart()
	return nil
}

// Snapshot parses the markup currently rendered by the browser.
func (s *Session) Snapshot() (*Snapshot, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	source, err := s.driver.PageSource()
	if err != nil {
		return nil, fmt.Errorf("failed to read page source: %w", err)
	}
	return ParseSnapshot(source)
}

// IsIPBanned reports whether the current page title is the ban sentinel.
// The comparison is exact after trimming surrounding whitespace.
func (s *Session) IsIPBanned() (bool, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return false, err
	}
	s.logger.Debugf("page title: %q", snap.Title())
	return snap.Title() == strings.TrimSpace(s.opts.BanTitle), nil
}

// IsRateLimited reports whether the current page carries the verification form.
func (s *Session) IsRateLimited() (bool, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return false, err
	}
	return snap.HasForm(s.opts.RateLimitFormID), nil
}

// Restarts returns how many times the browser has been relaunched.
func (s *Session) Restarts() int {
	return s.restarts
}

// Close terminates the browser. Safe to call multiple times.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.driver == nil {
		return nil
	}
	err := s.driver.Quit()
	s.driver = nil
	if err != nil {
		return fmt.Errorf("failed to quit browser: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsFatal reports whether err means the site can no longer be scraped from
// this address.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIPBanned)
}
