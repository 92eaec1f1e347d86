package browser

import (
	"strings"
	"time"
)

// Engine identifies the browser a session drives.
type Engine string

const (
	// EngineFirefox is used when no engine, or an unknown one, is requested
	EngineFirefox Engine = "firefox"

	// EngineEdge drives Microsoft Edge through the Chromium engine
	EngineEdge Engine = "edge"

	// EngineChrome drives Google Chrome through the Chromium engine
	EngineChrome Engine = "chrome"

	// EngineSafari drives WebKit
	EngineSafari Engine = "safari"
)

// ParseEngine maps a driver name to an Engine. Names other than
// "edge", "chrome" and "safari" select Firefox.
func ParseEngine(name string) Engine {
	switch Engine(name) {
	case EngineEdge, EngineChrome, EngineSafari:
		return Engine(name)
	default:
		return EngineFirefox
	}
}

// Element is a single DOM element the driver can interact with.
type Element interface {
	Click() error
}

// Driver is the set of browser capabilities a Session needs.
type Driver interface {
	// Navigate loads url in the current page and waits for it to be ready
	Navigate(url string) error

	// FindElementsByClass returns every element carrying class, in document order
	FindElementsByClass(class string) ([]Element, error)

	// ExecuteScript runs inline JavaScript in the page
	ExecuteScript(script string) error

	// PageSource returns the currently rendered markup
	PageSource() (string, error)

	// Quit terminates the browser process
	Quit() error
}

// LaunchOptions describes how a browser process is started.
type LaunchOptions struct {
	Engine Engine

	Headless bool

	// ExecutablePath optionally points at a specific browser binary
	ExecutablePath string
}

// Launcher starts browser processes.
type Launcher interface {
	Launch(opts LaunchOptions) (Driver, error)
}

// Options configures a Session.
type Options struct {
	// Engine selects the browser to drive
	Engine Engine

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// ExecutablePath optionally binds the session to a specific executable.
	// It must exist on disk when set.
	ExecutablePath string

	// OverlayClasses are consent and cookie overlays dismissed after each
	// navigation, in order
	OverlayClasses []string

	// ExpandClass marks collapsible sections clicked open after each navigation
	ExpandClass string

	// ExpandDelay is the pause after each expand click
	ExpandDelay time.Duration

	// BanTitle is the page title served to banned clients
	BanTitle string

	// RateLimitFormID is the id of the verification form served to
	// rate-limited clients
	RateLimitFormID string

	// MaxRestarts caps restarts within one GetURL call. Zero means unbounded.
	MaxRestarts int

	// RestartBackoff is the pause before relaunching a rate-limited browser
	RestartBackoff time.Duration

	// RequestsPerSecond paces navigations. Zero disables pacing.
	RequestsPerSecond float64

	// AllowedHosts are glob patterns a URL host must match. Empty allows any host.
	AllowedHosts []string
}

// Default values matching rateyourmusic.com
const (
	DefaultExpandClass     = "disco_expand_section_link"
	DefaultExpandDelay     = 200 * time.Millisecond
	DefaultBanTitle        = "IP blocked"
	DefaultRateLimitFormID = "sec_verify"
)

// DefaultOverlayClasses lists the cookie bar and the consent popup.
var DefaultOverlayClasses = []string{
	"as-oil__btn-optin",
	"fc-cta-consent",
}

// DefaultOptions returns options for a headless Firefox session against
// rateyourmusic.com with unbounded restarts.
func DefaultOptions() Options {
	overlays := make([]string, len(DefaultOverlayClasses))
	copy(overlays, DefaultOverlayClasses)

	return Options{
		Engine:          EngineFirefox,
		Headless:        true,
		OverlayClasses:  overlays,
		ExpandClass:     DefaultExpandClass,
		ExpandDelay:     DefaultExpandDelay,
		BanTitle:        DefaultBanTitle,
		RateLimitFormID: DefaultRateLimitFormID,
	}
}

func (o Options) launchOptions() LaunchOptions {
	return LaunchOptions{
		Engine:         o.Engine,
		Headless:       o.Headless,
		ExecutablePath: o.ExecutablePath,
	}
}

func (o Options) validate() error {
	if strings.TrimSpace(o.BanTitle) == "" {
		return errInvalidOption("ban title is required")
	}
	if o.RateLimitFormID == "" {
		return errInvalidOption("rate-limit form id is required")
	}
	if o.MaxRestarts < 0 {
		return errInvalidOption("max restarts cannot be negative")
	}
	if o.ExpandDelay < 0 || o.RestartBackoff < 0 {
		return errInvalidOption("delays cannot be negative")
	}
	if o.RequestsPerSecond < 0 {
		return errInvalidOption("requests per second cannot be negative")
	}
	return nil
}
