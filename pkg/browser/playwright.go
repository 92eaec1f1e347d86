package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher launches browsers through a shared Playwright driver.
type PlaywrightLauncher struct {
	mu         sync.Mutex
	playwright *playwright.Playwright

	// Timeout is the default timeout for page operations, in milliseconds
	Timeout float64
}

// NewPlaywrightLauncher starts the Playwright driver. When install is true
// the driver and browsers are downloaded first if missing.
func NewPlaywrightLauncher(install bool) (*PlaywrightLauncher, error) {
	// Discard driver output so it does not interleave with ours
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if install {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	return &PlaywrightLauncher{
		playwright: pw,
		Timeout:    DefaultTimeout,
	}, nil
}

// DefaultTimeout is 30 seconds in milliseconds.
const DefaultTimeout = 30000.0

// browserType resolves an engine to a Playwright browser type and channel.
func (l *PlaywrightLauncher) browserType(engine Engine) (playwright.BrowserType, string) {
	switch engine {
	case EngineEdge:
		return l.playwright.Chromium, "msedge"
	case EngineChrome:
		return l.playwright.Chromium, "chrome"
	case EngineSafari:
		return l.playwright.WebKit, ""
	default:
		return l.playwright.Firefox, ""
	}
}

// Launch starts a browser with a single context and page.
func (l *PlaywrightLauncher) Launch(opts LaunchOptions) (Driver, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.playwright == nil {
		return nil, fmt.Errorf("playwright is not running")
	}

	browserType, channel := l.browserType(opts.Engine)

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if channel != "" {
		launchOpts.Channel = playwright.String(channel)
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	browser, err := browserType.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", opts.Engine, err)
	}

	context, err := browser.NewContext()
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if l.Timeout > 0 {
		page.SetDefaultTimeout(l.Timeout)
	}

	return &playwrightDriver{
		browser: browser,
		context: context,
		page:    page,
	}, nil
}

// Stop shuts down the Playwright driver. Browsers launched from it must be
// quit first.
func (l *PlaywrightLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.playwright == nil {
		return nil
	}
	if err := l.playwright.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	l.playwright = nil
	return nil
}

// playwrightDriver adapts one Playwright browser, context and page to Driver.
type playwrightDriver struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (d *playwrightDriver) Navigate(url string) error {
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return err
}

func (d *playwrightDriver) FindElementsByClass(class string) ([]Element, error) {
	// Element handles stay bound to the matched nodes while clicks
	// insert or move siblings carrying the same class
	handles, err := d.page.QuerySelectorAll("." + class)
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, handleElement{handle: handle})
	}
	return elements, nil
}

func (d *playwrightDriver) ExecuteScript(script string) error {
	_, err := d.page.Evaluate(script)
	return err
}

func (d *playwrightDriver) PageSource() (string, error) {
	return d.page.Content()
}

func (d *playwrightDriver) Quit() error {
	// Keep closing even if an earlier step fails
	_ = d.page.Close()
	_ = d.context.Close()
	return d.browser.Close()
}

type handleElement struct {
	handle playwright.ElementHandle
}

func (e handleElement) Click() error {
	return e.handle.Click()
}
