package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// fakePage is what the fake browser renders for one navigation.
type fakePage struct {
	title   string
	body    string
	classes map[string]int

	// failExpandAt makes the click on that expand link fail (-1 disables)
	failExpandAt int
}

func (p fakePage) markup() string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body>%s</body></html>", p.title, p.body)
}

func cleanPage() fakePage {
	return fakePage{title: "Radiohead", body: "<div>discography</div>", failExpandAt: -1}
}

func bannedPage() fakePage {
	return fakePage{title: "IP blocked", failExpandAt: -1}
}

func rateLimitedPage() fakePage {
	return fakePage{title: "Verify", body: `<form id="sec_verify"></form>`, failExpandAt: -1}
}

// fakeBrowser is shared by every driver a fakeLauncher creates so pages are
// served in order across restarts.
type fakeBrowser struct {
	pages       []fakePage
	navigations []string
	clicks      []string
	scripts     []string
	current     fakePage
}

func (b *fakeBrowser) next() fakePage {
	if len(b.pages) == 0 {
		return cleanPage()
	}
	page := b.pages[0]
	if len(b.pages) > 1 {
		b.pages = b.pages[1:]
	}
	return page
}

type fakeDriver struct {
	browser *fakeBrowser
	quit    bool
}

func (d *fakeDriver) Navigate(url string) error {
	if d.quit {
		return errors.New("driver quit")
	}
	d.browser.navigations = append(d.browser.navigations, url)
	d.browser.current = d.browser.next()
	return nil
}

func (d *fakeDriver) FindElementsByClass(class string) ([]Element, error) {
	n := d.browser.current.classes[class]
	elements := make([]Element, 0, n)
	for i := 0; i < n; i++ {
		elements = append(elements, &fakeElement{browser: d.browser, class: class, index: i})
	}
	return elements, nil
}

func (d *fakeDriver) ExecuteScript(script string) error {
	d.browser.scripts = append(d.browser.scripts, script)
	return nil
}

func (d *fakeDriver) PageSource() (string, error) {
	return d.browser.current.markup(), nil
}

func (d *fakeDriver) Quit() error {
	d.quit = true
	return nil
}

type fakeElement struct {
	browser *fakeBrowser
	class   string
	index   int
}

func (e *fakeElement) Click() error {
	if strings.Contains(e.class, "expand") && e.browser.current.failExpandAt == e.index {
		return errors.New("element not interactable")
	}
	e.browser.clicks = append(e.browser.clicks, fmt.Sprintf("%s[%d]", e.class, e.index))
	return nil
}

type fakeLauncher struct {
	browser  *fakeBrowser
	launches []LaunchOptions
	drivers  []*fakeDriver
	err      error
}

func newFakeLauncher(pages ...fakePage) *fakeLauncher {
	return &fakeLauncher{browser: &fakeBrowser{pages: pages}}
}

func (l *fakeLauncher) Launch(opts LaunchOptions) (Driver, error) {
	l.launches = append(l.launches, opts)
	if l.err != nil {
		return nil, l.err
	}
	d := &fakeDriver{browser: l.browser}
	l.drivers = append(l.drivers, d)
	return d, nil
}

// noSleep records requested delays without blocking.
type noSleep struct {
	delays []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.delays = append(n.delays, d)
	return ctx.Err()
}
