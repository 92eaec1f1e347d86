package browser

import (
	"context"
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// domPage is a playwright.Page backed by a list of nodes carrying the
// expand class. Only the methods a driver uses are implemented.
type domPage struct {
	playwright.Page

	nodes   []string
	clicked []string
	queries []string
	scripts []string
}

func (p *domPage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	return nil, nil
}

func (p *domPage) QuerySelectorAll(selector string) ([]playwright.ElementHandle, error) {
	p.queries = append(p.queries, selector)
	if selector != "."+DefaultExpandClass {
		return nil, nil
	}

	handles := make([]playwright.ElementHandle, 0, len(p.nodes))
	for _, node := range p.nodes {
		handles = append(handles, &domHandle{page: p, node: node})
	}
	return handles, nil
}

func (p *domPage) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	p.scripts = append(p.scripts, expression)
	return nil, nil
}

func (p *domPage) Content() (string, error) {
	return "<html><head><title>Radiohead</title></head><body></body></html>", nil
}

// domHandle is bound to one node. Clicking the first section loads a new
// section in front of the remaining ones, shifting their positions.
type domHandle struct {
	playwright.ElementHandle

	page *domPage
	node string
}

func (h *domHandle) Click(options ...playwright.ElementHandleClickOptions) error {
	h.page.clicked = append(h.page.clicked, h.node)
	if h.node == "albums" {
		nodes := []string{h.page.nodes[0], "loaded"}
		h.page.nodes = append(nodes, h.page.nodes[1:]...)
	}
	return nil
}

type pageLauncher struct {
	page *domPage
}

func (l *pageLauncher) Launch(opts LaunchOptions) (Driver, error) {
	return &playwrightDriver{page: l.page}, nil
}

func TestPlaywrightDriver_ExpandClicksOriginalSections(t *testing.T) {
	page := &domPage{nodes: []string{"albums", "eps", "singles"}}
	sleeper := &noSleep{}

	session, err := New(DefaultOptions(), &pageLauncher{page: page}, withSleep(sleeper.sleep))
	require.NoError(t, err)

	require.NoError(t, session.GetURL(context.Background(), artistURL))

	assert.Equal(t, []string{"albums", "eps", "singles"}, page.clicked)
	assert.Len(t, page.scripts, 3)
	for i, script := range page.scripts {
		assert.Equal(t, fmt.Sprintf("document.getElementsByClassName('disco_expand_section_link')[%d].scrollIntoView(true);", i), script)
	}
	assert.Contains(t, page.queries, ".as-oil__btn-optin")
	assert.Contains(t, page.queries, ".fc-cta-consent")
}

func TestPlaywrightDriver_FindElementsByClass(t *testing.T) {
	page := &domPage{nodes: []string{"albums", "eps"}}
	driver := &playwrightDriver{page: page}

	elements, err := driver.FindElementsByClass(DefaultExpandClass)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	require.NoError(t, elements[1].Click())
	assert.Equal(t, []string{"eps"}, page.clicked)

	none, err := driver.FindElementsByClass("fc-cta-consent")
	require.NoError(t, err)
	assert.Empty(t, none)
}
