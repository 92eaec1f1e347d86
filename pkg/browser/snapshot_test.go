package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshot(t *testing.T) {
	markup := `<html><head><title> Radiohead </title><title>second</title></head>
<body><form id="search"></form><form id="sec_verify"><input></form></body></html>`

	snap, err := ParseSnapshot(markup)
	require.NoError(t, err)

	assert.Equal(t, "Radiohead", snap.Title())
	assert.True(t, snap.HasForm("sec_verify"))
	assert.True(t, snap.HasForm("search"))
	assert.False(t, snap.HasForm("sec"))
	assert.Equal(t, markup, snap.HTML())
	assert.Equal(t, 2, snap.Document().Find("form").Length())
}

func TestParseSnapshot_NoTitle(t *testing.T) {
	snap, err := ParseSnapshot("<p>fragment</p>")
	require.NoError(t, err)

	assert.Equal(t, "", snap.Title())
	assert.False(t, snap.HasForm("sec_verify"))
}

func TestParseEngine(t *testing.T) {
	cases := map[string]Engine{
		"edge":    EngineEdge,
		"chrome":  EngineChrome,
		"safari":  EngineSafari,
		"firefox": EngineFirefox,
		"":        EngineFirefox,
		"Chrome":  EngineFirefox,
		"opera":   EngineFirefox,
	}
	for name, want := range cases {
		assert.Equal(t, want, ParseEngine(name), "ParseEngine(%q)", name)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, EngineFirefox, opts.Engine)
	assert.True(t, opts.Headless)
	assert.Equal(t, []string{"as-oil__btn-optin", "fc-cta-consent"}, opts.OverlayClasses)
	assert.Equal(t, "disco_expand_section_link", opts.ExpandClass)
	assert.Equal(t, "IP blocked", opts.BanTitle)
	assert.Equal(t, "sec_verify", opts.RateLimitFormID)
	assert.Zero(t, opts.MaxRestarts)

	// Callers must not be able to mutate the package defaults
	opts.OverlayClasses[0] = "changed"
	assert.Equal(t, "as-oil__btn-optin", DefaultOptions().OverlayClasses[0])
}

func TestScrollIntoViewScript(t *testing.T) {
	assert.Equal(t,
		"document.getElementsByClassName('a\\'b')[4].scrollIntoView(true);",
		scrollIntoViewScript("a'b", 4),
	)
}
