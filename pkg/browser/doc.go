// Package browser fetches pages from rateyourmusic.com through a real browser.
//
// A Session owns one browser at a time, obtained from a Launcher. GetURL
// navigates, clicks away cookie and consent overlays, expands collapsed
// discography sections and then inspects the page:
//
//   - a page titled "IP blocked" closes the session and returns ErrIPBanned
//   - a page carrying the sec_verify form restarts the browser and retries
//
// The caller decides what a ban means for the process; the session never
// exits on its own.
//
// # Engines
//
// ParseEngine maps the driver names "edge", "chrome" and "safari" to their
// engines and everything else to Firefox. PlaywrightLauncher runs Edge and
// Chrome through Chromium channels and Safari through WebKit.
//
// # Example Usage
//
//	launcher, err := browser.NewPlaywrightLauncher(true)
//	session, err := browser.New(browser.DefaultOptions(), launcher)
//	defer session.Close()
//
//	if err := session.GetURL(ctx, "https://rateyourmusic.com/artist/radiohead"); err != nil {
//	    return err
//	}
//	snap, err := session.Snapshot()
package browser
