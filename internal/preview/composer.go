// internal/preview/composer.go
package preview

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"webweave/internal/workspace"
)

// StylesheetName is the one filename the composer treats specially: its
// content is injected into plain HTML previews.
const StylesheetName = "style.css"

// reactCDNMarker identifies self-contained React previews that transpile
// in the browser. Such files manage their own styling, so no injection.
const reactCDNMarker = `<script src="https://unpkg.com/@babel/standalone`

// maxDataURISize caps the exported link; browsers truncate data URIs
// somewhere past this scale.
const maxDataURISize = 2 << 20

// Result is a composed preview for one selected HTML file.
type Result struct {
	Filename    string `json:"filename"`
	HTML        string `json:"html"`
	ReactCDN    bool   `json:"react_cdn"`
	CSSInjected bool   `json:"css_injected"`
	Note        string `json:"note"`
	Cached      bool   `json:"cached"`
}

// Composer builds preview HTML for the selected workspace file, caching
// the composition keyed by the exact source content last read. The cache
// is content-compared, not timestamp-compared: a recompute happens only
// when the selection changes or the on-disk bytes differ.
type Composer struct {
	store *workspace.Store

	mu           sync.Mutex
	cachedName   string
	cachedSource string
	cached       *Result
}

// NewComposer returns a Composer reading sources from the given store.
func NewComposer(store *workspace.Store) *Composer {
	return &Composer{store: store}
}

// IsHTML reports whether a filename has an HTML extension.
func IsHTML(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

// Reset drops the cached composition and its render marker.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedName = ""
	c.cachedSource = ""
	c.cached = nil
}

// Compose returns the preview for the named file. A non-HTML selection
// yields (nil, nil) and clears the cache; an unreadable file clears the
// cache and returns an error. Otherwise the result is served from cache
// when the on-disk content matches what produced the cached value.
func (c *Composer) Compose(name string) (*Result, error) {
	if name == "" || !IsHTML(name) {
		c.Reset()
		return nil, nil
	}

	source, ok := c.store.Read(name)
	if !ok {
		c.Reset()
		return nil, fmt.Errorf("could not read '%s' for preview", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.cachedName == name && c.cachedSource == source {
		hit := *c.cached
		hit.Cached = true
		return &hit, nil
	}

	result := c.compose(name, source)
	c.cachedName = name
	c.cachedSource = source
	c.cached = result

	out := *result
	return &out, nil
}

// compose performs the actual composition of one source document.
func (c *Composer) compose(name, source string) *Result {
	result := &Result{Filename: name, HTML: source, Note: "Basic HTML preview."}

	if strings.Contains(source, reactCDNMarker) {
		result.ReactCDN = true
		result.Note = "Preview uses CDN links and in-browser transpiling for simple React demos."
		return result
	}

	css, ok := c.store.Read(StylesheetName)
	if !ok || css == "" {
		return result
	}

	// Splice immediately before the first closing head tag; a document
	// without one is returned unmodified.
	idx := strings.Index(strings.ToLower(source), "</head>")
	if idx < 0 {
		return result
	}
	styleBlock := "\n<style>\n" + css + "\n</style>\n"
	result.HTML = source[:idx] + styleBlock + source[idx:]
	result.CSSInjected = true
	result.Note += " Injected " + StylesheetName + "."
	return result
}

// ExportDataURI wraps composed HTML as a self-contained data: link that
// opens as a standalone document outside the embedded preview.
func ExportDataURI(html string) (string, error) {
	encoded := url.PathEscape(html)
	if len(encoded) > maxDataURISize {
		return "", fmt.Errorf("preview too large for a data URI (%d bytes encoded)", len(encoded))
	}
	return "data:text/html;charset=utf-8," + encoded, nil
}
