package render

import (
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	errorPolicyOnce sync.Once
	errorPolicy     *bluemonday.Policy
)

func errorSanitizer() *bluemonday.Policy {
	errorPolicyOnce.Do(func() {
		errorPolicy = bluemonday.StrictPolicy()
	})
	return errorPolicy
}

// Mount is the element a view renders into. Content is written on the loop
// goroutine and may be read from any goroutine.
type Mount struct {
	id string

	mu       sync.RWMutex
	content  string
	errMsg   string
	revision uint64
}

// NewMount creates an empty mount point.
func NewMount(id string) *Mount {
	return &Mount{id: id}
}

// ID returns the element identifier.
func (m *Mount) ID() string {
	return m.id
}

// Set replaces the rendered content and clears any inline error.
func (m *Mount) Set(content string) {
	m.mu.Lock()
	m.content = content
	m.errMsg = ""
	m.revision++
	m.mu.Unlock()
}

// Clear empties the mount.
func (m *Mount) Clear() {
	m.Set("")
}

// ShowError replaces the content with an inline error placeholder. The
// message is stripped of markup before it is shown.
func (m *Mount) ShowError(message string) {
	clean := strings.TrimSpace(errorSanitizer().Sanitize(message))
	m.mu.Lock()
	m.errMsg = html.UnescapeString(clean)
	m.content = `<div class="surveysync-error" role="alert">` + clean + `</div>`
	m.revision++
	m.mu.Unlock()
}

// Content returns the current rendered content.
func (m *Mount) Content() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.content
}

// Error returns the inline error message, if one is shown.
func (m *Mount) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

// Revision increases with every write.
func (m *Mount) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// Page holds the mount points known to a host document.
type Page struct {
	mu     sync.RWMutex
	mounts map[string]*Mount
}

// NewPage creates an empty page.
func NewPage() *Page {
	return &Page{mounts: make(map[string]*Mount)}
}

// Mount returns the mount for id, creating it when absent.
func (p *Page) Mount(id string) *Mount {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.mounts[id]; ok {
		return m
	}
	m := NewMount(id)
	p.mounts[id] = m
	return m
}

// Lookup returns an existing mount.
func (p *Page) Lookup(id string) (*Mount, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.mounts[id]
	return m, ok
}

// Remove drops a mount from the page.
func (p *Page) Remove(id string) {
	p.mu.Lock()
	delete(p.mounts, id)
	p.mu.Unlock()
}

// IDs lists mount identifiers in sorted order.
func (p *Page) IDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.mounts))
	for id := range p.mounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
