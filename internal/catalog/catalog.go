package catalog

import (
	"sort"
	"sync"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

// MonthGroup is a set of entries sharing a YYYY-MM publish month.
type MonthGroup struct {
	Key     string
	Entries []models.Entry
}

// Catalog is a concurrency-safe ordered collection of entries. Insertion order
// is kept with the most recent insertion first.
type Catalog struct {
	mu      sync.RWMutex
	entries []models.Entry
}

// New returns a catalog seeded with entries in document order.
func New(entries ...models.Entry) *Catalog {
	c := &Catalog{}
	c.Replace(entries)
	return c
}

// Replace swaps the whole content, typically after a fresh fetch.
func (c *Catalog) Replace(entries []models.Entry) {
	cp := make([]models.Entry, len(entries))
	copy(cp, entries)

	c.mu.Lock()
	c.entries = cp
	c.mu.Unlock()
}

// Prepend inserts e at the head.
func (c *Catalog) Prepend(e models.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append([]models.Entry{e}, c.entries...)
}

// Remove drops the entry with id and reports whether it was present.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the entry with id or common.ErrNotFound.
func (c *Catalog) Get(id string) (models.Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Entry{}, common.ErrNotFound
}

// IDs returns every id in document order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// NextID allocates the id following the catalog's current content.
func (c *Catalog) NextID() string {
	return NextID(c.IDs())
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns the entries in document order.
func (c *Catalog) Snapshot() []models.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp := make([]models.Entry, len(c.entries))
	copy(cp, c.entries)
	return cp
}

// List returns all entries newest publish date first. Entries sharing a date
// keep their document order.
func (c *Catalog) List() []models.Entry {
	out := c.Snapshot()
	sortByDate(out)
	return out
}

// ByKind returns the entries of one kind, ordered like List.
func (c *Catalog) ByKind(kind models.MediaKind) []models.Entry {
	c.mu.RLock()
	out := make([]models.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.MediaKind == kind {
			out = append(out, e)
		}
	}
	c.mu.RUnlock()

	sortByDate(out)
	return out
}

// Home returns the strips shown on the home feed.
func (c *Catalog) Home() []models.Entry {
	return c.ByKind(models.MediaVideo)
}

// Archive returns the strips shown in the archive.
func (c *Catalog) Archive() []models.Entry {
	return c.ByKind(models.MediaImage)
}

// ByMonth groups entries by publish month, newest month first. An empty kind
// groups every entry.
func (c *Catalog) ByMonth(kind models.MediaKind) []MonthGroup {
	var entries []models.Entry
	if kind == "" {
		entries = c.List()
	} else {
		entries = c.ByKind(kind)
	}

	var groups []MonthGroup
	idx := map[string]int{}
	for _, e := range entries {
		key := e.Month()
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, MonthGroup{Key: key})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// YYYY-MM-DD compares correctly as a string.
func sortByDate(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishDate > entries[j].PublishDate
	})
}
