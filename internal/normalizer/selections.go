package normalizer

import (
	"sync"

	"github.com/lineview/odds-aggregator/internal/models"
)

// SelectionCatalog is the shared set of canonical selections, keyed by
// selection id. Quotes and aggregated rows reference selections by id only;
// the catalog is the single place the full entity lives.
type SelectionCatalog struct {
	mu         sync.RWMutex
	selections map[string]models.Selection
}

// NewSelectionCatalog creates an empty catalog.
func NewSelectionCatalog() *SelectionCatalog {
	return &SelectionCatalog{selections: make(map[string]models.Selection)}
}

// Upsert registers a selection and returns its id.
func (c *SelectionCatalog) Upsert(sel models.Selection) string {
	id := sel.ID()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selections[id]; !ok {
		c.selections[id] = sel
	}
	return id
}

// Get returns the selection for an id.
func (c *SelectionCatalog) Get(id string) (models.Selection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sel, ok := c.selections[id]
	return sel, ok
}
