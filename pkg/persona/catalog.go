package persona

import (
	"fmt"
	"sort"

	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
)

// Catalog is the immutable set of personas a Resolver chooses from.
type Catalog struct {
	personas []Persona
	byID     map[ID]Persona
	fallback Persona
}

// NewCatalog builds the standard catalog. A nil cfg uses the default thresholds.
func NewCatalog(cfg *config.Analysis) *Catalog {
	if cfg == nil {
		cfg = config.DefaultAnalysis()
	}
	c, _ := NewCatalogOf(newNewUser(), defaultPersonas(cfg)...)
	return c
}

// NewCatalogOf builds a catalog from explicit personas. Duplicate ids are rejected.
func NewCatalogOf(fallback Persona, personas ...Persona) (*Catalog, error) {
	if fallback == nil {
		return nil, fmt.Errorf("%w: catalog needs a fallback persona", domain.ErrValidation)
	}
	c := &Catalog{
		byID:     make(map[ID]Persona, len(personas)+1),
		fallback: fallback,
	}
	c.byID[fallback.ID()] = fallback
	for _, p := range personas {
		if _, dup := c.byID[p.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate persona id %q", domain.ErrValidation, p.ID())
		}
		c.byID[p.ID()] = p
		c.personas = append(c.personas, p)
	}
	sort.SliceStable(c.personas, func(i, j int) bool {
		return ranksBefore(c.personas[i].Priority(), c.personas[i].ID(), c.personas[j].Priority(), c.personas[j].ID())
	})
	return c, nil
}

// Personas returns the evaluated personas in priority order, fallback excluded.
func (c *Catalog) Personas() []Persona {
	return append([]Persona(nil), c.personas...)
}

// Fallback returns the persona assigned when nothing matches.
func (c *Catalog) Fallback() Persona {
	return c.fallback
}

// Get looks up a persona by id, fallback included.
func (c *Catalog) Get(id ID) (Persona, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// ranksBefore orders by priority descending, then id ascending.
func ranksBefore(pi int, idi ID, pj int, idj ID) bool {
	if pi != pj {
		return pi > pj
	}
	return idi < idj
}
