// Package identity maps source-reported team and player names onto stable
// canonical ids. Resolution is a pure lookup against an alias table that is
// seeded at construction and extended out of band (config, ops tooling).
package identity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lineview/odds-aggregator/internal/models"
)

// Resolver resolves free-text entity names to canonical ids.
//
// Lookup order: source-specific alias table, global alias table, then a
// case-insensitive containment fallback. The fallback fails with Ambiguous
// when the fragment matches more than one canonical entity; a short fragment
// like "LA" must never silently pick one of two concurrently-playing teams.
type Resolver struct {
	aliases   map[string]string            // normalized alias -> canonical id
	bySource  map[string]map[string]string // source id -> normalized alias -> canonical id
	canonical map[string]string            // canonical id -> display name
	logger    zerolog.Logger
}

// NewResolver creates a resolver seeded with the NBA team table.
func NewResolver(logger zerolog.Logger) *Resolver {
	r := &Resolver{
		aliases:   make(map[string]string),
		bySource:  make(map[string]map[string]string),
		canonical: make(map[string]string),
		logger:    logger.With().Str("component", "identity_resolver").Logger(),
	}

	for name, id := range nbaTeams {
		r.RegisterEntity(id, name)
		// Nickname ("Lakers") is unique across the league, safe as an alias.
		parts := strings.Fields(name)
		r.RegisterAlias(parts[len(parts)-1], id)
	}
	for alias, id := range nbaExtraAliases {
		r.RegisterAlias(alias, id)
	}

	return r
}

// RegisterEntity registers a canonical id with its display name. The id and
// display name both become aliases for the entity.
func (r *Resolver) RegisterEntity(id, displayName string) {
	r.canonical[id] = displayName
	r.aliases[normalize(id)] = id
	r.aliases[normalize(displayName)] = id
}

// RegisterAlias adds a global alias for a canonical id.
func (r *Resolver) RegisterAlias(alias, id string) {
	r.aliases[normalize(alias)] = id
}

// RegisterSourceAlias adds an alias that applies only to one source. Source
// tables win over the global table, so a source's quirky label can be pinned
// without widening the global match surface.
func (r *Resolver) RegisterSourceAlias(sourceID, alias, id string) {
	t, ok := r.bySource[sourceID]
	if !ok {
		t = make(map[string]string)
		r.bySource[sourceID] = t
	}
	t[normalize(alias)] = id
}

// Resolve maps a source-reported name to a canonical id. It returns
// models.ErrUnresolved when nothing matches and models.ErrAmbiguous when the
// containment fallback matches more than one entity.
func (r *Resolver) Resolve(name, sourceID string) (string, error) {
	frag := normalize(name)
	if frag == "" {
		return "", fmt.Errorf("%w: empty name from source %s", models.ErrUnresolved, sourceID)
	}

	if t, ok := r.bySource[sourceID]; ok {
		if id, ok := t[frag]; ok {
			return id, nil
		}
	}
	if id, ok := r.aliases[frag]; ok {
		return id, nil
	}

	return r.resolveByContainment(frag, name, sourceID)
}

// DisplayName returns the display name for a canonical id, or the id itself
// when unknown.
func (r *Resolver) DisplayName(id string) string {
	if name, ok := r.canonical[id]; ok {
		return name
	}
	return id
}

// resolveByContainment is the fallback for labels that are not exact aliases:
// the fragment must contain an alias or be contained by one. All matching
// aliases must agree on a single canonical id.
func (r *Resolver) resolveByContainment(frag, original, sourceID string) (string, error) {
	matched := make(map[string]struct{})
	for alias, id := range r.aliases {
		if strings.Contains(frag, alias) || strings.Contains(alias, frag) {
			matched[id] = struct{}{}
		}
	}

	switch len(matched) {
	case 0:
		return "", fmt.Errorf("%w: %q from source %s", models.ErrUnresolved, original, sourceID)
	case 1:
		for id := range matched {
			r.logger.Debug().
				Str("source_id", sourceID).
				Str("name", original).
				Str("canonical_id", id).
				Msg("resolved by containment")
			return id, nil
		}
	}

	ids := make([]string, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return "", fmt.Errorf("%w: %q from source %s matches %v", models.ErrAmbiguous, original, sourceID, ids)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
