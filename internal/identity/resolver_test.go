package identity

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineview/odds-aggregator/internal/models"
)

// setupTestResolver creates a resolver with the seeded NBA table
func setupTestResolver() *Resolver {
	return NewResolver(zerolog.Nop())
}

// TestResolve_ExactFullName tests resolution of the official team name
func TestResolve_ExactFullName(t *testing.T) {
	r := setupTestResolver()

	id, err := r.Resolve("Los Angeles Lakers", "draftkings")

	require.NoError(t, err)
	assert.Equal(t, "LAL", id)
}

// TestResolve_AliasVariantsAgree tests that different spellings of the same
// team resolve to one canonical id
func TestResolve_AliasVariantsAgree(t *testing.T) {
	r := setupTestResolver()

	full, err := r.Resolve("Los Angeles Lakers", "draftkings")
	require.NoError(t, err)

	short, err := r.Resolve("LA Lakers", "fanduel")
	require.NoError(t, err)

	nickname, err := r.Resolve("Lakers", "betmgm")
	require.NoError(t, err)

	assert.Equal(t, full, short)
	assert.Equal(t, full, nickname)
}

// TestResolve_CaseAndWhitespaceInsensitive tests label normalization
func TestResolve_CaseAndWhitespaceInsensitive(t *testing.T) {
	r := setupTestResolver()

	id, err := r.Resolve("  boston   CELTICS ", "draftkings")

	require.NoError(t, err)
	assert.Equal(t, "BOS", id)
}

// TestResolve_AmbiguousFragment tests that a fragment matching two
// concurrently-playing teams fails rather than guessing
func TestResolve_AmbiguousFragment(t *testing.T) {
	r := setupTestResolver()

	_, err := r.Resolve("Los Angeles", "draftkings")

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAmbiguous)
}

// TestResolve_AmbiguousErrorDeterministic tests that the ambiguous error
// names the candidates in a stable order
func TestResolve_AmbiguousErrorDeterministic(t *testing.T) {
	r := setupTestResolver()

	_, first := r.Resolve("Los Angeles", "draftkings")
	require.Error(t, first)
	assert.Contains(t, first.Error(), "[LAC LAL]")

	for i := 0; i < 10; i++ {
		_, err := r.Resolve("Los Angeles", "draftkings")
		require.Error(t, err)
		assert.Equal(t, first.Error(), err.Error())
	}
}

// TestResolve_Unresolved tests the no-match outcome
func TestResolve_Unresolved(t *testing.T) {
	r := setupTestResolver()

	_, err := r.Resolve("Springfield Isotopes", "draftkings")

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnresolved)
}

// TestResolve_EmptyName tests that empty labels are unresolved, not panics
func TestResolve_EmptyName(t *testing.T) {
	r := setupTestResolver()

	_, err := r.Resolve("   ", "draftkings")

	assert.ErrorIs(t, err, models.ErrUnresolved)
}

// TestResolve_SourceAliasWinsOverGlobal tests per-source alias precedence
func TestResolve_SourceAliasWinsOverGlobal(t *testing.T) {
	r := setupTestResolver()
	r.RegisterEntity("lebron-james", "LeBron James")
	r.RegisterSourceAlias("fanduel", "L. James", "lebron-james")

	id, err := r.Resolve("L. James", "fanduel")
	require.NoError(t, err)
	assert.Equal(t, "lebron-james", id)

	// Other sources do not see the pinned alias and fall through to the
	// containment fallback, which has nothing to match here.
	_, err = r.Resolve("L. James", "draftkings")
	assert.Error(t, err)
}

// TestResolve_ContainmentFallback tests the single-match containment path
func TestResolve_ContainmentFallback(t *testing.T) {
	r := setupTestResolver()

	// "Milwaukee Bucks (MIL)" is not an exact alias but contains exactly one.
	id, err := r.Resolve("Milwaukee Bucks (MIL)", "betmgm")

	require.NoError(t, err)
	assert.Equal(t, "MIL", id)
}

// TestDisplayName tests canonical id to display name mapping
func TestDisplayName(t *testing.T) {
	r := setupTestResolver()

	assert.Equal(t, "Boston Celtics", r.DisplayName("BOS"))
	assert.Equal(t, "unknown-id", r.DisplayName("unknown-id"))
}
