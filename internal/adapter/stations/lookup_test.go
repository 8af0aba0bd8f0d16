package stations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogCSV = `State,County,Station Name,Station WMO Identifier
NY,New York,NEW YORK CENTRAL PARK,725300
MN,Hennepin,MINNEAPOLIS-ST PAUL,726580
MN,Ramsey,MINNEAPOLIS-ST PAUL,726580
WA,,UNKNOWN SITE,
`

func TestLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalogCSV), 0o644))

	lookup, err := NewLookup(path)
	require.NoError(t, err)

	loc, ok := lookup.Find(725300)
	require.True(t, ok)
	assert.Equal(t, Location{State: "NY", County: "New York"}, loc)

	// First county wins when a station spans several.
	loc, ok = lookup.Find(726580)
	require.True(t, ok)
	assert.Equal(t, "Hennepin", loc.County)

	_, ok = lookup.Find(999999)
	assert.False(t, ok)
}

func TestLookupMissingFile(t *testing.T) {
	_, err := NewLookup(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
