package migrate

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0002_one_active_per_user.sql")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = parseVersion("init.sql")
	assert.Error(t, err)
	_, err = parseVersion("abc_init.sql")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsMatchAcrossDrivers(t *testing.T) {
	versions := map[string][]int{}
	for name, d := range dialects {
		files, err := fs.Glob(migrationsFS, d.dir+"/*.sql")
		require.NoError(t, err)
		require.NotEmpty(t, files, name)
		for _, f := range files {
			v, err := parseVersion(f[len(d.dir)+1:])
			require.NoError(t, err, f)
			versions[name] = append(versions[name], v)
		}
	}
	assert.Equal(t, versions["mysql"], versions["postgres"])
}

func TestRunRejectsUnknownDriver(t *testing.T) {
	err := Run(t.Context(), "sqlite", "", nil)
	assert.ErrorContains(t, err, "unsupported driver")
}
