package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("PORTFOLIO_CONFIG", "")
	t.Setenv("STORE_DRIVER", "bolt")
	t.Setenv("BOLT_PATH", path)
	t.Setenv("UPLOAD_DRIVER", "local")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	seedDestroyYes = false
	adminPassword = ""
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReadFixture(t *testing.T) {
	f, err := readFixture(filepath.Join("testdata", "seed.yaml"))
	require.NoError(t, err)
	assert.Len(t, f.Projects, 2)
	assert.Len(t, f.Skills, 3)
	assert.Equal(t, "Alex Doe", f.About["name"])

	_, err = readFixture(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedImportAndDestroy(t *testing.T) {
	path := useTempStore(t)

	out, err := run(t, "seed", "import", filepath.Join("testdata", "seed.yaml"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Data imported")
	assert.Contains(t, out, "skills     imported 3")

	st, err := store.NewBoltStore(path, services.Schemas()...)
	require.NoError(t, err)
	n, err := st.Count(context.Background(), models.CollProjects, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	about, err := services.AboutService{Store: st}.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, about)
	assert.Equal(t, "Full-stack developer", about.Title)
	require.NoError(t, st.Close())

	_, err = run(t, "seed", "destroy")
	assert.ErrorContains(t, err, "--yes")

	out, err = run(t, "seed", "destroy", "--yes")
	require.NoError(t, err, out)
	assert.Contains(t, out, "projects   deleted 2")
	assert.Contains(t, out, "Data destroyed")
}

func TestAdminCreate(t *testing.T) {
	useTempStore(t)

	_, err := run(t, "admin", "create", "--email", "owner@example.com")
	assert.ErrorContains(t, err, "required")

	t.Setenv("ADMIN_PASSWORD", "Sup3r-secret-pass")
	out, err := run(t, "admin", "create", "--email", "Owner@Example.com", "--name", "Owner")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Admin Owner <owner@example.com> ready")

	// Running again resets the account instead of failing on the duplicate.
	out, err = run(t, "admin", "create", "--email", "owner@example.com", "--password", "An0ther-secret-pass")
	require.NoError(t, err, out)
}
