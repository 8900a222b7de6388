package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/persistence"
	"github.com/jonathan/cv-builder/internal/server"
	"github.com/jonathan/cv-builder/internal/storage"
)

const adaCV = `{
  "personalInfo": {"name": "Ada Lovelace", "email": "ada@example.com"},
  "summary": "Analyst of engines",
  "skills": [{"name": "Go", "level": "Advanced"}]
}`

// resetFlags restores every flag of cmd and its children to its default so
// package-level flag variables do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// runCLI executes the root command against store and returns stdout.
func runCLI(t *testing.T, store string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--store", store, "--log-mode", "prod"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempStore(t *testing.T) (url, path string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "cv.db")
	return "sqlite://" + path, path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestListEmpty(t *testing.T) {
	store, _ := tempStore(t)
	out, err := runCLI(t, store, "list")
	require.NoError(t, err)
	assert.Equal(t, "No saved documents\n", out)
}

func TestImportSaveListShowExportDelete(t *testing.T) {
	store, _ := tempStore(t)
	input := writeFile(t, "ada.json", adaCV)

	out, err := runCLI(t, store, "import", input, "--save-as", "Ada")
	require.NoError(t, err)
	assert.Contains(t, out, `as "Ada"`)

	out, err = runCLI(t, store, "list")
	require.NoError(t, err)
	assert.Equal(t, "* Ada\n", out)

	out, err = runCLI(t, store, "show", "Ada")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Ada Lovelace"`)
	assert.Contains(t, out, `"level": "Advanced"`)

	dir := t.TempDir()
	out, err = runCLI(t, store, "export", "Ada", "--format", "tex", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "CV_Ada_Lovelace.tex")
	data, err := os.ReadFile(filepath.Join(dir, "CV_Ada_Lovelace.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `\documentclass`)

	named := filepath.Join(dir, "nested", "mine.txt")
	_, err = runCLI(t, store, "export", "Ada", "-f", "txt", "-o", named)
	require.NoError(t, err)
	data, err = os.ReadFile(named)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ada Lovelace")

	out, err = runCLI(t, store, "delete", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Deleted \"Ada\" (0 remaining)\n", out)

	out, err = runCLI(t, store, "list")
	require.NoError(t, err)
	assert.Equal(t, "No saved documents\n", out)
}

func TestImportWithoutSavePrintsJSON(t *testing.T) {
	store, _ := tempStore(t)
	input := writeFile(t, "ada.json", adaCV)

	out, err := runCLI(t, store, "import", input)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{\n"))
	assert.Contains(t, out, `"summary": "Analyst of engines"`)

	out, err = runCLI(t, store, "list")
	require.NoError(t, err)
	assert.Equal(t, "No saved documents\n", out)
}

func TestImportRejectsNonCV(t *testing.T) {
	store, _ := tempStore(t)
	input := writeFile(t, "bad.json", `{"personalInfo":{"name":"Ada"}}`)

	_, err := runCLI(t, store, "import", input, "--save-as", "Ada")
	var importErr *persistence.ImportError
	require.ErrorAs(t, err, &importErr)
}

func TestShowCheck(t *testing.T) {
	store, _ := tempStore(t)
	input := writeFile(t, "ada.json", `{
  "personalInfo": {"name": "Ada", "email": "not-an-email"},
  "skills": [{"name": "Go"}]
}`)
	_, err := runCLI(t, store, "import", input, "--save-as", "Ada")
	require.NoError(t, err)

	out, err := runCLI(t, store, "show", "Ada", "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "personalInfo.email")
}

func TestShowMissing(t *testing.T) {
	store, _ := tempStore(t)
	_, err := runCLI(t, store, "show", "Nobody")
	var notFound *persistence.SnapshotNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRecover(t *testing.T) {
	store, path := tempStore(t)

	out, err := runCLI(t, store, "recover")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to recover\n", out)

	raw, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, raw.Set(context.Background(), persistence.DataKey("Lost"), []byte(adaCV)))
	require.NoError(t, raw.Close())

	out, err = runCLI(t, store, "recover")
	require.NoError(t, err)
	assert.Equal(t, "Recovered Lost\n", out)

	out, err = runCLI(t, store, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Lost")
}

func TestToken(t *testing.T) {
	store, _ := tempStore(t)

	t.Run("disabled without secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := runCLI(t, store, "token")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET is not set")
	})

	t.Run("signed with secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "cli-test-secret-key")
		out, err := runCLI(t, store, "token", "--subject", "ada")
		require.NoError(t, err)

		svc := server.NewJWTService(&config.JWTConfig{Secret: "cli-test-secret-key", ExpirationHours: 1})
		claims, err := svc.ValidateToken(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, "ada", claims.Subject)
	})
}

func TestBadStoreURL(t *testing.T) {
	_, err := runCLI(t, "ftp://nowhere", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store_url")
}

func TestExportUnknownFormat(t *testing.T) {
	store, _ := tempStore(t)
	_, err := runCLI(t, store, "export", "Ada", "--format", "docx")
	require.Error(t, err)
}
