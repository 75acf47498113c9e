package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wantManifestPrefix = "\n[package]\nname = \"helloworld\"\n"

const wantProgram = "\nfn main() {\n    println!(\"Hello, world! from web\");\n}"

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	verbose = false
	configPath = ""
	packageName = ""
	t.Setenv("DEMOKIT_PACKAGE_NAME", "")
	t.Setenv("DEMOKIT_LOG_LEVEL", "")
	t.Setenv("DEMOKIT_DELAY_MODE", "")

	var stdout, stderr bytes.Buffer
	code := execute(append([]string{"prog"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRewrite_PreExistingEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "Cargo.toml")
	program := filepath.Join(dir, "main.rs")
	require.NoError(t, os.WriteFile(manifest, nil, 0644))
	require.NoError(t, os.WriteFile(program, nil, 0644))

	code, stdout, _ := run(t, manifest, program)

	require.Equal(t, 0, code)
	assert.Equal(t, "rewrite!\n", stdout)

	got, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), wantManifestPrefix), string(got))
	assert.True(t, strings.HasSuffix(string(got), "strip = \"symbols\"\n"), string(got))

	got, err = os.ReadFile(program)
	require.NoError(t, err)
	assert.Equal(t, wantProgram, string(got))
}

func TestRewrite_TooFewArguments(t *testing.T) {
	for _, args := range [][]string{nil, {"only-one"}} {
		dir := t.TempDir()
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))

		code, stdout, stderr := run(t, args...)

		require.NoError(t, os.Chdir(wd))
		assert.Equal(t, 1, code)
		assert.Empty(t, stdout)
		assert.Equal(t, "Usage: prog <manifest> <program>\n", stderr)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "no files may be created")
	}
}

func TestRewrite_ExtraArgumentsIgnored(t *testing.T) {
	dir := t.TempDir()
	extra := filepath.Join(dir, "extra")

	code, _, _ := run(t, filepath.Join(dir, "Cargo.toml"), filepath.Join(dir, "main.rs"), extra)

	require.Equal(t, 0, code)
	_, err := os.Stat(extra)
	assert.True(t, os.IsNotExist(err))
}

func TestRewrite_UnwritableFirstPath(t *testing.T) {
	dir := t.TempDir()
	program := filepath.Join(dir, "main.rs")

	code, stdout, stderr := run(t, filepath.Join(dir, "nope", "Cargo.toml"), program)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "scaffold open")

	_, err := os.Stat(program)
	assert.True(t, os.IsNotExist(err))
}

func TestRewrite_NameFlag(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "Cargo.toml")

	code, _, _ := run(t, "--name", "greeter", manifest, filepath.Join(dir, "main.rs"))
	require.Equal(t, 0, code)

	got, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(got), `name = "greeter"`)
}

func TestRewrite_ConfigPackageName(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "demokit.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("scaffold:\n  package_name: fromconfig\n"), 0644))
	manifest := filepath.Join(dir, "Cargo.toml")

	code, _, stderr := run(t, "--config", cfgFile, manifest, filepath.Join(dir, "main.rs"))
	require.Equal(t, 0, code, stderr)

	got, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(got), `name = "fromconfig"`)
}

func TestRewrite_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "demokit.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("logging:\n  level: shouty\n"), 0644))
	manifest := filepath.Join(dir, "Cargo.toml")

	code, _, stderr := run(t, "--config", cfgFile, manifest, filepath.Join(dir, "main.rs"))

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid config")
	_, err := os.Stat(manifest)
	assert.True(t, os.IsNotExist(err))
}
