package commands

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/leapstack-labs/leapmacro/internal/cli/testutil"
	starctx "github.com/leapstack-labs/leapmacro/internal/starlark"
	"github.com/leapstack-labs/leapmacro/internal/state"
	pkgmacro "github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/sourcemap"
	"github.com/leapstack-labs/leapmacro/pkg/transform"
)

func upperRequest(s string) *pkgmacro.Request {
	return &pkgmacro.Request{
		Macro: pkgmacro.Identity{Source: "./styles", Export: "upper"},
		Args:  []pkgmacro.Value{pkgmacro.String(s)},
	}
}

// buildProject builds files from a fresh test project and returns the
// project directory and results.
func buildProject(t *testing.T, files []string, opts BuildOptions) (string, []*FileResult, *clitestutil.TestRenderer) {
	t.Helper()
	dir := clitestutil.SetupTestProject(t)
	t.Chdir(dir)

	cmdCtx, tr := newTestContext(t, dir)
	if opts.OutDir == "" {
		opts.OutDir = cmdCtx.Cfg.OutDir
	}
	host, stop := cmdCtx.StartHost(context.Background())
	defer stop()

	results, err := cmdCtx.Build(context.Background(), host, files, opts)
	require.NoError(t, err)
	require.Len(t, results, len(files))
	return dir, results, tr
}

func TestBuild_Write(t *testing.T) {
	dir, results, _ := buildProject(t, []string{"src/app.js"}, BuildOptions{Write: true, SourceMaps: true})

	res := results[0]
	require.Equal(t, StatusOK, res.Status, res.Error)
	assert.Equal(t, "src/app.js", res.Path)
	assert.Equal(t, "js", res.Dialect)

	out := filepath.Join(dir, "dist", "src", "app.js")
	assert.Equal(t, out, res.Output)
	assert.Equal(t, out+".map", res.Map)

	code, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"export const cls = \"c-10\";\nexport const name = \"APP\";\n//# sourceMappingURL=app.js.map\n",
		string(code))

	sourceMap, err := os.ReadFile(out + ".map")
	require.NoError(t, err)
	assert.Contains(t, string(sourceMap), `"version":3`)
	assert.Contains(t, string(sourceMap), `"src/app.js"`)
}

func TestBuild_NoSourceMaps(t *testing.T) {
	dir, results, _ := buildProject(t, []string{"src/app.js"}, BuildOptions{Write: true})

	require.Equal(t, StatusOK, results[0].Status)
	assert.Empty(t, results[0].Map)

	code, err := os.ReadFile(filepath.Join(dir, "dist", "src", "app.js"))
	require.NoError(t, err)
	assert.NotContains(t, string(code), "sourceMappingURL")
	assert.NoFileExists(t, filepath.Join(dir, "dist", "src", "app.js.map"))
}

func TestBuild_DryRun(t *testing.T) {
	dir, results, _ := buildProject(t, []string{"src/app.js", "src/plain.js"}, BuildOptions{Verify: true})

	for _, res := range results {
		assert.Equal(t, StatusOK, res.Status, res.Path)
		assert.Empty(t, res.Output)
	}
	assert.NoDirExists(t, filepath.Join(dir, "dist"))
}

func TestBuild_SkipUnmarked(t *testing.T) {
	dir, results, _ := buildProject(t, []string{"src/plain.js", "src/app.js"}, BuildOptions{Write: true, SkipUnmarked: true})

	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, StatusOK, results[1].Status)

	code, err := os.ReadFile(filepath.Join(dir, "dist", "src", "plain.js"))
	require.NoError(t, err)
	assert.Equal(t, "export const x = 1;\n", string(code))
}

func TestBuild_Failures(t *testing.T) {
	_, results, _ := buildProject(t, []string{"src/broken.js", "src/missing.js", "src/app.js"}, BuildOptions{})

	broken := results[0]
	assert.Equal(t, StatusFailed, broken.Status)
	var terr *transform.Error
	require.True(t, errors.As(broken.Err(), &terr))
	assert.Contains(t, terr.Text, "broken macro")
	assert.Contains(t, terr.Text, "src/broken.js")

	missing := results[1]
	assert.Equal(t, StatusFailed, missing.Status)
	assert.ErrorIs(t, missing.Err(), os.ErrNotExist)

	assert.Equal(t, StatusOK, results[2].Status)

	ok, skipped, failed, err := summarize(results)
	assert.Equal(t, []int{1, 0, 2}, []int{ok, skipped, failed})
	assert.EqualError(t, err, "2 of 3 files failed")
}

func TestBuild_Assets(t *testing.T) {
	dir := clitestutil.SetupTestProject(t)
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "macros", "sheet.star"), []byte(`
def sheet(rules):
    return add_asset("css", rules)
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "sheet.ts"), []byte(`import { sheet } from "./sheet" with { type: "macro" };
export const a: string = sheet("a { color: red }");
export const b: string = sheet("a { color: red }");
`), 0o600))

	cmdCtx, _ := newTestContext(t, dir)
	host, stop := cmdCtx.StartHost(context.Background())
	defer stop()

	results, err := cmdCtx.Build(context.Background(), host, []string{"src/sheet.ts"}, BuildOptions{
		Write:  true,
		OutDir: cmdCtx.Cfg.OutDir,
	})
	require.NoError(t, err)
	res := results[0]
	require.Equal(t, StatusOK, res.Status, res.Error)
	assert.Equal(t, "ts", res.Dialect)
	assert.Equal(t, 1, res.Assets)

	entries, err := os.ReadDir(cmdCtx.Cfg.OutDir)
	require.NoError(t, err)
	var assets []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "macro-") {
			assets = append(assets, e.Name())
		}
	}
	require.Len(t, assets, 1)
	assert.True(t, strings.HasSuffix(assets[0], ".css"))

	content, err := os.ReadFile(filepath.Join(cmdCtx.Cfg.OutDir, assets[0]))
	require.NoError(t, err)
	const mapPrefix = "a { color: red }\n/*# sourceMappingURL=data:application/json;charset=utf-8;base64,"
	require.True(t, strings.HasPrefix(string(content), mapPrefix), string(content))
	require.True(t, strings.HasSuffix(string(content), " */"), string(content))

	data, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(strings.TrimPrefix(string(content), mapPrefix), " */"))
	require.NoError(t, err)
	m, err := sourcemap.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/sheet.ts"}, m.Sources)
	segs, err := m.Segments()
	require.NoError(t, err)
	// The asset maps to the first sheet call.
	assert.Equal(t, []sourcemap.Segment{{GenLine: 0, SrcLine: 1, SrcCol: 25}}, segs)

	code, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Contains(t, string(code), `export const a: string = "`+assets[0]+`";`)
	assert.True(t, strings.HasSuffix(string(code), "\nimport \"../"+assets[0]+"\";\n"), string(code))
}

func TestAssetImports(t *testing.T) {
	assets := []starctx.Asset{{ID: "macro-1.css"}, {ID: "macro-2.svg"}}

	tests := []struct {
		name string
		out  string
		want string
	}{
		{"nested", filepath.Join("dist", "src", "a.js"), "import \"../macro-1.css\";\nimport \"../macro-2.svg\";\n"},
		{"top level", filepath.Join("dist", "a.js"), "import \"./macro-1.css\";\nimport \"./macro-2.svg\";\n"},
		{"deep", filepath.Join("dist", "src", "ui", "a.js"), "import \"../../macro-1.css\";\nimport \"../../macro-2.svg\";\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := assetImports(tt.out, "dist", assets)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := assetImports(filepath.Join("dist", "a.js"), "dist", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuild_Cache(t *testing.T) {
	dir := clitestutil.SetupTestProject(t)
	t.Chdir(dir)
	cmdCtx, _ := newTestContext(t, dir)

	store, err := cmdCtx.OpenCache(context.Background())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	opts := BuildOptions{Write: true, OutDir: cmdCtx.Cfg.OutDir, SourceMaps: true, Cache: store}
	files := []string{"src/app.js", "src/broken.js"}
	build := func() []*FileResult {
		host, stop := cmdCtx.StartHost(context.Background())
		defer stop()
		results, err := cmdCtx.Build(context.Background(), host, files, opts)
		require.NoError(t, err)
		return results
	}

	first := build()
	require.Equal(t, StatusOK, first[0].Status, first[0].Error)
	assert.False(t, first[0].Cached)
	assert.Equal(t, StatusFailed, first[1].Status)

	require.NoError(t, os.RemoveAll(cmdCtx.Cfg.OutDir))
	second := build()
	assert.True(t, second[0].Cached)
	assert.Equal(t, StatusFailed, second[1].Status, "failures are never cached")

	code, err := os.ReadFile(filepath.Join(dir, "dist", "src", "app.js"))
	require.NoError(t, err)
	assert.Equal(t,
		"export const cls = \"c-10\";\nexport const name = \"APP\";\n//# sourceMappingURL=app.js.map\n",
		string(code))
	assert.FileExists(t, filepath.Join(dir, "dist", "src", "app.js.map"))

	// Editing a macro invalidates every entry.
	stylesPath := filepath.Join(dir, "macros", "styles.star")
	styles, err := os.ReadFile(stylesPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(stylesPath, append(styles, []byte("\n# edited\n")...), 0o600))
	third := build()
	assert.False(t, third[0].Cached)

	builds, err := store.RecentBuilds(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, builds, 3)
	assert.Equal(t, state.BuildFailed, builds[0].Status)
	assert.Equal(t, state.Counts{Files: 2, OK: 1, Failed: 1}, builds[0].Counts)
	assert.Equal(t, state.Counts{Files: 2, Cached: 1, Failed: 1}, builds[1].Counts)
}

func TestBuild_CacheAssets(t *testing.T) {
	dir := clitestutil.SetupTestProject(t)
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "macros", "sheet.star"), []byte(`
def sheet(rules):
    return add_asset("css", rules)
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "sheet.js"), []byte(`import { sheet } from "./sheet" with { type: "macro" };
export const a = sheet("b { color: blue }");
`), 0o600))

	cmdCtx, _ := newTestContext(t, dir)
	store, err := cmdCtx.OpenCache(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	opts := BuildOptions{Write: true, OutDir: cmdCtx.Cfg.OutDir, Cache: store}
	for i := range 2 {
		host, stop := cmdCtx.StartHost(context.Background())
		results, err := cmdCtx.Build(context.Background(), host, []string{"src/sheet.js"}, opts)
		stop()
		require.NoError(t, err)
		require.Equal(t, StatusOK, results[0].Status, results[0].Error)
		assert.Equal(t, i == 1, results[0].Cached)
		assert.Equal(t, 1, results[0].Assets)
		if i == 0 {
			require.NoError(t, os.RemoveAll(cmdCtx.Cfg.OutDir))
		}
	}

	entries, err := os.ReadDir(cmdCtx.Cfg.OutDir)
	require.NoError(t, err)
	var found bool
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".css") {
			content, err := os.ReadFile(filepath.Join(cmdCtx.Cfg.OutDir, e.Name()))
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(content), "b { color: blue }\n/*# sourceMappingURL=data:"), string(content))
			found = true

			code, err := os.ReadFile(filepath.Join(cmdCtx.Cfg.OutDir, "src", "sheet.js"))
			require.NoError(t, err)
			assert.Contains(t, string(code), "import \"../"+e.Name()+"\";\n")
		}
	}
	assert.True(t, found, "cached build should rewrite its assets")
}

func TestCountResults(t *testing.T) {
	results := sampleResults()
	results = append(results, &FileResult{Status: StatusOK, Cached: true}, nil)
	assert.Equal(t, state.Counts{Files: 5, OK: 1, Cached: 1, Skipped: 1, Failed: 1}, countResults(results))
}

func TestBuild_Cancelled(t *testing.T) {
	dir := clitestutil.SetupTestProject(t)
	t.Chdir(dir)
	cmdCtx, _ := newTestContext(t, dir)
	host, stop := cmdCtx.StartHost(context.Background())
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cmdCtx.Build(ctx, host, []string{"src/app.js"}, BuildOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		disp string
		want string
	}{
		{"relative", "src/a.js", "src/a.js", filepath.Join("dist", "src", "a.js")},
		{"outside", "/elsewhere/b.ts", "/elsewhere/b.ts", filepath.Join("dist", "b.ts")},
		{"parent", "../c.js", "../c.js", filepath.Join("dist", "c.js")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath("dist", tt.path, tt.disp))
		})
	}
}

func TestDiagnosticText(t *testing.T) {
	assert.Equal(t, "report\n", diagnosticText(&transform.Error{Text: "report\n"}))
	assert.Equal(t, "plain\n", diagnosticText(errors.New("plain")))
}
