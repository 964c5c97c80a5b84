package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapmacro/internal/macro"
	starctx "github.com/leapstack-labs/leapmacro/internal/starlark"
	"github.com/leapstack-labs/leapmacro/internal/state"
	"github.com/leapstack-labs/leapmacro/internal/verify"
	pkgmacro "github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/transform"
)

// Status of one input file.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// FileResult is the outcome of building one input file.
type FileResult struct {
	Path    string `json:"path"`
	Dialect string `json:"dialect"`
	Status  string `json:"status"`
	Output  string `json:"output,omitempty"`
	Map     string `json:"map,omitempty"`
	Assets  int    `json:"assets"`
	Cached  bool   `json:"cached,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// Err returns the failure, if any.
func (r *FileResult) Err() error { return r.err }

func (r *FileResult) fail(err error) {
	r.Status = StatusFailed
	r.Error = err.Error()
	r.err = err
}

// BuildOptions controls a build.
type BuildOptions struct {
	Write        bool // write outputs under OutDir
	OutDir       string
	SourceMaps   bool
	Verify       bool
	SkipUnmarked bool // pass through files without a macro import

	// Cache, when set, serves unchanged files from earlier builds and
	// records this build.
	Cache *state.Store
}

// cacheVersion is mixed into every cache key. Bump it when the generated
// code changes for the same input.
const cacheVersion = "leapmacro-cache-2"

// buildCache carries the per-build cache state shared by all files.
type buildCache struct {
	store   *state.Store
	build   *state.Build
	digest  string
	options string
}

// Build transforms files concurrently through a pool sized by the workers
// setting. Per-file failures are recorded in the results; the error is only
// set when the build itself was cancelled.
func (c *CommandContext) Build(ctx context.Context, cb pkgmacro.Callback, files []string, opts BuildOptions) ([]*FileResult, error) {
	pool := transform.NewPool(c.Cfg.Workers, c.TransformOptions(c.Renderer.ErrOut())...)
	defer pool.Wait()

	bc, err := c.openBuildCache(ctx, opts)
	if err != nil {
		return nil, err
	}

	results := make([]*FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)

	for i, path := range files {
		res := &FileResult{Path: displayName(path)}
		results[i] = res
		g.Go(func() error {
			c.buildFile(gctx, pool, cb, bc, path, res, opts)
			return gctx.Err()
		})
	}

	err = g.Wait()
	if bc != nil {
		if ferr := bc.store.FinishBuild(context.WithoutCancel(ctx), bc.build.ID, countResults(results)); ferr != nil {
			c.Logger.Warn("failed to record build", "error", ferr)
		}
	}
	if err != nil {
		return results, err
	}
	return results, nil
}

// openBuildCache starts a cached build, or returns nil when caching is off.
// The macros digest is taken once so every file of the build sees the same
// macro state.
func (c *CommandContext) openBuildCache(ctx context.Context, opts BuildOptions) (*buildCache, error) {
	if opts.Cache == nil {
		return nil, nil
	}
	digest, err := macro.NewLoader(c.Cfg.MacrosDir).Digest()
	if err != nil {
		return nil, err
	}
	build, err := opts.Cache.StartBuild(ctx)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("build started", "id", build.ID, "macros_digest", digest)
	return &buildCache{
		store:   opts.Cache,
		build:   build,
		digest:  digest,
		options: fmt.Sprintf("sources_content=%t", c.Cfg.SourcesContent),
	}, nil
}

func (bc *buildCache) key(res *FileResult, code string) string {
	return state.Key(cacheVersion, bc.options, bc.digest, res.Dialect, res.Path, code)
}

func (c *CommandContext) buildFile(ctx context.Context, pool *transform.Pool, cb pkgmacro.Callback, bc *buildCache, path string, res *FileResult, opts BuildOptions) {
	d := c.DialectFor(path)
	res.Dialect = d.Name

	data, err := os.ReadFile(path) //nolint:gosec // G304: input files are named by the user
	if err != nil {
		res.fail(err)
		return
	}
	code := string(data)

	var outCode, outMap, key string
	var assets []starctx.Asset
	var entry *state.Entry
	if bc != nil {
		key = bc.key(res, code)
		if entry, err = bc.store.Lookup(ctx, key); err != nil {
			c.Logger.Warn("cache lookup failed", "file", res.Path, "error", err)
			entry = nil
		}
	}

	switch {
	case opts.SkipUnmarked && !transform.HasMacroImport(code):
		res.Status = StatusSkipped
		outCode = code
	case entry != nil:
		res.Status = StatusOK
		res.Cached = true
		outCode, outMap = entry.Code, entry.Map
		for _, a := range entry.Assets {
			assets = append(assets, starctx.Asset{ID: a.ID, Type: a.Type, Content: a.Content})
		}
		res.Assets = len(assets)
		c.Logger.Debug("cache hit", "file", res.Path, "build", entry.BuildID)
	default:
		sink := starctx.NewAssetSink()
		fctx := starctx.WithAssetSink(ctx, sink)
		r, err := pool.Submit(fctx, d, code, cb, transform.WithFilename(res.Path)).Wait(ctx)
		if err != nil {
			res.fail(err)
			return
		}
		res.Status = StatusOK
		outCode, outMap = r.Code, r.Map
		// Each asset carries a map back to the macro call that emitted it.
		assets = sink.Assets()
		for i := range assets {
			if assets[i].Content, err = assets[i].WithSourceMap(res.Path, code); err != nil {
				res.fail(fmt.Errorf("asset %s: %w", assets[i].ID, err))
				return
			}
		}
		res.Assets = len(assets)
	}

	if opts.Verify {
		if err := verify.Check(d, res.Path, outCode); err != nil {
			res.fail(err)
			return
		}
	}

	if bc != nil && res.Status == StatusOK && !res.Cached {
		e := &state.Entry{Key: key, Path: res.Path, Code: outCode, Map: outMap, BuildID: bc.build.ID}
		for _, a := range assets {
			e.Assets = append(e.Assets, state.Asset{ID: a.ID, Type: a.Type, Content: a.Content})
		}
		if err := bc.store.Save(ctx, e); err != nil {
			c.Logger.Warn("failed to cache output", "file", res.Path, "error", err)
		}
	}

	if !opts.Write {
		return
	}

	out := outputPath(opts.OutDir, path, res.Path)
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		res.fail(err)
		return
	}

	// Assets sit at the root of the output directory, shared by every file
	// that emits the same content.
	imports, err := assetImports(out, opts.OutDir, assets)
	if err != nil {
		res.fail(err)
		return
	}
	outCode += imports

	if opts.SourceMaps && outMap != "" {
		mapPath := out + ".map"
		if err := os.WriteFile(mapPath, []byte(outMap), 0o644); err != nil { //nolint:gosec // G306: build output is world readable
			res.fail(err)
			return
		}
		outCode += "//# sourceMappingURL=" + filepath.Base(mapPath) + "\n"
		res.Map = mapPath
	}
	if err := os.WriteFile(out, []byte(outCode), 0o644); err != nil { //nolint:gosec // G306: build output is world readable
		res.fail(err)
		return
	}
	res.Output = out

	for _, a := range assets {
		if err := os.WriteFile(filepath.Join(opts.OutDir, a.ID), []byte(a.Content), 0o644); err != nil { //nolint:gosec // G306: build output is world readable
			res.fail(fmt.Errorf("asset %s: %w", a.ID, err))
			return
		}
	}
}

// assetImports returns one side-effect import per asset, relative to the
// output file out.
func assetImports(out, outDir string, assets []starctx.Asset) (string, error) {
	var b strings.Builder
	for _, a := range assets {
		rel, err := filepath.Rel(filepath.Dir(out), filepath.Join(outDir, a.ID))
		if err != nil {
			return "", fmt.Errorf("asset %s: %w", a.ID, err)
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, "../") {
			rel = "./" + rel
		}
		b.WriteString("import " + pkgmacro.Quote(rel) + ";\n")
	}
	return b.String(), nil
}

// outputPath mirrors name below outDir, or uses the base name for inputs
// outside the working directory.
func outputPath(outDir, path, name string) string {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		rel = filepath.Base(path)
	}
	return filepath.Join(outDir, rel)
}

// countResults tallies results for the build record.
func countResults(results []*FileResult) state.Counts {
	counts := state.Counts{Files: len(results)}
	for _, r := range results {
		switch {
		case r == nil:
		case r.Status == StatusOK && r.Cached:
			counts.Cached++
		case r.Status == StatusOK:
			counts.OK++
		case r.Status == StatusSkipped:
			counts.Skipped++
		case r.Status == StatusFailed:
			counts.Failed++
		}
	}
	return counts
}

// summarize counts results by status and returns an error when any failed.
func summarize(results []*FileResult) (ok, skipped, failed int, err error) {
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			ok++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	if failed > 0 {
		err = fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return ok, skipped, failed, err
}

// diagnosticText returns the rendered report of a transform failure, or the
// error text for anything else.
func diagnosticText(err error) string {
	var terr *transform.Error
	if errors.As(err, &terr) {
		return terr.Text
	}
	return err.Error() + "\n"
}
