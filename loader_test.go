package extload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLibName = "_zero_out_ops.so"

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o600))
}

// existsLoad succeeds with a fixed handle for every path that exists.
func existsLoad(path string) (Handle, error) {
	if err := checkCandidate(path); err != nil {
		return 0, err
	}
	return Handle(1), nil
}

// recordingLoad wraps fn and records every path it is called with.
type recordingLoad struct {
	mu    sync.Mutex
	paths []string
	fn    LoadFunc
}

func (r *recordingLoad) load(path string) (Handle, error) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	return r.fn(path)
}

func testRegistry(fn LoadFunc) *KindRegistry {
	registry := &KindRegistry{}
	registry.Register(OpKernel, fn)
	registry.Register(FilesystemPlugin, func(path string) (Handle, error) {
		_, err := fn(path)
		return 0, err
	})
	registry.Register(SharedLibrary, fn)
	return registry
}

func newTestLoader(moduleDir string, env MapEnvironment, opts ...Option) *Loader {
	base := []Option{
		WithEnvironment(env),
		WithPackageRoot(filepath.Dir(moduleDir)),
		WithRegistry(testRegistry(existsLoad)),
	}
	return NewLoader(moduleDir, append(base, opts...)...)
}

func TestLoadSelectsBareFileWhenVariantMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, testLibName))

	loader := newTestLoader(dir, MapEnvironment{"SO_SUFFIX": ".x"})

	candidates, variant := loader.Candidates(testLibName)
	assert.Equal(t, Variant(".x"), variant)
	if diff := cmp.Diff([]string{filepath.Join(dir, testLibName)}, candidates); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}

	lib, err := loader.LoadOpKernel(testLibName)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, testLibName), lib.Path)
	assert.Equal(t, Variant(".x"), lib.Variant)
	assert.Empty(t, lib.Attempts)
}

func TestLoadPrefersVariantFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, testLibName))
	writeFile(t, filepath.Join(dir, testLibName+".x"))

	rec := &recordingLoad{fn: existsLoad}
	loader := newTestLoader(dir, MapEnvironment{"SO_SUFFIX": ".x"}, WithRegistry(testRegistry(rec.load)))

	lib, err := loader.LoadOpKernel(testLibName)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, testLibName+".x"), lib.Path)
	assert.Equal(t, []string{filepath.Join(dir, testLibName+".x")}, rec.paths)
}

func TestLoadWithoutDataRootHasOneCandidate(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader(dir, MapEnvironment{})

	candidates, variant := loader.Candidates(testLibName)
	assert.Equal(t, VariantDefault, variant)
	assert.Len(t, candidates, 1)
}

func TestLoadEmptyDataRootIsIgnored(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader(dir, MapEnvironment{"TFPLUS_DATAPATH": ""})

	candidates, _ := loader.Candidates(testLibName)
	assert.Len(t, candidates, 1)
}

func TestLoadExhaustedListsEveryAttempt(t *testing.T) {
	root := t.TempDir()
	moduleDir := filepath.Join(root, "pkg", "ops")
	dataRoot := filepath.Join(root, "bazel-bin")
	require.NoError(t, os.MkdirAll(moduleDir, 0o755))

	loader := NewLoader(moduleDir,
		WithEnvironment(MapEnvironment{"TFPLUS_DATAPATH": dataRoot}),
		WithPackageRoot(root),
		WithRegistry(testRegistry(existsLoad)),
	)

	_, err := loader.LoadOpKernel(testLibName)
	require.Error(t, err)

	var exhausted *ResolutionExhaustedError
	require.True(t, errors.As(err, &exhausted), "expected ResolutionExhaustedError, got %T", err)
	assert.Equal(t, testLibName, exhausted.Name)
	require.Len(t, exhausted.Attempts, 2)

	want := []string{
		filepath.Join(moduleDir, testLibName),
		filepath.Join(dataRoot, "pkg", "ops", testLibName),
	}
	if diff := cmp.Diff(want, exhausted.Paths()); diff != "" {
		t.Fatalf("attempted paths mismatch (-want +got):\n%s", diff)
	}
	for _, a := range exhausted.Attempts {
		var notFound *NotFoundError
		assert.True(t, errors.As(a.Err, &notFound), "attempt %s: expected NotFoundError, got %v", a.Path, a.Err)
	}
	assert.Contains(t, err.Error(), "unable to open file: "+testLibName)
	assert.True(t, IsNotFound(err))
}

func TestLoadFatalErrorStopsSearch(t *testing.T) {
	root := t.TempDir()
	moduleDir := filepath.Join(root, "ops")
	dataRoot := filepath.Join(root, "data")
	writeFile(t, filepath.Join(moduleDir, testLibName))
	writeFile(t, filepath.Join(dataRoot, "ops", testLibName))

	abi := errors.New("undefined symbol: _ZN10tensorflow8OpKernelD2Ev")
	rec := &recordingLoad{fn: func(path string) (Handle, error) {
		return 0, abi
	}}

	loader := NewLoader(moduleDir,
		WithEnvironment(MapEnvironment{"TFPLUS_DATAPATH": dataRoot}),
		WithPackageRoot(root),
		WithRegistry(testRegistry(rec.load)),
	)

	_, err := loader.LoadOpKernel(testLibName)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr), "expected LoadError, got %T", err)
	assert.Equal(t, filepath.Join(moduleDir, testLibName), loadErr.Path)
	assert.ErrorIs(t, err, abi)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, []string{filepath.Join(moduleDir, testLibName)}, rec.paths)
}

func TestLoadFallsBackToDataRoot(t *testing.T) {
	root := t.TempDir()
	moduleDir := filepath.Join(root, "ops")
	dataRoot := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(moduleDir, 0o755))
	writeFile(t, filepath.Join(dataRoot, "ops", testLibName+".pai"))

	loader := NewLoader(moduleDir,
		WithEnvironment(MapEnvironment{"TFPLUS_DATAPATH": dataRoot}),
		WithPackageRoot(root),
		WithProbes(Static(true), Static(false), Static(false)),
		WithRegistry(testRegistry(existsLoad)),
	)

	lib, err := loader.LoadOpKernel(testLibName)
	require.NoError(t, err)
	assert.Equal(t, VariantPAI, lib.Variant)
	assert.Equal(t, filepath.Join(dataRoot, "ops", testLibName+".pai"), lib.Path)
	require.Len(t, lib.Attempts, 1)
	assert.Equal(t, filepath.Join(moduleDir, testLibName), lib.Attempts[0].Path)
}

func TestLoadFilesystemPluginNeedsNoHandle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_oss_ops.so"))

	loader := newTestLoader(dir, MapEnvironment{})

	lib, err := loader.LoadFilesystemPlugin("_oss_ops.so")
	require.NoError(t, err)
	assert.Equal(t, Handle(0), lib.Handle)
	assert.Equal(t, FilesystemPlugin, lib.Kind)
}

func TestLoadOpKernelZeroHandleIsRecorded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, testLibName))

	loader := newTestLoader(dir, MapEnvironment{})

	_, err := loader.Load(Request{
		Name: testLibName,
		Kind: OpKernel,
		LoadFunc: func(string) (Handle, error) {
			return 0, nil
		},
	})

	var exhausted *ResolutionExhaustedError
	require.True(t, errors.As(err, &exhausted), "expected ResolutionExhaustedError, got %v", err)
	require.Len(t, exhausted.Attempts, 1)
	assert.ErrorIs(t, exhausted.Attempts[0].Err, ErrNoHandle)
}

func TestLoadRequestLoadFuncOverridesRegistry(t *testing.T) {
	dir := t.TempDir()
	registry := &KindRegistry{}
	registry.Register(OpKernel, func(string) (Handle, error) {
		return 0, errors.New("registry loader must not be used")
	})

	loader := newTestLoader(dir, MapEnvironment{}, WithRegistry(registry))

	lib, err := loader.Load(Request{
		Name: testLibName,
		Kind: OpKernel,
		LoadFunc: func(string) (Handle, error) {
			return Handle(42), nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Handle(42), lib.Handle)
}

func TestLoadUnregisteredKind(t *testing.T) {
	loader := newTestLoader(t.TempDir(), MapEnvironment{}, WithRegistry(&KindRegistry{}))

	_, err := loader.LoadSharedLibrary("libzdfs.so")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no loader registered")
}

func TestLoadResolvesVariantOnce(t *testing.T) {
	root := t.TempDir()
	moduleDir := filepath.Join(root, "ops")
	require.NoError(t, os.MkdirAll(moduleDir, 0o755))

	var calls int
	resolver := ResolverFunc(func(Environment) Variant {
		calls++
		return Variant(".v" + string(rune('0'+calls)))
	})

	loader := NewLoader(moduleDir,
		WithEnvironment(MapEnvironment{"TFPLUS_DATAPATH": filepath.Join(root, "data")}),
		WithPackageRoot(root),
		WithResolver(resolver),
		WithRegistry(testRegistry(existsLoad)),
	)

	_, err := loader.LoadOpKernel(testLibName)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestLoadLogsEvents(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, testLibName))

	var events []LoadEvent
	loader := newTestLoader(dir, MapEnvironment{}, WithLogger(LoggerFunc(func(e LoadEvent) {
		events = append(events, e)
	})))

	lib, err := loader.LoadOpKernel(testLibName)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, StageAttempt, events[0].Stage)
	assert.Equal(t, StageLoaded, events[1].Stage)
	assert.NotEmpty(t, lib.LoadID)
	for _, e := range events {
		assert.Equal(t, lib.LoadID, e.LoadID)
		assert.Equal(t, testLibName, e.Name)
	}
}

func TestLoadAllStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.so"))
	writeFile(t, filepath.Join(dir, "c.so"))

	loader := newTestLoader(dir, MapEnvironment{})
	requests := []Request{
		{Name: "a.so", Kind: OpKernel},
		{Name: "b.so", Kind: OpKernel},
		{Name: "c.so", Kind: OpKernel},
	}

	results, err := loader.LoadAll(context.Background(), requests, true)
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.True(t, IsNotFound(results[1].Err))

	results, err = loader.LoadAll(context.Background(), requests, false)
	require.Error(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, filepath.Join(dir, "c.so"), results[2].Library.Path)
}

func TestLoadAllHonoursCancellation(t *testing.T) {
	loader := newTestLoader(t.TempDir(), MapEnvironment{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := loader.LoadAll(ctx, []Request{{Name: "a.so"}, {Name: "b.so"}}, false)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestLoadConcurrentlyKeepsRequestOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.so", "b.so", "c.so", "d.so"}
	var requests []Request
	for _, name := range names {
		writeFile(t, filepath.Join(dir, name))
		requests = append(requests, Request{Name: name, Kind: OpKernel})
	}

	loader := newTestLoader(dir, MapEnvironment{})

	results, err := loader.LoadConcurrently(context.Background(), requests, 2)
	require.NoError(t, err)
	require.Len(t, results, len(names))
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, names[i], res.Request.Name)
		assert.Equal(t, filepath.Join(dir, names[i]), res.Library.Path)
	}
}

func TestLoadConcurrentlyReportsFirstError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.so"))

	loader := newTestLoader(dir, MapEnvironment{})

	results, err := loader.LoadConcurrently(context.Background(), []Request{
		{Name: "a.so", Kind: OpKernel},
		{Name: "missing.so", Kind: OpKernel},
	}, 1)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
}

func TestNewLoaderDefaults(t *testing.T) {
	loader := NewLoader("/opt/ops")

	assert.Equal(t, "/opt/ops", loader.ModuleDir())
	assert.Equal(t, DefaultDataRootEnv, loader.dataRootEnv)
	assert.Equal(t, []LoaderKind{OpKernel, FilesystemPlugin, SharedLibrary}, loader.registry.Kinds())

	chain, ok := loader.resolver.(*ChainResolver)
	require.True(t, ok)
	assert.Equal(t, DefaultSuffixEnv, chain.SuffixEnv)
}
