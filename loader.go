package extload

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Loader resolves logical library names to candidate paths and loads them.
//
// A Loader is bound to the directory of the module that owns the libraries.
// That directory is passed in explicitly rather than discovered from the
// call stack:
//
//	loader := extload.NewLoader(opsDir,
//	    extload.WithProbes(dist, gpu, xdl),
//	)
//	lib, err := loader.LoadOpKernel("_kv_variable_ops.so")
//
// # Load Pipeline
//
// Every load is a stateless pipeline:
//  1. Resolve the variant once
//  2. Build the candidate list (see Candidates)
//  3. Try each candidate in order with the kind's LoadFunc
//  4. Stop at the first success, or at the first error that is not a
//     not-found error
//  5. Report every rejected candidate when all are missing
//
// # Thread Safety
//
// A Loader holds no mutable state after construction and is safe for
// concurrent use as long as its Environment, Resolver, probes and loaders are.
type Loader struct {
	moduleDir   string
	packageRoot string
	env         Environment
	resolver    Resolver
	registry    *KindRegistry
	logger      Logger
	dataRootEnv string
}

// NewLoader creates a Loader searching moduleDir.
//
// Without options the Loader reads the process environment, honours
// SO_SUFFIX and TFPLUS_DATAPATH, resolves the default variant unless the
// override is set, and uses the platform loaders.
func NewLoader(moduleDir string, opts ...Option) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	resolver := cfg.resolver
	if resolver == nil {
		resolver = &ChainResolver{
			SuffixEnv:       cfg.suffixEnv,
			Distribution:    cfg.distribution,
			GPU:             cfg.gpu,
			OptionalPackage: cfg.optionalPackage,
		}
	}

	registry := cfg.registry
	if registry == nil {
		registry = NewKindRegistry()
	}

	packageRoot := cfg.packageRoot
	if !cfg.packageRootSet {
		packageRoot = workingDir()
	}

	return &Loader{
		moduleDir:   moduleDir,
		packageRoot: packageRoot,
		env:         cfg.env,
		resolver:    resolver,
		registry:    registry,
		logger:      cfg.logger,
		dataRootEnv: cfg.dataRootEnv,
	}
}

// ModuleDir returns the primary search directory.
func (l *Loader) ModuleDir() string {
	return l.moduleDir
}

// Variant resolves the variant for the current environment snapshot.
func (l *Loader) Variant() Variant {
	return l.resolver.Resolve(l.env)
}

// Candidates returns the ordered candidate paths for name together with the
// variant they were built for.
//
// The primary candidate is moduleDir/name with the variant suffix appended
// when that file exists. When the data-root variable is set a second
// candidate is built the same way under the data root.
func (l *Loader) Candidates(name string) ([]string, Variant) {
	variant := l.Variant()
	return l.candidatesFor(name, variant), variant
}

func (l *Loader) candidatesFor(name string, variant Variant) []string {
	return candidatePaths(locations{
		moduleDir:   l.moduleDir,
		packageRoot: l.packageRoot,
		dataRoot:    getenv(l.env, l.dataRootEnv),
	}, name, variant)
}

// LoadOpKernel loads an op-kernel library with the registered loader.
func (l *Loader) LoadOpKernel(name string) (*Library, error) {
	return l.Load(Request{Name: name, Kind: OpKernel})
}

// LoadFilesystemPlugin loads a filesystem plugin with the registered loader.
func (l *Loader) LoadFilesystemPlugin(name string) (*Library, error) {
	return l.Load(Request{Name: name, Kind: FilesystemPlugin})
}

// LoadSharedLibrary loads a dependency library with the registered loader.
func (l *Loader) LoadSharedLibrary(name string) (*Library, error) {
	return l.Load(Request{Name: name, Kind: SharedLibrary})
}

// Load runs the load pipeline for req.
//
// # Return Values
//
//   - *Library on the first candidate that loads
//   - *LoadError when a candidate fails with anything other than a not-found
//     error; later candidates are not tried
//   - *ResolutionExhaustedError when every candidate is missing
//   - a plain error when no loader is registered for req.Kind
func (l *Loader) Load(req Request) (*Library, error) {
	load := req.LoadFunc
	if load == nil {
		fn, err := l.registry.LoaderFor(req.Kind)
		if err != nil {
			return nil, err
		}
		load = fn
	}

	loadID := uuid.NewString()
	variant := l.Variant()
	candidates := l.candidatesFor(req.Name, variant)

	event := LoadEvent{
		LoadID:  loadID,
		Name:    req.Name,
		Kind:    req.Kind,
		Variant: variant,
	}

	var attempts []Attempt
	for _, path := range candidates {
		start := time.Now()
		handle, err := load(path)
		elapsed := time.Since(start)

		if err == nil && req.Kind.RequiresHandle() && handle == 0 {
			err = &NotFoundError{Path: path, Err: ErrNoHandle}
		}

		attemptEvent := event
		attemptEvent.Stage = StageAttempt
		attemptEvent.Path = path
		attemptEvent.Duration = elapsed
		attemptEvent.Err = err
		l.logger.LogLoad(attemptEvent)

		if err == nil {
			loaded := event
			loaded.Stage = StageLoaded
			loaded.Path = path
			loaded.Duration = elapsed
			l.logger.LogLoad(loaded)

			return &Library{
				Name:     req.Name,
				Path:     path,
				Kind:     req.Kind,
				Variant:  variant,
				Handle:   handle,
				Attempts: attempts,
				LoadID:   loadID,
			}, nil
		}

		if !IsNotFound(err) {
			failed := event
			failed.Stage = StageFailed
			failed.Path = path
			failed.Err = err
			l.logger.LogLoad(failed)

			return nil, &LoadError{Name: req.Name, Path: path, Err: err}
		}

		attempts = append(attempts, Attempt{Path: path, Err: err})
	}

	exhausted := &ResolutionExhaustedError{Name: req.Name, Attempts: attempts}
	done := event
	done.Stage = StageExhausted
	done.Err = exhausted
	l.logger.LogLoad(done)

	return nil, exhausted
}

// LoadResult pairs a batch request with its outcome.
type LoadResult struct {
	Request Request
	Library *Library
	Err     error
}

// LoadAll loads requests in sequence.
//
// # Return Values
//
// Returns one LoadResult per processed request and the first error
// encountered. With stopOnFailure the batch ends after the first failed
// request; otherwise every request is processed.
//
// # Context Cancellation
//
// The context is checked before each request. On cancellation a result
// carrying the context error is appended and processing stops.
func (l *Loader) LoadAll(ctx context.Context, requests []Request, stopOnFailure bool) ([]LoadResult, error) {
	if len(requests) == 0 {
		return nil, nil
	}

	var results []LoadResult
	var firstError error

	for _, req := range requests {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if firstError == nil {
				firstError = ctxErr
			}
			results = append(results, LoadResult{Request: req, Err: ctxErr})
			break
		}

		lib, err := l.Load(req)
		results = append(results, LoadResult{Request: req, Library: lib, Err: err})

		if err != nil {
			if firstError == nil {
				firstError = err
			}
			if stopOnFailure {
				break
			}
		}
	}

	return results, firstError
}

// LoadConcurrently loads independent requests concurrently, running at most
// limit loads at a time (limit <= 0 means no limit).
//
// Results are returned in request order. The first error cancels requests
// that have not started yet; their results carry the context error.
func (l *Loader) LoadConcurrently(ctx context.Context, requests []Request, limit int) ([]LoadResult, error) {
	results := make([]LoadResult, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, req := range requests {
		i, req := i, req
		results[i].Request = req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			lib, err := l.Load(req)
			results[i].Library = lib
			results[i].Err = err
			return err
		})
	}

	return results, g.Wait()
}
