package extload

// Option configures a Loader.
type Option func(*loaderConfig)

type loaderConfig struct {
	packageRoot    string
	packageRootSet bool
	env            Environment
	resolver       Resolver
	registry       *KindRegistry
	logger         Logger
	suffixEnv      string
	dataRootEnv    string

	distribution    Probe
	gpu             Probe
	optionalPackage Probe
}

func defaultLoaderConfig() *loaderConfig {
	return &loaderConfig{
		env:         OSEnvironment{},
		logger:      noopLogger{},
		suffixEnv:   DefaultSuffixEnv,
		dataRootEnv: DefaultDataRootEnv,
	}
}

// WithEnvironment sets the environment snapshot consulted for the override
// and data-root variables. Defaults to OSEnvironment.
func WithEnvironment(env Environment) Option {
	return func(cfg *loaderConfig) {
		if env == nil {
			env = OSEnvironment{}
		}
		cfg.env = env
	}
}

// WithPackageRoot sets the directory the module directory is made relative
// to before it is re-rooted under the data root. Defaults to the working
// directory at construction time.
func WithPackageRoot(dir string) Option {
	return func(cfg *loaderConfig) {
		cfg.packageRoot = dir
		cfg.packageRootSet = true
	}
}

// WithResolver replaces the default ChainResolver.
func WithResolver(r Resolver) Option {
	return func(cfg *loaderConfig) {
		cfg.resolver = r
	}
}

// WithProbes sets the oracles of the default ChainResolver. It has no effect
// when WithResolver is also given.
func WithProbes(distribution, gpu, optionalPackage Probe) Option {
	return func(cfg *loaderConfig) {
		cfg.distribution = distribution
		cfg.gpu = gpu
		cfg.optionalPackage = optionalPackage
	}
}

// WithSuffixEnv renames the override variable of the default ChainResolver.
// An empty name disables the override.
func WithSuffixEnv(key string) Option {
	return func(cfg *loaderConfig) {
		cfg.suffixEnv = key
	}
}

// WithDataRootEnv renames the alternate data-root variable. An empty name
// disables the alternate location.
func WithDataRootEnv(key string) Option {
	return func(cfg *loaderConfig) {
		cfg.dataRootEnv = key
	}
}

// WithRegistry sets the registry providing default loaders per kind.
// Defaults to NewKindRegistry().
func WithRegistry(registry *KindRegistry) Option {
	return func(cfg *loaderConfig) {
		cfg.registry = registry
	}
}

// WithLogger attaches a load logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(cfg *loaderConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
