package extload

import "os"

// Environment variables consulted by default.
const (
	// DefaultSuffixEnv names the variable whose non-empty value is used
	// verbatim as the variant suffix, bypassing every probe.
	DefaultSuffixEnv = "SO_SUFFIX"

	// DefaultDataRootEnv names the variable that enables a second candidate
	// location re-rooted under its value.
	DefaultDataRootEnv = "TFPLUS_DATAPATH"
)

// Environment is a read-only snapshot of environment variables.
//
// The Loader and resolvers never read the process environment directly;
// tests pass a MapEnvironment instead of mutating os.Environ.
type Environment interface {
	Lookup(key string) (string, bool)
}

// EnvironmentSetter is implemented by environments that can be written to.
// Only extension steps with EnvDefaults use it.
type EnvironmentSetter interface {
	Setenv(key, value string) error
}

// OSEnvironment reads the live process environment.
type OSEnvironment struct{}

// Lookup implements Environment.
func (OSEnvironment) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Setenv implements EnvironmentSetter.
func (OSEnvironment) Setenv(key, value string) error {
	return os.Setenv(key, value)
}

// MapEnvironment is a synthetic environment backed by a map.
type MapEnvironment map[string]string

// Lookup implements Environment.
func (m MapEnvironment) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Setenv implements EnvironmentSetter.
func (m MapEnvironment) Setenv(key, value string) error {
	m[key] = value
	return nil
}

// getenv returns the value of key, or "" when env is nil or key is unset.
func getenv(env Environment, key string) string {
	if env == nil || key == "" {
		return ""
	}
	v, _ := env.Lookup(key)
	return v
}

// Resolver decides which Variant to load for an environment snapshot.
//
// Implementations must be deterministic for a fixed snapshot and probe set
// and must not mutate env.
type Resolver interface {
	Resolve(env Environment) Variant
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(env Environment) Variant

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(env Environment) Variant {
	if f == nil {
		return VariantDefault
	}
	return f(env)
}

// ChainResolver resolves the variant with a fixed priority chain.
//
// # Resolution Order
//
//  1. SuffixEnv set to a non-empty value: that value, verbatim
//  2. Distribution probe false: VariantDefault
//  3. GPU probe true: VariantEFLOPS
//  4. OptionalPackage probe true: VariantXDL
//  5. Otherwise: VariantPAI
//
// A nil probe counts as false. Probes are consulted on every call; the
// Loader calls Resolve once per load so one load always sees one variant.
type ChainResolver struct {
	// SuffixEnv names the override variable. Empty disables the override.
	SuffixEnv string

	// Distribution reports whether the host runs the proprietary
	// distribution that ships suffixed variants.
	Distribution Probe

	// GPU reports whether the distribution is the GPU-enabled build.
	GPU Probe

	// OptionalPackage reports whether the optional XDL package is present.
	OptionalPackage Probe
}

// NewChainResolver returns a ChainResolver honouring DefaultSuffixEnv with
// the given probes.
func NewChainResolver(distribution, gpu, optionalPackage Probe) *ChainResolver {
	return &ChainResolver{
		SuffixEnv:       DefaultSuffixEnv,
		Distribution:    distribution,
		GPU:             gpu,
		OptionalPackage: optionalPackage,
	}
}

// Resolve implements Resolver.
func (r *ChainResolver) Resolve(env Environment) Variant {
	if suffix := getenv(env, r.SuffixEnv); suffix != "" {
		return Variant(suffix)
	}

	if !probed(r.Distribution) {
		return VariantDefault
	}

	if probed(r.GPU) {
		return VariantEFLOPS
	}
	if probed(r.OptionalPackage) {
		return VariantXDL
	}
	return VariantPAI
}

func probed(p Probe) bool {
	return p != nil && p.Available()
}
