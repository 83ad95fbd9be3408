package extload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// FileConfig is the YAML configuration read by the extload command.
//
// # Example
//
//	module_dir: /usr/lib/python3/site-packages/tfplus/kv_variable/python/ops
//	package_root: /usr/lib/python3/site-packages
//	suffix_env: SO_SUFFIX
//	data_root_env: TFPLUS_DATAPATH
//	probes:
//	  distribution_version: 1.15.5-PAI2105
//	  distribution_marker: pai
//	  gpu_tools: [nvidia-smi]
//	  optional_libraries: [libxdl.so]
//	rules:
//	  - when: distribution && gpu
//	    variant: .eflops
//
// Fields left empty keep the Loader defaults. suffix_env and data_root_env
// are pointers so an explicit empty string can disable the variable.
type FileConfig struct {
	ModuleDir   string       `yaml:"module_dir"`
	PackageRoot string       `yaml:"package_root"`
	SuffixEnv   *string      `yaml:"suffix_env"`
	DataRootEnv *string      `yaml:"data_root_env"`
	Probes      ProbesConfig `yaml:"probes"`
	Rules       []Rule       `yaml:"rules"`
}

// ProbesConfig describes the default feature oracles.
type ProbesConfig struct {
	DistributionVersion string   `yaml:"distribution_version"`
	DistributionMarker  string   `yaml:"distribution_marker"`
	GPUTools            []string `yaml:"gpu_tools"`
	OptionalLibraries   []string `yaml:"optional_libraries"`
	LibraryDirs         []string `yaml:"library_dirs"`
}

// LoadFileConfig reads and parses a YAML configuration file.
func LoadFileConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseFileConfig(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ParseFileConfig parses YAML configuration bytes.
func ParseFileConfig(b []byte) (*FileConfig, error) {
	cfg := &FileConfig{}
	if err := yaml.UnmarshalStrict(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProbeSet builds the distribution, GPU and optional-package probes.
// Unconfigured probes are nil and count as false.
func (c *ProbesConfig) ProbeSet() (distribution, gpu, optionalPackage Probe) {
	if c.DistributionMarker != "" {
		distribution = VersionMarker(c.DistributionVersion, c.DistributionMarker)
	}
	if len(c.GPUTools) > 0 {
		gpu = &ToolProbe{Name: c.GPUTools[0], Alternatives: c.GPUTools[1:]}
	}
	if len(c.OptionalLibraries) > 0 {
		optionalPackage = &LibraryProbe{Names: c.OptionalLibraries, Dirs: c.LibraryDirs}
	}
	return distribution, gpu, optionalPackage
}

// Options converts the configuration into Loader options.
//
// When rules are present a RuleResolver is built over the configured probes;
// otherwise the probes feed the default ChainResolver.
func (c *FileConfig) Options() ([]Option, error) {
	var opts []Option

	if c.PackageRoot != "" {
		opts = append(opts, WithPackageRoot(c.PackageRoot))
	}
	if c.DataRootEnv != nil {
		opts = append(opts, WithDataRootEnv(*c.DataRootEnv))
	}

	suffixEnv := DefaultSuffixEnv
	if c.SuffixEnv != nil {
		suffixEnv = *c.SuffixEnv
	}

	distribution, gpu, optionalPackage := c.Probes.ProbeSet()

	if len(c.Rules) > 0 {
		resolver, err := NewRuleResolver(c.Rules,
			DefaultFacts(distribution, gpu, optionalPackage),
			WithRuleSuffixEnv(suffixEnv))
		if err != nil {
			return nil, err
		}
		return append(opts, WithResolver(resolver)), nil
	}

	opts = append(opts,
		WithSuffixEnv(suffixEnv),
		WithProbes(distribution, gpu, optionalPackage))
	return opts, nil
}
