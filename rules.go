package extload

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Fact names bound by DefaultFacts and used by DefaultRules.
const (
	FactDistribution    = "distribution"
	FactGPU             = "gpu"
	FactOptionalPackage = "optional_package"
)

// Rule maps a boolean expression over probe facts to a variant.
//
// Expressions use github.com/expr-lang/expr syntax. Every fact is a boolean
// variable and getenv(key) returns an environment value from the snapshot
// being resolved:
//
//	distribution && gpu
//	distribution && getenv("XDL_ENABLED") == "1"
type Rule struct {
	When    string  `yaml:"when"`
	Variant Variant `yaml:"variant"`
}

// getenvFunc is the expression function bound over the environment snapshot.
// No fact may use its name.
const getenvFunc = "getenv"

// DefaultRules expresses the ChainResolver priority chain as rules.
func DefaultRules() []Rule {
	return []Rule{
		{When: FactDistribution + " && " + FactGPU, Variant: VariantEFLOPS},
		{When: FactDistribution + " && " + FactOptionalPackage, Variant: VariantXDL},
		{When: FactDistribution, Variant: VariantPAI},
	}
}

// DefaultFacts binds the three standard probes to their fact names.
func DefaultFacts(distribution, gpu, optionalPackage Probe) map[string]Probe {
	return map[string]Probe{
		FactDistribution:    distribution,
		FactGPU:             gpu,
		FactOptionalPackage: optionalPackage,
	}
}

// RuleResolver resolves the variant from an ordered list of rules.
//
// # Resolution Order
//
//  1. SuffixEnv set to a non-empty value: that value, verbatim
//  2. The variant of the first rule whose expression is true
//  3. VariantDefault
//
// A rule whose evaluation fails at runtime is skipped.
type RuleResolver struct {
	suffixEnv string
	facts     map[string]Probe
	factNames []string
	rules     []compiledRule
}

type compiledRule struct {
	Rule
	program *vm.Program
}

// RuleOption configures a RuleResolver.
type RuleOption func(*RuleResolver)

// WithRuleSuffixEnv renames the override variable. Empty disables it.
func WithRuleSuffixEnv(key string) RuleOption {
	return func(r *RuleResolver) {
		r.suffixEnv = key
	}
}

// NewRuleResolver compiles rules against facts.
//
// Returns an error for a fact named getenv, or naming the first rule that
// does not compile to a boolean expression.
func NewRuleResolver(rules []Rule, facts map[string]Probe, opts ...RuleOption) (*RuleResolver, error) {
	r := &RuleResolver{
		suffixEnv: DefaultSuffixEnv,
		facts:     facts,
	}
	for _, opt := range opts {
		opt(r)
	}

	for name := range facts {
		if name == getenvFunc {
			return nil, fmt.Errorf("fact name %q is reserved", name)
		}
		r.factNames = append(r.factNames, name)
	}
	sort.Strings(r.factNames)

	declared := r.exprEnv(nil, false)
	for i, rule := range rules {
		program, err := expr.Compile(rule.When, expr.Env(declared), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, rule.When, err)
		}
		r.rules = append(r.rules, compiledRule{Rule: rule, program: program})
	}

	return r, nil
}

// Resolve implements Resolver.
func (r *RuleResolver) Resolve(env Environment) Variant {
	if suffix := getenv(env, r.suffixEnv); suffix != "" {
		return Variant(suffix)
	}

	if len(r.rules) == 0 {
		return VariantDefault
	}

	vars := r.exprEnv(env, true)
	for _, rule := range r.rules {
		out, err := expr.Run(rule.program, vars)
		if err != nil {
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return rule.Variant
		}
	}
	return VariantDefault
}

// exprEnv exposes every fact and getenv over env. Facts are probed once per
// call when evaluate is set; otherwise they are declared as false so rules
// can be type-checked.
func (r *RuleResolver) exprEnv(env Environment, evaluate bool) map[string]any {
	vars := make(map[string]any, len(r.factNames)+1)
	for _, name := range r.factNames {
		vars[name] = evaluate && probed(r.facts[name])
	}
	vars[getenvFunc] = func(key string) string {
		return getenv(env, key)
	}
	return vars
}
