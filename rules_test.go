package extload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesMatchChainResolver(t *testing.T) {
	for _, dist := range []bool{false, true} {
		for _, gpu := range []bool{false, true} {
			for _, xdl := range []bool{false, true} {
				chain := NewChainResolver(Static(dist), Static(gpu), Static(xdl))
				rules, err := NewRuleResolver(DefaultRules(), DefaultFacts(Static(dist), Static(gpu), Static(xdl)))
				require.NoError(t, err)

				for _, env := range []MapEnvironment{{}, {"SO_SUFFIX": ".forced"}} {
					assert.Equal(t, chain.Resolve(env), rules.Resolve(env),
						"dist=%v gpu=%v xdl=%v env=%v", dist, gpu, xdl, env)
				}
			}
		}
	}
}

func TestRuleResolverGetenv(t *testing.T) {
	r, err := NewRuleResolver([]Rule{
		{When: `distribution && getenv("XDL_ENABLED") == "1"`, Variant: VariantXDL},
		{When: "distribution", Variant: VariantPAI},
	}, DefaultFacts(Static(true), nil, nil))
	require.NoError(t, err)

	assert.Equal(t, VariantXDL, r.Resolve(MapEnvironment{"XDL_ENABLED": "1"}))
	assert.Equal(t, VariantPAI, r.Resolve(MapEnvironment{}))
}

func TestRuleResolverNoMatch(t *testing.T) {
	r, err := NewRuleResolver(DefaultRules(), DefaultFacts(nil, Static(true), nil))
	require.NoError(t, err)
	assert.Equal(t, VariantDefault, r.Resolve(MapEnvironment{}))
}

func TestRuleResolverCustomSuffixEnv(t *testing.T) {
	r, err := NewRuleResolver(nil, nil, WithRuleSuffixEnv("EXT_SUFFIX"))
	require.NoError(t, err)

	assert.Equal(t, Variant(".a"), r.Resolve(MapEnvironment{"EXT_SUFFIX": ".a"}))
	assert.Equal(t, VariantDefault, r.Resolve(MapEnvironment{"SO_SUFFIX": ".b"}))
}

func TestRuleResolverRejectsInvalidRules(t *testing.T) {
	testCases := []struct {
		name string
		when string
	}{
		{"syntax error", "distribution &&"},
		{"unknown fact", "cuda"},
		{"not boolean", `getenv("X")`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRuleResolver([]Rule{{When: tc.when, Variant: VariantPAI}}, DefaultFacts(nil, nil, nil))
			assert.Error(t, err)
		})
	}
}

func TestRuleResolverRejectsReservedFact(t *testing.T) {
	facts := DefaultFacts(Static(true), nil, nil)
	facts["getenv"] = Static(true)

	_, err := NewRuleResolver([]Rule{{When: "distribution", Variant: VariantPAI}}, facts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"getenv" is reserved`)
}
