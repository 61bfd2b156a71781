package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/langrust/grust-sub010/internal/ir"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ir.DefaultBounds, cfg.Bounds)
	assert.Equal(t, PolicyPara, cfg.PolicyFor("anything"))
}

func TestPolicyForOverride(t *testing.T) {
	cfg := Config{ComponentPolicy: map[string]Policy{"brake_ctrl": PolicyOnlyThreads}}
	assert.Equal(t, PolicyOnlyThreads, cfg.PolicyFor("brake_ctrl"))
	assert.Equal(t, PolicyPara, cfg.PolicyFor("cruise_ctrl"))
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := Config{
		Bounds:          ir.Bounds{NoParaUbx: 5, RayonUbx: 50, ThreadsUbx: 500},
		ComponentPolicy: map[string]Policy{"limiter": PolicyOnlyRayon},
		GraphDumpPath:   "/tmp/graph.json",
	}

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var roundTripped Config
	require.NoError(t, yaml.Unmarshal(out, &roundTripped))
	assert.Equal(t, cfg, roundTripped)
}
