package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_AccessPolicy(t *testing.T) {
	t.Run("defaults to auto_provision", func(t *testing.T) {
		t.Setenv("SMARTDOOR_ACCESS_POLICY", "")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, PolicyAutoProvision, cfg.AccessPolicy)
	})

	t.Run("explicit is accepted", func(t *testing.T) {
		t.Setenv("SMARTDOOR_ACCESS_POLICY", string(PolicyExplicitGrants))
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, PolicyExplicitGrants, cfg.AccessPolicy)
	})

	t.Run("a typo'd policy refuses to boot rather than widening access", func(t *testing.T) {
		t.Setenv("SMARTDOOR_ACCESS_POLICY", "explicit_grants_only")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SMARTDOOR_ACCESS_POLICY")
	})
}

func TestAccessPolicyIsValid(t *testing.T) {
	assert.True(t, PolicyExplicitGrants.IsValid())
	assert.True(t, PolicyAutoProvision.IsValid())
	assert.False(t, AccessPolicy("").IsValid())
	assert.False(t, AccessPolicy("open").IsValid())
}
