package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanByNameResolvesKnownPlans(t *testing.T) {
	assert.Equal(t, "pro", PlanByName("pro").Name)
	assert.Equal(t, "unlimited", PlanByName("unlimited").Name)
}

func TestPlanByNameDefaultsToFreeForUnknown(t *testing.T) {
	assert.Equal(t, "free", PlanByName("made-up-plan").Name)
	assert.Equal(t, "free", PlanByName("").Name)
}

func TestUnlimitedIsStrictlyNegative(t *testing.T) {
	p := Plan{}
	assert.True(t, p.Unlimited(-1))
	assert.False(t, p.Unlimited(0))
	assert.False(t, p.Unlimited(1))
}

func TestUnlimitedPlanHasNoQuotas(t *testing.T) {
	p := PlanByName("unlimited")
	assert.True(t, p.Unlimited(p.MaxMemories))
	assert.True(t, p.Unlimited(p.MaxItems))
	assert.True(t, p.Unlimited(p.MaxWorkspaces))
}
