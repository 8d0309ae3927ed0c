package kestrel

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopUpdate() *lua.LFunction {
	L := lua.NewState()
	defer L.Close()
	return L.NewFunction(func(*lua.LState) int { return 0 })
}

// TestKahnOrderRespectsDepsAndTieBreaksByRegistration covers the ordering
// half of P5: independent modules (no edges between them) keep their
// registration order, while a dependency forces its dependents later.
func TestKahnOrderRespectsDepsAndTieBreaksByRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "physics", FramesInterval: 1, UpdateFn: noopUpdate()}))
	require.NoError(t, r.Register(&Descriptor{Name: "render", Deps: []string{"physics"}, FramesInterval: 1, UpdateFn: noopUpdate()}))
	require.NoError(t, r.Register(&Descriptor{Name: "audio", FramesInterval: 1, UpdateFn: noopUpdate()}))

	plan, err := r.Freeze()
	require.NoError(t, err)

	assert.Equal(t, []string{"physics", "render", "audio"}, plan.HostOrder)
}

// TestKahnDetectsCycle covers P5: a cyclic dependency set fails with
// ErrDependencyCycle naming every module in the cycle.
func TestKahnDetectsCycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "a", Deps: []string{"b"}, FramesInterval: 1, UpdateFn: noopUpdate()}))
	require.NoError(t, r.Register(&Descriptor{Name: "b", Deps: []string{"c"}, FramesInterval: 1, UpdateFn: noopUpdate()}))
	require.NoError(t, r.Register(&Descriptor{Name: "c", Deps: []string{"a"}, FramesInterval: 1, UpdateFn: noopUpdate()}))

	_, err := r.Freeze()
	require.ErrorIs(t, err, ErrDependencyCycle)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.Contains(t, err.Error(), "c")
}

func TestUnknownDependencyFailsAtFreeze(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "hud", Deps: []string{"missing"}, FramesInterval: 1, UpdateFn: noopUpdate()}))

	_, err := r.Freeze()
	require.ErrorIs(t, err, ErrUnknownDep)
}

func TestWorkerModulesExcludedFromHostOrderButResolvable(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "ai", Kind: WorkerModule, FramesInterval: 1, UpdateFn: noopUpdate()}))
	require.NoError(t, r.Register(&Descriptor{Name: "hud", Deps: []string{"ai"}, FramesInterval: 1, UpdateFn: noopUpdate()}))

	plan, err := r.Freeze()
	require.NoError(t, err)

	assert.Equal(t, []string{"hud"}, plan.HostOrder)
	assert.Equal(t, []string{"ai"}, plan.Workers)
}

func TestFreezeIsIdempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "only", FramesInterval: 1, UpdateFn: noopUpdate()}))

	first, err := r.Freeze()
	require.NoError(t, err)
	second, err := r.Freeze()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegisterAfterFreezeFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "only", FramesInterval: 1, UpdateFn: noopUpdate()}))
	_, err := r.Freeze()
	require.NoError(t, err)

	err = r.Register(&Descriptor{Name: "late", FramesInterval: 1, UpdateFn: noopUpdate()})
	assert.ErrorIs(t, err, ErrRegistryFrozen)
}

func TestDuplicateAndMalformedRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "hud", FramesInterval: 1, UpdateFn: noopUpdate()}))

	err := r.Register(&Descriptor{Name: "hud", FramesInterval: 1, UpdateFn: noopUpdate()})
	assert.ErrorIs(t, err, ErrDuplicateModule)

	err = r.Register(&Descriptor{Name: "broken"})
	assert.ErrorIs(t, err, ErrMalformedModule)
}

func TestPlanBeforeFreezeFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.Plan()
	assert.ErrorIs(t, err, ErrRegistryNotFrozen)
}
