package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/udderworld/udderworld/internal/game/dice"
	"github.com/udderworld/udderworld/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(11), logger)
	mgr := scripting.NewManager(roller, logger)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func hasLevel(logs *observer.ObservedLogs, lvl zapcore.Level) bool {
	for _, e := range logs.All() {
		if e.Level == lvl {
			return true
		}
	}
	return false
}

func TestManager_LoadScope_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "waves.lua", `
		function choose_attack(wave)
			if wave % 2 == 0 then return "targeted" end
			return "spread"
		end
	`)
	require.NoError(t, mgr.LoadScope("room1", dir, 0))
	assert.True(t, mgr.HasScope("room1"))

	ret, err := mgr.CallHook("room1", "choose_attack", lua.LNumber(2))
	require.NoError(t, err)
	assert.Equal(t, lua.LString("targeted"), ret)

	ret, err = mgr.CallHook("room1", "choose_attack", lua.LNumber(3))
	require.NoError(t, err)
	assert.Equal(t, lua.LString("spread"), ret)
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "empty.lua", `-- nothing here`)
	require.NoError(t, mgr.LoadScope("room1", dir, 0))
	ret, err := mgr.CallHook("room1", "choose_attack")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_UnknownScope_LogsInfoReturnsNil(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret, err := mgr.CallHook("nowhere", "choose_attack")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zapcore.InfoLevel), "expected Info log for missing scope")
}

func TestManager_CallHook_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `
		function choose_attack()
			error("the cow says no")
		end
	`)
	require.NoError(t, mgr.LoadScope("room1", dir, 0))
	ret, err := mgr.CallHook("room1", "choose_attack")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zapcore.WarnLevel), "expected Warn log for Lua runtime error")
}

func TestManager_CallHook_BudgetResetsBetweenCalls(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "count.lua", `
		calls = 0
		function tick()
			calls = calls + 1
			return calls
		end
	`)
	require.NoError(t, mgr.LoadScope("room1", dir, 100))
	var ret lua.LValue
	for i := 0; i < 200; i++ {
		var err error
		ret, err = mgr.CallHook("room1", "tick")
		require.NoError(t, err)
	}
	assert.Equal(t, lua.LNumber(200), ret)
}

func TestManager_CallHook_RunawayHookStopped(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "spin.lua", `
		function choose_attack()
			while true do end
		end
	`)
	require.NoError(t, mgr.LoadScope("room1", dir, 500))
	ret, err := mgr.CallHook("room1", "choose_attack")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zapcore.WarnLevel))
}

func TestManager_EngineRoll_InRange(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "roll.lua", `
		function roll() return engine.roll(3, 5) end
		function note() engine.log("mooo") end
	`)
	require.NoError(t, mgr.LoadScope("room1", dir, 0))
	for i := 0; i < 20; i++ {
		ret, err := mgr.CallHook("room1", "roll")
		require.NoError(t, err)
		n, ok := ret.(lua.LNumber)
		require.True(t, ok)
		assert.GreaterOrEqual(t, int(n), 3)
		assert.LessOrEqual(t, int(n), 5)
	}
	_, err := mgr.CallHook("room1", "note")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("scripting: lua log").Len())
	assert.Equal(t, 20, logs.FilterMessage("dice draw").Len())
}

func TestManager_LoadGlobal_CallHookFallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "global.lua", `
		function choose_attack() return "spread" end
	`)
	require.NoError(t, mgr.LoadGlobal(dir, 0))
	ret, err := mgr.CallHook("room9", "choose_attack")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("spread"), ret)
}

func TestManager_LoadScope_ReplacesExisting(t *testing.T) {
	mgr, _ := newTestManager(t)
	first := writeTempLua(t, "a.lua", `function v() return 1 end`)
	second := writeTempLua(t, "a.lua", `function v() return 2 end`)
	require.NoError(t, mgr.LoadScope("room1", first, 0))
	require.NoError(t, mgr.LoadScope("room1", second, 0))
	ret, err := mgr.CallHook("room1", "v")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(2), ret)
}

func TestManager_LoadScope_InvalidLua_KeepsPrevious(t *testing.T) {
	mgr, _ := newTestManager(t)
	good := writeTempLua(t, "a.lua", `function v() return 1 end`)
	bad := writeTempLua(t, "a.lua", `this is not lua @@@`)
	require.NoError(t, mgr.LoadScope("room1", good, 0))
	assert.Error(t, mgr.LoadScope("room1", bad, 0))
	ret, err := mgr.CallHook("room1", "v")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(1), ret)
}

func TestManager_LoadScope_MissingDir_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	err := mgr.LoadScope("room1", filepath.Join(t.TempDir(), "absent"), 0)
	assert.Error(t, err)
	assert.False(t, mgr.HasScope("room1"))
}

func TestManager_LoadScope_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_speed = 3`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function speed() return base_speed end
	`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`not lua`), 0644))
	require.NoError(t, mgr.LoadScope("room1", dir, 0))
	ret, err := mgr.CallHook("room1", "speed")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(3), ret)
}

func TestProperty_CallHookMissingScopeNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		scope := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "scope")
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		ret, err := mgr.CallHook(scope, hook)
		assert.NoError(rt, err)
		assert.Equal(rt, lua.LNil, ret)
	})
}

func TestManager_CallHook_ConcurrentSameScope(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function add(a, b) return a + b end
	`)
	require.NoError(t, mgr.LoadScope("room1", dir, 0))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook("room1", "add", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestManager_CallHook_DuringReloadNeverSeesClosedVM(t *testing.T) {
	mgr, logs := newTestManager(t)
	one := writeTempLua(t, "waves.lua", `function choose_attack() return "spread" end`)
	two := writeTempLua(t, "waves.lua", `function choose_attack() return "targeted" end`)
	require.NoError(t, mgr.LoadScope("room1", one, 0))

	const callers = 8
	const callsEach = 300
	var missed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook("room1", "choose_attack")
				assert.NoError(t, err)
				if ret == lua.LNil {
					missed.Add(1)
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		dir := one
		if i%2 == 0 {
			dir = two
		}
		require.NoError(t, mgr.LoadScope("room1", dir, 0))
	}
	wg.Wait()

	assert.Zero(t, missed.Load(), "a hook call landed on a replaced VM")
	assert.False(t, hasLevel(logs, zapcore.WarnLevel))
}

func TestNewManager_PanicsOnNilRoller(t *testing.T) {
	assert.Panics(t, func() {
		scripting.NewManager(nil, zap.NewNop())
	})
}

func TestNewManager_PanicsOnNilLogger(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), zap.NewNop())
	assert.Panics(t, func() {
		scripting.NewManager(roller, nil)
	})
}

func TestManager_Close_ReleasesScopes(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "init.lua", `function get_x() return 1 end`)
	require.NoError(t, mgr.LoadScope("room1", dir, 0))
	mgr.Close()
	assert.False(t, mgr.HasScope("room1"))
	ret, err := mgr.CallHook("room1", "get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}
