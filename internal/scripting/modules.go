package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine table into L:
//
//	engine.roll(lo, hi)  -> uniform integer in [lo, hi] from the manager's roller
//	engine.log(msg)      -> debug log line tagged with the script origin
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "roll", L.NewFunction(m.luaRoll))
	L.SetField(engine, "log", L.NewFunction(m.luaLog))
	L.SetGlobal("engine", engine)
}

func (m *Manager) luaRoll(L *lua.LState) int {
	lo := L.CheckInt(1)
	hi := L.CheckInt(2)
	if hi < lo {
		L.ArgError(2, "hi must be >= lo")
		return 0
	}
	L.Push(lua.LNumber(m.roller.Between("lua", lo, hi)))
	return 1
}

func (m *Manager) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	m.logger.Debug("scripting: lua log", zap.String("msg", msg))
	return 0
}
