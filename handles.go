package kestrel

import lua "github.com/yuin/gopher-lua"

// HandleSet carries the opaque, script-facing collaborator handles the core
// does not implement: window, immediate-mode UI context, graphics, audio,
// and save. Their internals are specified by the respective collaborators
// (see §1 non-goals); the core only guarantees a stable named slot for each
// on the engine handle it hands to scripts.
type HandleSet struct {
	Window    HostHandle
	UIContext HostHandle
	Graphics  HostHandle
	Audio     HostHandle
	Save      HostHandle
}

// HostHandle is anything a collaborator wants to expose to script code via
// the Host API Surface. Push builds the script-side value for this handle
// in L. A nil HostHandle leaves its slot absent rather than installing an
// empty table, so scripts can feature-detect with e.g.
// `if engine.audio then ... end`.
type HostHandle interface {
	Push(L *lua.LState) lua.LValue
}

// attachHandles installs each non-nil handle in the set as a named field on
// engineTable.
func attachHandles(L *lua.LState, engineTable *lua.LTable, handles HandleSet) {
	install := func(name string, h HostHandle) {
		if h == nil {
			return
		}
		engineTable.RawSetString(name, h.Push(L))
	}
	install("window", handles.Window)
	install("ui_ctx", handles.UIContext)
	install("graphics", handles.Graphics)
	install("audio", handles.Audio)
	install("save", handles.Save)
}
