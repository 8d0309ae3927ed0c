// Package kestrel is a script-driven 2D game engine core: a module scheduler
// and shared-state runtime that hosts user logic written in an embedded Lua
// dialect (github.com/yuin/gopher-lua).
//
// The engine runs a bounded set of modules. Each module is a declarative
// unit carrying local (private) state, shared (cross-thread observable)
// state, a declared dependency list, an init hook, an update hook, and a
// frame cadence. Modules run either on the host main loop or on a dedicated
// background worker thread; both kinds observe each other's shared state
// through the snapshot store without racing the frame loop.
//
// Basic usage:
//
//	eng := kestrel.New(kestrel.WithFaultThreshold(16))
//	if err := eng.Bootstrap("game/main.lua"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := eng.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package kestrel
