package kestrel

import "github.com/kestrelscript/kestrel/diagnostics"

// FaultObserverFor adapts a diagnostics.Reporter into the callback shape
// WithFaultObserver expects, so wiring a reporter into an engine is:
//
//	rep := diagnostics.NewReporter()
//	e := kestrel.New(kestrel.WithFaultObserver(kestrel.FaultObserverFor(rep)))
func FaultObserverFor(rep *diagnostics.Reporter) func(FaultEvent) {
	return func(ev FaultEvent) {
		rep.Record(ev.Module, string(ev.Phase), ev.Frame, ev.Message, ev.Disabled, ev.Consecutive)
	}
}
