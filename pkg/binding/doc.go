// Package binding connects host-issued survey configurations to live form
// models and relays form events back to the host.
//
// A Runtime owns every widget instance of a process. All of its methods that
// touch instances (Initialize, Dispatch, Destroy, Snapshot, Handle) must run
// on the loop goroutine of the Scheduler it was built with; Deliver and
// DeliverRaw are the goroutine-safe entry points transports use.
//
// Lifecycle of an instance:
//
//	Initialize  -> tear down any instance with the same id, build the model,
//	               register listeners, record it in the Registry, render one
//	               loop turn later
//	Dispatch    -> apply host commands in arrival order
//	Destroy     -> unsubscribe listeners, stop the debounce timer, detach the
//	               view, drop the Registry entry
//
// Events leave through a protocol.EventSink: data_final once per completion
// and, for live instances, data_live after DefaultDebounceWindow of quiet
// following organic edits.
package binding
