// Package coordinator drives a validated topology to completion.
//
// Every trigger stage runs in its own goroutine. A root stage starts at once;
// any other stage waits until its predecessor reaches a terminal state and
// only proceeds if that state is Succeeded. A running stage fans out all of
// its scenarios to the Executor concurrently and fans the results back in:
//
//	Idle ─► Waiting ─► Running ─┬─► Succeeded   all runs succeeded
//	  │        │                ├─► Failed      a run failed
//	  └────────┴────────────────┴─► Cancelled   predecessor did not succeed,
//	                                            or the run context ended
//
// Under the default FailFast policy the first failed run fails the stage
// immediately: the other runs are marked Cancelled, their contexts are
// cancelled and the stage does not wait for them. Any result they produce
// afterwards is discarded. Failure and cancellation propagate down the
// predecessor chain without starting a single scenario of the gated stages.
//
// The coordinator never retries.
package coordinator
