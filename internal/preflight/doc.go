// Package preflight runs the environment checks behind `titlesearch doctor`.
//
// Checks cover the title catalog (reachable, one table per collection),
// free disk space next to the catalog, the open file limit, a stale or
// live PID file and whether the listen address is free.
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, target)
//	if checker.HasCriticalFailures(results) {
//	    // refuse to start
//	}
package preflight
