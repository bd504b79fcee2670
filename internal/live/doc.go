// package live implements change notification and live queries.
//
// Writers call [Tracker.Invalidate] after a commit; every [Query] watching the table re-runs its
// fetch and delivers a fresh [Snapshot]. Pending invalidations coalesce, so a reader that falls behind
// sees the latest state instead of every intermediate one.
package live
