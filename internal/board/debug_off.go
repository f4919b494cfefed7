//go:build !chessdebug

package board

// debugChecks enables the invariant assertions in Make and Unmake. Build
// with -tags chessdebug to turn them on.
const debugChecks = false
