// Package engine runs every actor's compiled script concurrently against a
// shared world and applies the collision response.
//
// Each actor with a non-empty script gets its own goroutine and walks its
// instructions in order. Geometric primitives (move, turn, goTo) are each
// executed as one step under an engine-wide lock: the halt check, the world
// mutation, collision detection and, on the first collision of a run, the
// response all happen atomically with respect to the other actors.
//
// The response fires at most once per run. It flags both actors of every
// colliding pair, swaps their scripts and halts every actor in the world.
// A halted actor finishes any wait it is in and then turns every remaining
// primitive into a no-op; the swapped scripts take effect on the next run.
package engine
