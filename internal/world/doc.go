// Package world holds the authoritative, in-memory state of a scene: every
// actor's geometry, bubbles, collision flags and compiled script.
//
// # Purpose
//
// World is the only shared mutable resource of a run. The execution engine
// and the collision response write to it through a small set of setters;
// everything else reads snapshots.
//
// # Characteristics
//
//   - **Ordered:** Actors keep their creation order, which is also the order
//     collision pairs are reported in.
//   - **Snapshot reads:** Actor and Actors return copies, never pointers
//     into the store.
//   - **Total setters:** Addressing an unknown actor id is a no-op.
//   - **Self-expiring bubbles:** A bubble is cleared by a timer the world
//     owns, so a halted run cannot keep a bubble on screen.
//
// # Concurrency Model
//
// Actor tasks run on separate goroutines, so the store is guarded by a
// sync.RWMutex. Each setter is atomic on its own; callers that need a
// read-modify-write sequence to be atomic (the engine's step) serialize it
// themselves.
package world
