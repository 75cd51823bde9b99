// Package app wires a scene into a running program. It loads the scene (or
// the built-in hero example), builds the world, drives the engine for the
// configured number of runs and, in watch mode, reruns the scene each time
// one of its script files changes. It is decoupled from any specific
// entrypoint; cmd/cli only parses flags and calls NewApp and Run.
package app
