// Package state keeps per-user conversation state in memory.
//
// A Store serializes access per user so that two updates from the same user
// never mutate one session concurrently, while different users proceed in
// parallel.
package state
