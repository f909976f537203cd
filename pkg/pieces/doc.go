// Package pieces tracks which indices of a fixed-size domain are present.
//
// A Set keeps present indices as merged closed ranges in a red-black tree, so
// range queries cost O(log n) plus the output. A Map stores one value per
// index in a dense slice. A Table keeps one of each in lockstep under a
// single index based API: ranges are answered by the Set, values and waits
// by the Map.
//
// Every structure lets callers wait for an index to become present. The wait
// is resolved inline by the mutation that makes the index present, before
// that mutation returns.
//
// None of the types are safe for concurrent mutation. A single owner mutates
// them; other goroutines may only block on the Futures handed out by Acquire.
package pieces
