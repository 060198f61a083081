// Package io provides file operations for fiber code under three blocking
// disciplines:
//
//   - Await: the syscall runs on the blocking pool while the calling fiber
//     suspends cooperatively on a promise; other fibers keep executing on
//     the worker. This is the usual mode.
//   - Block: the syscall runs inline, blocking the fiber and the worker
//     thread it executes on. Use it for cheap, predictable operations
//     (most filesystem calls) where shipping the job to the pool costs
//     more than the call itself.
//   - Async: the operation starts on the blocking pool and a promise is
//     returned immediately, without awaiting.
//
// Each operation exists in three variants: Read (Await), ReadBlock and
// ReadAsync, and so on. The package communicates with fibers only through
// promises, so mailbox ordering guarantees are never bypassed.
package io
