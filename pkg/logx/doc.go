// Package logx wraps zerolog behind a small structured-logging API with
// console and file sinks that can be reconfigured at runtime.
package logx
