/*
Package observability turns wizard lifecycle events into Prometheus metrics
and structured log lines.

Both are plain domain.LifecycleHooks, so they can be combined with
domain.ChainHooks and passed to leadflow.WithLifecycleHooks. Neither ever
records names, mobile numbers or codes.
*/
package observability
