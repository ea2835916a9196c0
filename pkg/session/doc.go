/*
Package session orchestrates concurrent access to wizard sessions.

HTTP and MCP requests for the same session may arrive in parallel; the
Manager runs each load-dispatch-save cycle under a per-session lock, with
an optional distributed lock for deployments with several replicas.
*/
package session
