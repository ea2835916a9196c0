/*
Package ports defines the driven ports (interfaces) of the leadflow engine.

These interfaces decouple the wizard controller from its hosts, allowing the
same engine to be served over a terminal, HTTP or MCP with any storage backend.

# Key Interfaces

  - StatelessEngine: Start / Render / Dispatch over externally held state.
  - StateStore: Persists and loads session State.
  - DistributedLocker: Serialises access to a session across replicas.
*/
package ports
