// Package server provides the MCP server context, health checks, and the
// dedicated metrics server for the meetfinder application.
//
// # Key Components
//
// ServerContext manages Google Calendar clients with lazy initialization and
// caching. It supports multiple accounts: each account name maps to its own
// token file and client instance.
//
// MetricsServer exposes Prometheus metrics on a dedicated port, isolated
// from the MCP transport. HealthChecker provides /healthz and /readyz
// endpoints for Kubernetes probes and is registered on the same mux.
package server
