// Package server exposes the workflow engine, agent supervisor, and
// workflow/checkpoint/history stores over HTTP. It provides:
//   - RESTful endpoints for workflow execution, agent process control,
//     and workflow/checkpoint/history CRUD
//   - Health check and readiness endpoints
//   - Prometheus metrics endpoint
//   - Request/response logging, CORS, and panic recovery
//   - Graceful shutdown
package server
