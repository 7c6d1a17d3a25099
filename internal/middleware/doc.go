// Package middleware provides HTTP middleware for the streaming gateway.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip)
//   - Prometheus request metrics
//   - CORS preflight handling for cross-origin players
//   - Configurable filtering for static files and health checks
package middleware
