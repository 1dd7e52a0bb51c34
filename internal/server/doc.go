// Package server implements the baby monitor relay's HTTP API.
//
// Owns:
//   - HTTP routing, handlers, and request/response contracts
//   - API key and device id checks on incoming readings
//   - Normalization of raw device payloads into a Reading
//   - The optional embedded MQTT ingress
//
// Does not own:
//   - Configuration loading (internal/shared)
//   - The device-side client (internal/device)
//
// Invariants:
//   - JSON responses go through writeJSON
//   - A rejected submission never reaches the Store
//   - Exactly one Reading exists; Set replaces it whole
package server
