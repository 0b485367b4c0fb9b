// Package server implements an MCP (Model Context Protocol) server over one
// seats analyzer session.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - seats_version: module name, version and session id
//   - seats_load_image, seats_evict_image: image cache control
//   - seats_crop: straightened PNG of a rotated region
//   - seats_detect: detection stage
//   - seats_classify: classification stage for one windshield
//   - seats_analyze: detection followed by classification of every windshield
//
// # Image Caching
//
// Images are read through the analyzer module and cached by path. The cache
// holds a bounded number of images; the least recently used one is freed
// through the module when the bound is exceeded, and Close frees the rest.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, which carries the module status
package server
