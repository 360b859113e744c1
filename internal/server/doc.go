// Package server implements the MCP (Model Context Protocol) server for
// edge-density exploration.
//
// This package provides a JSON-RPC 2.0 server that exposes the threshold
// sweep through the MCP protocol, so an assistant can load an image, try
// Canny threshold pairs and compare how much of the image each pair marks as
// edge.
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
//   - image_load: Load an image and get its dimensions, channels and format
//   - edge_detect: One threshold pair; edge statistics plus a base64 PNG mask
//   - edge_sweep: Many threshold pairs; results, density ranking and summary
//
// Images may be given as local paths or http(s) URLs.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images keyed by path or
// URL. The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal(err)
//	}
package server
