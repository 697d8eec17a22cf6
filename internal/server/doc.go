// Package server implements the MCP (Model Context Protocol) server for saturation editing.
//
// This package provides a JSON-RPC 2.0 server that exposes one edit session
// through the MCP protocol. A client opens an image, adjusts its saturation,
// inspects the preview and saves or discards the result.
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
// Session:
//   - image_open: Open an image as the new baseline
//   - image_adjust: Set the saturation factor (0.0 to 2.0)
//   - image_discard: Drop unsaved changes
//   - image_save: Write the adjusted image as JPEG
//
// Inspection:
//   - image_preview: Current preview as base64 PNG plus saturation statistics
//   - image_sample_color: Color of the preview at a pixel
//   - image_info: Dimensions and metadata of the opened image
//   - session_state: Editing state and enabled controls
//
// # Confirmation
//
// Opening another image or discarding while there are unsaved changes needs
// "confirm": true. Without it the call fails with the question the user would
// have been asked and the session is left as it was.
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses with:
//   - code: -32602 for malformed arguments or unknown tools, -32000 for
//     tool execution failures, -32601 for unknown methods
//   - message: The user-facing notice for failed saves, failed transforms
//     and oversized images; "Tool execution failed" otherwise
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(ed, picker, 1024, logger)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    return err
//	}
package server
