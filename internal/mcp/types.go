// Package mcp implements a line-delimited JSON-RPC 2.0 client for MCP
// (Model Context Protocol) tool servers spawned as child processes.
package mcp

import (
	"encoding/json"
	"strings"
)

// request is an outbound JSON-RPC 2.0 message. A nil ID makes it a
// notification.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      *int64      `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// envelope is an inbound JSON-RPC 2.0 message. A nil ID marks a server
// notification; on responses Result and Error are mutually exclusive.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ClientInfo identifies this client during the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo is the server identity reported by initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ContentBlock is one entry of a tools/call result payload.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolResult is the decoded result of a tools/call round trip. IsError
// reports a tool-level failure; transport and protocol failures surface
// as Go errors instead.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// Text joins the text content blocks in arrival order and trims the
// surrounding whitespace.
func (r *ToolResult) Text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type != "text" || block.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(block.Text)
	}
	return strings.TrimSpace(b.String())
}
