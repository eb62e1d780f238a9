package server

import "github.com/reflow-dev/reflow/pkg/host"

// FrameType names one wire frame kind.
type FrameType string

const (
	// FrameHello opens a session. Client to server it may carry a session
	// ID to resume; server to client it carries the assigned ID and the
	// root node's id in the patch stream.
	FrameHello FrameType = "hello"

	// FramePatch carries recorded document operations, server to client.
	FramePatch FrameType = "patch"

	// FrameEvent carries one user event, client to server.
	FrameEvent FrameType = "event"

	// FramePing and FramePong are application-level heartbeats.
	FramePing FrameType = "ping"
	FramePong FrameType = "pong"

	// FrameError reports a recoverable error without closing the session.
	FrameError FrameType = "error"

	// FrameClose announces an orderly shutdown.
	FrameClose FrameType = "close"
)

// Frame is one JSON message on the session wire. Fields are sparse; which
// ones are set depends on Type.
type Frame struct {
	Type FrameType `json:"type"`

	// Hello fields.
	SessionID string `json:"session,omitempty"`
	Root      uint64 `json:"root,omitempty"`

	// Patch fields. Seq increases by one per patch frame so the client can
	// detect gaps.
	Seq uint64    `json:"seq,omitempty"`
	Ops []host.Op `json:"ops,omitempty"`

	// Event fields. Node is the stable id the patch stream assigned to the
	// target element.
	Node  uint64         `json:"node,omitempty"`
	Event string         `json:"event,omitempty"`
	Data  map[string]any `json:"data,omitempty"`

	// Error and close fields. Code is a registered error code ("R063").
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
