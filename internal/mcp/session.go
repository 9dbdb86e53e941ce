package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

const (
	// DefaultProtocolVersion is the MCP protocol revision spoken during
	// the initialize handshake.
	DefaultProtocolVersion = "2024-11-05"

	// DefaultHandshakeTimeout bounds the initialize round trip.
	DefaultHandshakeTimeout = 20 * time.Second
)

// errDeadline marks an expired response wait inside roundTrip; callers
// translate it into the operation-specific timeout error.
var errDeadline = errors.New("response deadline elapsed")

// Conn is the line-oriented pipe a Session drives. *Transport implements
// it; tests substitute scripted fakes.
type Conn interface {
	WriteLine(line []byte) error
	ReadLine(deadline time.Time) (string, bool, error)
}

// SessionOptions tunes the handshake.
type SessionOptions struct {
	ProtocolVersion  string
	HandshakeTimeout time.Duration

	// MinServerVersion, when set, is a semver floor enforced against
	// serverInfo.version from initialize.
	MinServerVersion string
}

// Session speaks JSON-RPC 2.0 over a Conn with a single request in flight
// at a time. Request IDs start at 1 and increment per request; inbound
// lines that do not carry the awaited ID (notifications, stale responses)
// are skipped without failing the wait.
type Session struct {
	conn   Conn
	opts   SessionOptions
	logger *zap.Logger

	nextID     int64
	minVersion *semver.Version
	server     *ServerInfo
}

// NewSession wraps an established connection. Initialize must complete
// before CallTool.
func NewSession(conn Conn, opts SessionOptions, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ProtocolVersion == "" {
		opts.ProtocolVersion = DefaultProtocolVersion
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	s := &Session{conn: conn, opts: opts, logger: logger, nextID: 1}
	if opts.MinServerVersion != "" {
		floor, err := semver.NewVersion(opts.MinServerVersion)
		if err != nil {
			return nil, fmt.Errorf("parse min server version %q: %w", opts.MinServerVersion, err)
		}
		s.minVersion = floor
	}
	return s, nil
}

// Server returns the identity reported by initialize, or nil before the
// handshake.
func (s *Session) Server() *ServerInfo {
	return s.server
}

// Initialize performs the MCP handshake: an initialize request followed
// by the notifications/initialized notification once the server answers.
func (s *Session) Initialize(info ClientInfo) (*ServerInfo, error) {
	params := map[string]interface{}{
		"protocolVersion": s.opts.ProtocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo":      info,
	}
	raw, rpcErr, err := s.roundTrip("initialize", params, time.Now().Add(s.opts.HandshakeTimeout))
	if err != nil {
		if errors.Is(err, errDeadline) {
			return nil, &HandshakeError{Err: fmt.Errorf("no initialize response within %s", s.opts.HandshakeTimeout)}
		}
		return nil, &HandshakeError{Err: err}
	}
	if rpcErr != nil {
		return nil, &HandshakeError{Err: fmt.Errorf("initialize rejected: %s (code %d)", rpcErr.Message, rpcErr.Code)}
	}

	var result struct {
		ProtocolVersion string     `json:"protocolVersion"`
		ServerInfo      ServerInfo `json:"serverInfo"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &HandshakeError{Err: fmt.Errorf("parse initialize result: %w", err)}
	}
	if err := s.checkServerVersion(result.ServerInfo); err != nil {
		return nil, err
	}

	if err := s.Notify("notifications/initialized", nil); err != nil {
		return nil, &HandshakeError{Err: err}
	}
	s.server = &result.ServerInfo
	s.logger.Info("mcp session initialized",
		zap.String("server", result.ServerInfo.Name),
		zap.String("server_version", result.ServerInfo.Version),
		zap.String("protocol", result.ProtocolVersion))
	return &result.ServerInfo, nil
}

// CallTool invokes a tool via tools/call and waits up to timeout for the
// matching response. The ToolResult may carry IsError for tool-level
// failures; transport and protocol failures come back as typed errors.
func (s *Session) CallTool(name string, args map[string]interface{}, timeout time.Duration) (*ToolResult, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	start := time.Now()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	raw, rpcErr, err := s.roundTrip("tools/call", params, start.Add(timeout))
	if err != nil {
		if errors.Is(err, errDeadline) {
			return nil, &TimeoutError{Tool: name, Elapsed: time.Since(start)}
		}
		return nil, err
	}
	if rpcErr != nil {
		return nil, &RemoteError{Tool: name, Code: rpcErr.Code, Message: rpcErr.Message}
	}

	var result ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse tools/call result for %s: %w", name, err)
	}
	return &result, nil
}

// Notify sends a fire-and-forget notification (no ID, no response).
func (s *Session) Notify(method string, params interface{}) error {
	data, err := json.Marshal(request{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s notification: %w", method, err)
	}
	return s.conn.WriteLine(data)
}

// checkServerVersion enforces the configured semver floor. Servers that
// report an unparseable version are let through with a warning.
func (s *Session) checkServerVersion(info ServerInfo) error {
	if s.minVersion == nil || info.Version == "" {
		return nil
	}
	v, err := semver.NewVersion(info.Version)
	if err != nil {
		s.logger.Warn("server version is not semver, skipping floor check",
			zap.String("version", info.Version))
		return nil
	}
	if v.LessThan(s.minVersion) {
		return &HandshakeError{Err: fmt.Errorf("server %s v%s is older than required v%s",
			info.Name, info.Version, s.minVersion)}
	}
	return nil
}

// roundTrip sends one request and reads until the response carrying its
// ID arrives. Unparseable lines are skipped with a warning so stray
// stdout noise cannot kill an otherwise healthy wait; the deadline bounds
// the loop either way.
func (s *Session) roundTrip(method string, params interface{}, deadline time.Time) (json.RawMessage, *RPCError, error) {
	id := s.nextID
	s.nextID++
	data, err := json.Marshal(request{JSONRPC: "2.0", ID: &id, Method: method, Params: params})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s request: %w", method, err)
	}
	if err := s.conn.WriteLine(data); err != nil {
		return nil, nil, err
	}

	for {
		line, ok, err := s.conn.ReadLine(deadline)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, errDeadline
		}

		var env envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			s.logger.Warn("skipping unparseable server line",
				zap.Error(err), zap.Int("bytes", len(line)))
			continue
		}
		if env.ID == nil {
			s.logger.Debug("skipping server notification", zap.String("method", env.Method))
			continue
		}
		if *env.ID != id {
			s.logger.Debug("skipping response for another request",
				zap.Int64("got", *env.ID), zap.Int64("want", id))
			continue
		}
		if env.Error != nil {
			return nil, env.Error, nil
		}
		return env.Result, nil, nil
	}
}
