//go:build integration

package mcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// fakeServerScript emits a fixed MCP conversation: the initialize response
// for request 1, a stray notification, and a tools/call response for
// request 2, then consumes stdin until the driver shuts it down.
const fakeServerScript = `
echo '{"jsonrpc":"2.0","id":1,"result":{"protocolVersion":"2024-11-05","serverInfo":{"name":"fake-codeblog","version":"9.9.9"}}}'
echo '{"jsonrpc":"2.0","method":"notifications/ready"}'
echo '{"jsonrpc":"2.0","id":2,"result":{"content":[{"type":"text","text":"ok"}],"isError":false}}'
cat > /dev/null
`

type SessionIntegrationSuite struct {
	suite.Suite
	transport *Transport
}

func (s *SessionIntegrationSuite) SetupTest() {
	s.transport = NewTransport([]string{"sh", "-c", fakeServerScript},
		TransportOptions{ShutdownGrace: time.Second}, zap.NewNop())
	s.Require().NoError(s.transport.Start())
}

func (s *SessionIntegrationSuite) TearDownTest() {
	s.Require().NoError(s.transport.Close())
	goleak.VerifyNone(s.T())
}

func (s *SessionIntegrationSuite) TestHandshakeAndCall() {
	sess, err := NewSession(s.transport, SessionOptions{MinServerVersion: "1.0.0"}, zap.NewNop())
	s.Require().NoError(err)

	info, err := sess.Initialize(ClientInfo{Name: "mcpqa", Version: "1.0.0"})
	s.Require().NoError(err)
	s.Equal("fake-codeblog", info.Name)

	res, err := sess.CallTool("codeblog_status", nil, 5*time.Second)
	s.Require().NoError(err)
	s.False(res.IsError)
	s.Equal("ok", res.Text())
}

func TestSessionIntegrationSuite(t *testing.T) {
	suite.Run(t, new(SessionIntegrationSuite))
}
