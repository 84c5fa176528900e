// Package transport is the thin D5 client that dials the controller's
// websocket endpoint, sends the §6 hello envelope, and forwards command/
// result envelopes to/from the Dispatcher. Reconnection and handshake
// hardening are explicitly the enclosing host's job (§1 out of scope) —
// this package dials once and surfaces a dropped connection as a plain
// error. Grounded on internal/websocket/handler.go's message shape from the
// teacher repo (client side here, not server side) using its same
// gorilla/websocket dependency.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/gorilla/websocket"

	"github.com/deskstratum/agent/internal/dispatch"
	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/logging"
)

var log = logging.Named("transport")

// Hello is the optional registration message sent immediately after connect
// (§6 "Optional registration hello").
type Hello struct {
	Type            string   `json:"type"`
	AgentName       string   `json:"agentName"`
	Version         string   `json:"version"`
	Platform        string   `json:"platform"`
	SupportedLayers []string `json:"supportedLayers"`
}

var defaultLayers = []string{"shell", "browser", "accessibility", "vision", "system"}

// Client owns one websocket connection to the controller.
type Client struct {
	conn   *websocket.Conn
	disp   *dispatch.Dispatcher
	agent  string
	version string
}

// Dial connects to url and returns a Client. Call Run to start forwarding.
func Dial(url, agentName, version string, disp *dispatch.Dispatcher) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn, disp: disp, agent: agentName, version: version}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Run sends the hello envelope, then loops reading command envelopes and
// writing result envelopes until the connection drops or ctx is cancelled.
// Non-command inbound messages are logged and ignored (§6); malformed JSON
// produces an error result with id "unknown".
func (c *Client) Run(ctx context.Context) error {
	hello := Hello{
		Type:            "hello",
		AgentName:       c.agent,
		Version:         c.version,
		Platform:        runtime.GOOS,
		SupportedLayers: defaultLayers,
	}
	if err := c.conn.WriteJSON(hello); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			result := envelope.NewErrorResult("unknown", fmt.Errorf("malformed JSON: %w", err))
			c.send(result)
			continue
		}
		if probe.Type != "command" {
			log.Infof("ignoring non-command message of type %q", probe.Type)
			continue
		}

		cmd, err := envelope.ParseCommand(raw)
		if err != nil {
			c.send(envelope.NewErrorResult("unknown", err))
			continue
		}

		result := c.disp.Dispatch(ctx, cmd)
		c.send(result)
	}
}

func (c *Client) send(result envelope.Result) {
	if err := c.conn.WriteJSON(result); err != nil {
		log.Errorf("write result: %v", err)
	}
}
