package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/roach88/pointoforder/internal/bridge"
	"github.com/roach88/pointoforder/internal/engine"
)

// MaxWait bounds a single wait call.
const MaxWait = 10 * time.Second

// NewMCPServer builds a stdio-ready MCP server with every tool registered.
func (s *Server) NewMCPServer(name, version string) *server.MCPServer {
	ms := server.NewMCPServer(name, version)
	s.RegisterTools(ms)
	return ms
}

// RegisterTools adds all puzzle tools to ms.
func (s *Server) RegisterTools(ms *server.MCPServer) {
	ms.AddTool(getStateTool(), s.handleGetState)
	ms.AddTool(pressTool(), s.handlePress)
	ms.AddTool(playTool(), s.handlePlay)
	ms.AddTool(waitTool(), s.handleWait)
}

// Tools lists the tool definitions in registration order.
func Tools() []mcp.Tool {
	return []mcp.Tool{getStateTool(), pressTool(), playTool(), waitTool()}
}

// --- Tool definitions ---

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the pile, the four slots, the mistake count and any events since the last call. Read-only."),
	)
}

func pressTool() mcp.Tool {
	return mcp.NewTool("press",
		mcp.WithDescription("Press a slot. While the cards are face down any slot deals and reveals a new round. "+
			"While they are face up, pressing the card that continues the pile solves the puzzle and any other card is a mistake. "+
			"Locked slots (cards still turning) ignore presses."),
		mcp.WithNumber("slot", mcp.Required(), mcp.Description("Slot number, 1 to 4, left to right")),
	)
}

func playTool() mcp.Tool {
	return mcp.NewTool("play",
		mcp.WithDescription("Reveal a round and press the first card matching a command such as 'play A/10 of hearts/spades'. "+
			"Only valid while the cards are face down. The outcome arrives as events; call wait or get_state to see it."),
		mcp.WithString("command", mcp.Required(), mcp.Description("Command text: play <ranks> of <suits>, with '/' between alternatives")),
	)
}

func waitTool() mcp.Tool {
	return mcp.NewTool("wait",
		mcp.WithDescription("Let the game run for a number of ticks, then return the state and the events that happened. "+
			"Returns early once the puzzle is solved."),
		mcp.WithNumber("ticks", mcp.Required(), mcp.Description("Ticks to wait; long waits are capped at 10 seconds")),
	)
}

// --- Tool handlers ---

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(respondJSON(s.respond(""))), nil
}

func (s *Server) handlePress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slot := request.GetInt("slot", 0)
	if slot < 1 || slot > engine.NumSlots {
		return mcp.NewToolResultErrorf("Invalid slot %d. Must be 1-%d.", slot, engine.NumSlots), nil
	}

	before := s.driver.Snapshot().State
	applied, err := s.driver.PressWait(ctx, slot-1)
	if err != nil {
		return s.stoppedOr(err), nil
	}

	msg := fmt.Sprintf("slot %d pressed", slot)
	if !applied {
		msg = fmt.Sprintf("slot %d ignored while cards are %s", slot, before)
	}
	s.logger.Debug("mcp press", "slot", slot, "applied", applied)
	return mcp.NewToolResultText(respondJSON(s.respond(msg))), nil
}

func (s *Server) handlePlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("command", "")

	cmd, err := s.executor.Execute(ctx, text)
	switch {
	case errors.Is(err, bridge.ErrMalformedCommand):
		return mcp.NewToolResultErrorf("Could not parse %q: %v", text, err), nil
	case engine.IsNotIdle(err):
		return mcp.NewToolResultError("Cards are not face down; wait for the current round to finish."), nil
	case err != nil:
		return s.stoppedOr(err), nil
	}
	return mcp.NewToolResultText(respondJSON(s.respond("started " + cmd.String()))), nil
}

func (s *Server) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticks := request.GetInt("ticks", 0)
	if ticks < 1 {
		return mcp.NewToolResultErrorf("ticks must be >= 1, got %d", ticks), nil
	}

	d := time.Duration(ticks) * s.sess.Machine.Timing().TickInterval
	if d > MaxWait || d <= 0 {
		d = MaxWait
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.driver.Done():
	case <-ctx.Done():
		return mcp.NewToolResultErrorf("Wait cancelled: %v", ctx.Err()), nil
	}
	return mcp.NewToolResultText(respondJSON(s.respond(""))), nil
}

func (s *Server) stoppedOr(err error) *mcp.CallToolResult {
	if errors.Is(err, engine.ErrStopped) {
		return mcp.NewToolResultText(respondJSON(s.respond("session is over")))
	}
	return mcp.NewToolResultErrorf("Error: %v", err)
}
