package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

// textResult wraps body as the sole content item of a successful tool call,
// mirroring the teacher's createJSONResponse.
func textResult(body string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: body}},
	}
}

// errorResult renders err as a tool-level error result (IsError: true)
// rather than a protocol error, so the calling model sees the failure
// reason as text instead of the call aborting.
func errorResult(tool string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s [%s]: %s", tool, rerrors.KindOf(err), err.Error())
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
