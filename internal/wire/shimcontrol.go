package wire

import "encoding/json"

// ShimControlRequest is the union of JSON control messages the Daemon
// sends to a Shim, discriminated by "type" (§4.1/§4.3).
type ShimControlRequest struct {
	Type string `json:"type"`
	Rows uint16 `json:"rows,omitempty"`
	Cols uint16 `json:"cols,omitempty"`
}

func ResizeRequest(rows, cols uint16) ShimControlRequest {
	return ShimControlRequest{Type: "resize", Rows: rows, Cols: cols}
}

func StatusRequest() ShimControlRequest   { return ShimControlRequest{Type: "status"} }
func ShutdownRequest() ShimControlRequest { return ShimControlRequest{Type: "shutdown"} }
func DrainBufferRequest() ShimControlRequest {
	return ShimControlRequest{Type: "drain_buffer"}
}

// ShimControlResponse is the union of JSON control replies a Shim sends
// back, discriminated by "type".
type ShimControlResponse struct {
	Type string `json:"type"`

	// status_info
	ShellPID int    `json:"shell_pid,omitempty"`
	Running  bool   `json:"running,omitempty"`
	Rows     uint16 `json:"rows,omitempty"`
	Cols     uint16 `json:"cols,omitempty"`

	// shell_exited
	ExitCode *int64 `json:"exit_code,omitempty"`
}

func StatusInfoResponse(shellPID int, running bool, rows, cols uint16) ShimControlResponse {
	return ShimControlResponse{Type: "status_info", ShellPID: shellPID, Running: running, Rows: rows, Cols: cols}
}

func ShellExitedResponse(exitCode *int64) ShimControlResponse {
	return ShimControlResponse{Type: "shell_exited", ExitCode: exitCode}
}

// ParseShimControlRequest decodes a raw JSON control payload captured
// by ParseFrame into a typed request.
func ParseShimControlRequest(raw []byte) (ShimControlRequest, error) {
	var req ShimControlRequest
	err := json.Unmarshal(raw, &req)
	return req, err
}

// ParseShimControlResponse decodes a raw JSON control payload into a
// typed response.
func ParseShimControlResponse(raw []byte) (ShimControlResponse, error) {
	var resp ShimControlResponse
	err := json.Unmarshal(raw, &resp)
	return resp, err
}
