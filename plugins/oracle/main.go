// Package main provides an offline spell oracle plugin.
// It names a held gesture from its label and hold duration without any
// network access.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ayusman/exoform/internal/plugin"
)

func main() {
	run(os.Stdin, os.Stdout)
}

func run(in io.Reader, out io.Writer) {
	// Read request from stdin
	var req plugin.Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		writeResponse(out, plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	if req.Action != plugin.ActionAnalyze {
		writeResponse(out, plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	rec, err := divine(req.Gesture, req.DurationSeconds)
	if err != nil {
		writeResponse(out, plugin.Response{Error: err.Error()})
		return
	}

	data, err := json.Marshal(rec)
	if err != nil {
		writeResponse(out, plugin.Response{Error: fmt.Sprintf("failed to encode record: %v", err)})
		return
	}
	writeResponse(out, plugin.Response{Success: true, Data: data})
}

// writeResponse writes a response to out.
func writeResponse(out io.Writer, resp plugin.Response) {
	json.NewEncoder(out).Encode(resp)
}
