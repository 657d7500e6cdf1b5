// Package plugin discovers and runs oracle plugins: external executables that
// name and describe a held gesture when no hosted model is configured.
//
// A plugin lives in its own directory with a plugin.json manifest. It receives
// one JSON Request on stdin and must write one JSON Response to stdout.
package plugin

import "encoding/json"

// ActionAnalyze is the action a plugin must list to be used as a spell oracle.
const ActionAnalyze = "analyze"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the manifest lists the given action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action          string          `json:"action"`
	Gesture         string          `json:"gesture"`
	DurationSeconds float64         `json:"durationSeconds"`
	Config          json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
