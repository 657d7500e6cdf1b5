package spell

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/exoform/internal/plugin"
)

// PluginAnalyzer delegates analysis to an external oracle plugin.
type PluginAnalyzer struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPluginAnalyzer picks the first discovered plugin supporting the analyze
// action. It returns plugin.ErrPluginNotFound when none is installed.
func NewPluginAnalyzer(manager *plugin.Manager, executor *plugin.Executor) (*PluginAnalyzer, error) {
	p, err := manager.FindByAction(plugin.ActionAnalyze)
	if err != nil {
		return nil, err
	}
	return &PluginAnalyzer{plugin: p, executor: executor}, nil
}

// Name returns the analyzer name.
func (a *PluginAnalyzer) Name() string {
	return "plugin:" + a.plugin.Manifest.Name
}

// Analyze implements Analyzer.
func (a *PluginAnalyzer) Analyze(ctx context.Context, label string, seconds float64) (Record, error) {
	resp, err := a.executor.Execute(ctx, a.plugin, &plugin.Request{
		Action:          plugin.ActionAnalyze,
		Gesture:         label,
		DurationSeconds: seconds,
	})
	if err != nil {
		return Record{}, err
	}
	if !resp.Success {
		if resp.Error == "" {
			return Record{}, errors.New("oracle plugin reported failure")
		}
		return Record{}, fmt.Errorf("oracle plugin: %s", resp.Error)
	}
	if len(resp.Data) == 0 {
		return Record{}, ErrEmptyResponse
	}
	return ParseRecord(resp.Data)
}
