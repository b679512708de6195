package simulation

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/performance"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

// Report summarizes a finished run.
type Report struct {
	Name         string                     `json:"name"`
	SimulationID string                     `json:"simulation_id"`
	Ticks        uint64                     `json:"ticks"`
	Duration     time.Duration              `json:"duration_ns"`
	Final        pool.Stats                 `json:"final"`
	TickP50      time.Duration              `json:"tick_p50_ns"`
	TickP99      time.Duration              `json:"tick_p99_ns"`
	TickMax      time.Duration              `json:"tick_max_ns"`
	WorldAlive   uint64                     `json:"world_alive"`
	TracePath    string                     `json:"trace_path,omitempty"`
	Resources    *performance.ResourceUsage `json:"resources,omitempty"`
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode report")
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write report")
	}
	return nil
}
