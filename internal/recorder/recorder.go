// Package recorder keeps a tick-by-tick trace of pool statistics and exports
// it as JSON lines, optionally compressed.
package recorder

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/spawnpool/pkg/compression"
	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

// Sample is the state of a pool at the end of one tick.
type Sample struct {
	Tick uint64 `json:"tick"`
	pool.Stats
	// Duration is the wall time of the tick
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// Recorder accumulates samples in memory.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

// New creates a recorder with room for capacity samples.
func New(capacity int) *Recorder {
	if capacity < 0 {
		capacity = 0
	}
	return &Recorder{samples: make([]Sample, 0, capacity)}
}

// Record appends the stats observed at tick.
func (r *Recorder) Record(tick uint64, s pool.Stats) {
	r.RecordSample(Sample{Tick: tick, Stats: s})
}

// RecordSample appends a fully populated sample.
func (r *Recorder) RecordSample(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// Samples returns a copy of the recorded samples.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Len returns the number of samples.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Last returns the most recent sample.
func (r *Recorder) Last() (Sample, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.samples) == 0 {
		return Sample{}, false
	}
	return r.samples[len(r.samples)-1], true
}

// Export writes one JSON object per sample to w, compressed with algo.
func (r *Recorder) Export(w io.Writer, algo compression.Algorithm) error {
	samples := r.Samples()

	cw, err := compression.NewWriter(w, algo)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cw)
	for i := range samples {
		if err := enc.Encode(&samples[i]); err != nil {
			_ = cw.Close()
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode sample").
				WithDetail("tick", samples[i].Tick)
		}
	}

	if err := cw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to flush trace").
			WithDetail("compression", string(algo))
	}
	return nil
}

// WriteFile exports the trace to path.
func (r *Recorder) WriteFile(path string, algo compression.Algorithm) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is controlled by caller
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create trace file").
			WithDetail("path", path)
	}

	bw := bufio.NewWriter(f)
	if err := r.Export(bw, algo); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write trace file").
			WithDetail("path", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close trace file").
			WithDetail("path", path)
	}
	return nil
}

// ReadSamples decodes a trace written by Export.
func ReadSamples(src io.Reader, algo compression.Algorithm) ([]Sample, error) {
	cr, err := compression.NewReader(src, algo)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	var samples []Sample
	dec := json.NewDecoder(cr)
	for {
		var s Sample
		if err := dec.Decode(&s); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to decode sample").
				WithDetail("index", len(samples))
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// ReadFile decodes the trace stored at path.
func ReadFile(path string, algo compression.Algorithm) ([]Sample, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is controlled by caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open trace file").
			WithDetail("path", path)
	}
	defer f.Close()
	return ReadSamples(bufio.NewReader(f), algo)
}
