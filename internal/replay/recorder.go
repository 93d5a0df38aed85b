// Package replay records per-tick snapshots as zstd-compressed JSON lines so
// finished games can be re-rendered without re-running the simulation.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/atlascodesai/snake-ai-arena/internal/sim"
)

// Recorder streams snapshots to an underlying writer. Not safe for
// concurrent use; a recorder belongs to exactly one playback session.
type Recorder struct {
	enc *zstd.Encoder
	bw  *bufio.Writer
}

// NewRecorder wraps w. The caller keeps ownership of w; Close flushes the
// compressed stream but does not close w.
func NewRecorder(w io.Writer) (*Recorder, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("creating zstd writer: %w", err)
	}
	return &Recorder{enc: enc, bw: bufio.NewWriter(enc)}, nil
}

// Record appends one snapshot to the stream.
func (r *Recorder) Record(snap sim.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if _, err := r.bw.Write(b); err != nil {
		return err
	}
	return r.bw.WriteByte('\n')
}

// Close flushes buffered frames and finalizes the compressed stream.
func (r *Recorder) Close() error {
	if err := r.bw.Flush(); err != nil {
		return err
	}
	return r.enc.Close()
}

// ReadAll decodes every snapshot from a recorded stream.
func ReadAll(rd io.Reader) ([]sim.Snapshot, error) {
	dec, err := zstd.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	var out []sim.Snapshot
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var snap sim.Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			return nil, fmt.Errorf("decoding snapshot %d: %w", len(out), err)
		}
		out = append(out, snap)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
