package perception

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jsphweid/handcomposer/model"
)

// ReadFrames decodes a JSON-lines capture, one frame per line. Blank lines are
// skipped.
func ReadFrames(r io.Reader) ([]model.Frame, error) {
	var frames []model.Frame
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var f model.Frame
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// Replay hands out one recorded frame per poll and reports stale ticks once
// the capture is exhausted.
type Replay struct {
	frames []model.Frame
	pos    int
}

func NewReplay(frames []model.Frame) *Replay {
	return &Replay{frames: frames}
}

func (r *Replay) Next() (model.Observation, bool) {
	if r.pos >= len(r.frames) {
		return model.Observation{}, false
	}
	f := r.frames[r.pos]
	r.pos++
	return Normalize(f), true
}

func (r *Replay) Done() bool {
	return r.pos >= len(r.frames)
}
