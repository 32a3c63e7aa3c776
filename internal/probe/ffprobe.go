// Package probe extracts media metadata from stored videos by shelling out
// to ffprobe. Probing is best-effort: an unavailable or failing tool degrades
// to "duration unknown" and must never abort the upload workflow.
package probe

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Outcome classifies the result of a probe attempt.
type Outcome int

const (
	// OutcomeCompleted means the duration was determined.
	OutcomeCompleted Outcome = iota
	// OutcomeDegraded means the tool was unavailable or its output unusable;
	// the caller falls back to client-side duration detection.
	OutcomeDegraded
	// OutcomeFailed means the stored file itself could not be read.
	OutcomeFailed
)

// Result carries the metadata extracted from a stored video. Duration is nil
// when probing degraded.
type Result struct {
	Outcome  Outcome
	Duration *float64
	Width    int
	Height   int
}

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// FFProbe determines video durations using the ffprobe CLI tool.
type FFProbe struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFProbe constructs a prober that shells out to ffprobe.
func NewFFProbe(binary string, timeout time.Duration) *FFProbe {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFProbe{
		Binary:  binary,
		Args:    []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Probe inspects the file at path. Expected failures are encoded in the
// returned Result rather than an error so callers never have to guess which
// errors are fatal.
func (p *FFProbe) Probe(ctx context.Context, path string) Result {
	if _, err := os.Stat(path); err != nil {
		return Result{Outcome: OutcomeFailed}
	}

	if p == nil {
		return Result{Outcome: OutcomeDegraded}
	}
	run := p.Run
	if run == nil {
		run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, path)

	out, err := run(execCtx, p.Binary, args...)
	if err != nil {
		return Result{Outcome: OutcomeDegraded}
	}

	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return Result{Outcome: OutcomeDegraded}
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(payload.Format.Duration), 64)
	if err != nil || duration < 0 {
		return Result{Outcome: OutcomeDegraded}
	}

	result := Result{Outcome: OutcomeCompleted, Duration: &duration}
	for _, stream := range payload.Streams {
		if stream.CodecType == "video" {
			result.Width = stream.Width
			result.Height = stream.Height
			break
		}
	}

	return result
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
