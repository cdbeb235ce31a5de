package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jsphweid/handcomposer/chord"
	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/engine"
	"github.com/jsphweid/handcomposer/hud"
	"github.com/jsphweid/handcomposer/midi"
	"github.com/jsphweid/handcomposer/perception"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <capture.jsonl>",
	Short: "Replays a capture offline and prints the chord timeline",
	Long: `Replays a recorded capture through the mapping loop without a MIDI port,
using each frame's t_ms as the clock, and prints every chord change followed by
a summary. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		return RunReport(cmd.Context(), r, cmd.OutOrStdout(), cfg, logger)
	},
}

// countingSink accepts everything; the report only needs the engine's counters.
type countingSink struct {
	on, off, allOff int
}

func (s *countingSink) NoteOn(note, velocity uint8) error {
	s.on++
	return nil
}

func (s *countingSink) NoteOff(note uint8) error {
	s.off++
	return nil
}

func (s *countingSink) AllNotesOff() error {
	s.allOff++
	return nil
}

func RunReport(ctx context.Context, r io.Reader, w io.Writer, cfg *config.Config, log *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = slog.Default()
	}
	frames, err := perception.ReadFrames(r)
	if err != nil {
		return err
	}

	sink := &countingSink{}
	eng := engine.New(cfg, midi.NewPlayer(sink, log), engine.WithLogger(log), engine.WithPresenter(hud.Discard{}))
	epoch := time.Unix(0, 0)

	fmt.Fprintf(w, "%8s  %-16s %5s %4s %4s\n", "t_ms", "chord", "qual", "vel", "bpm")
	last := ""
	for _, f := range frames {
		res := eng.Tick(ctx, perception.Normalize(f), true, epoch.Add(time.Duration(f.TimeMs)*time.Millisecond))
		label := chord.Label(res.Notes)
		if label != last {
			fmt.Fprintf(w, "%8d  %-16s %5s %4d %4d\n", f.TimeMs, label, res.Quality, res.Velocity, res.Tempo)
			last = label
		}
	}
	eng.Stop()

	sum := eng.Metrics().Summary()
	fmt.Fprintf(w, "\nframes:       %d\n", sum.Ticks)
	fmt.Fprintf(w, "root commits: %d\n", sum.RootCommits)
	fmt.Fprintf(w, "note on/off:  %d/%d\n", sum.NotesOn, sum.NotesOff)
	fmt.Fprintf(w, "released:     %d\n", sink.off-int(sum.NotesOff))
	fmt.Fprintf(w, "latency:      mean %v, p99 %v, max %v\n", sum.MeanLatency, sum.P99Latency, sum.MaxLatency)
	return nil
}
