package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/handcomposer/engine"
	"github.com/jsphweid/handcomposer/hud"
	"github.com/jsphweid/handcomposer/midi"
	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/perception"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	replayPath string
	portName   string
	channel    int
	program    int
	useRemote  bool
	endpoint   string
	listPorts  bool
)

func init() {
	f := playCmd.Flags()
	f.StringVar(&listenAddr, "listen", "", "websocket address trackers connect to (overrides perception.listen)")
	f.StringVar(&replayPath, "replay", "", "play a recorded JSON-lines capture instead of listening")
	f.StringVar(&portName, "port-name", "", "name of the virtual MIDI output port")
	f.IntVar(&channel, "channel", 0, "MIDI channel, 0-15")
	f.IntVar(&program, "program", -1, "program change sent when the port opens, -1 for none")
	f.BoolVar(&useRemote, "remote", false, "ask the remote classifier for chord quality")
	f.StringVar(&endpoint, "endpoint", "", "remote classifier URL")
	f.BoolVar(&listPorts, "list-ports", false, "list the MIDI output ports and exit")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Maps live hand tracking to chords on a virtual MIDI port",
	Long: `Opens a virtual MIDI output and a websocket endpoint at /hands. Each tracker
frame is {"t_ms": ..., "hands": [{"label": "Right", "landmarks": [[x,y,z], ...]}]}.
Ctrl-C releases every sounding note before exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listPorts {
			for _, p := range midi.Ports() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		}
		if err := applyPlayFlags(cmd); err != nil {
			return err
		}
		return play(cmd.Context())
	},
}

func applyPlayFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("listen") {
		cfg.Perception.Listen = listenAddr
	}
	if f.Changed("port-name") {
		cfg.Output.PortName = portName
	}
	if f.Changed("channel") {
		cfg.Output.Channel = channel
	}
	if f.Changed("program") {
		cfg.Output.Program = program
	}
	if f.Changed("remote") {
		cfg.Remote.Enabled = useRemote
	}
	if f.Changed("endpoint") {
		cfg.Remote.Endpoint = endpoint
	}
	return cfg.Validate()
}

func newHandsRouter(hub *perception.Hub) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Handle("/hands", hub)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	return cors.Default().Handler(router)
}

// replayUntilDone cancels the run once the capture has been played out.
type replayUntilDone struct {
	*perception.Replay
	cancel context.CancelFunc
}

func (r replayUntilDone) Next() (model.Observation, bool) {
	obs, fresh := r.Replay.Next()
	if r.Replay.Done() {
		r.cancel()
	}
	return obs, fresh
}

func play(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := midi.OpenVirtual(cfg.Output.PortName, uint8(cfg.Output.Channel), logger)
	if err != nil {
		return err
	}
	defer out.Close()
	if cfg.Output.Program >= 0 {
		if err := out.ProgramChange(uint8(cfg.Output.Program)); err != nil {
			logger.Warn("midi: program change failed", "program", cfg.Output.Program, "err", err)
		}
	}

	eng := engine.New(cfg, midi.NewPlayer(out, logger),
		engine.WithLogger(logger),
		engine.WithPresenter(hud.NewConsole(os.Stdout, 150*time.Millisecond)),
	)

	var src perception.Source
	if replayPath != "" {
		f, err := os.Open(replayPath)
		if err != nil {
			return err
		}
		frames, err := perception.ReadFrames(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("replay %s: %w", replayPath, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		src = replayUntilDone{Replay: perception.NewReplay(frames), cancel: cancel}
		logger.Info("replaying capture", "path", replayPath, "frames", len(frames))
	} else {
		hub := perception.NewHub(logger)
		srv := &http.Server{
			Addr:              cfg.Perception.Listen,
			Handler:           newHandsRouter(hub),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("waiting for trackers", "addr", cfg.Perception.Listen, "path", "/hands")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("perception listener failed", "err", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		src = hub
	}

	if err := eng.Run(ctx, src); err != nil {
		return err
	}
	sum := eng.Metrics().Summary()
	logger.Info("session finished", "ticks", sum.Ticks, "notes_on", sum.NotesOn, "notes_off", sum.NotesOff,
		"mean_latency", sum.MeanLatency, "p99_latency", sum.P99Latency)
	return nil
}
