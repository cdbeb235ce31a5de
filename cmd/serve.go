package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/handcomposer/constants"
	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/quality"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "127.0.0.1:8000", "address for the classifier endpoint")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the chord quality classifier over HTTP",
	Long: `Serves POST /predict, which takes {"left21": [[x,y,z], ...]} and answers
{"quality": "maj"|"min"|"7"} using the spread heuristic. Point remote.endpoint
at it to run the classifier out of process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

// HandlePredict classifies one hand. Anything other than 21 [x,y,z] triples is
// a 400 with a detail message.
func HandlePredict(h quality.Heuristic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			badRequest(w, "could not read body: %v", err)
			return
		}
		var input model.PredictRequest
		if err := json.Unmarshal(body, &input); err != nil {
			badRequest(w, "could not decode body: %v", err)
			return
		}
		if len(input.Left21) != constants.NumLandmarks {
			badRequest(w, "expected %d landmarks, got %d", constants.NumLandmarks, len(input.Left21))
			return
		}
		hand := model.Hand{Side: model.Secondary}
		for i, p := range input.Left21 {
			if len(p) != 3 {
				badRequest(w, "landmark %d has %d values, expected 3", i, len(p))
				return
			}
			hand.Landmarks[i] = model.Landmark{X: p[0], Y: p[1], Z: p[2]}
		}
		writeJSON(w, http.StatusOK, model.PredictResponse{Quality: string(h.Classify(&hand))})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func NewRouter(h quality.Heuristic) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/predict", HandlePredict(h)).Methods(http.MethodPost)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(router)
}

func serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           NewRouter(quality.NewHeuristic(cfg.Quality)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		logger.Info("classifier listening", "addr", serveAddr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("classifier stopped")
	return nil
}
