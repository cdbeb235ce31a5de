package quality

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/handcomposer/model"
)

// ErrMalformed is returned for responses that do not carry a known label.
var ErrMalformed = errors.New("malformed classifier response")

// Remote asks an inference service for the quality of a hand.
type Remote struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

func NewRemote(endpoint string, timeout time.Duration) *Remote {
	return &Remote{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// EncodeHand flattens a hand into the 21 [x,y,z] triples of the wire format.
func EncodeHand(hand *model.Hand) [][]float64 {
	out := make([][]float64, len(hand.Landmarks))
	for i, lm := range hand.Landmarks {
		out[i] = []float64{lm.X, lm.Y, lm.Z}
	}
	return out
}

// Predict makes one call bounded by the configured timeout.
func (r *Remote) Predict(ctx context.Context, hand *model.Hand) (model.Quality, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(model.PredictRequest{Left21: EncodeHand(hand)})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("classifier returned %s", resp.Status)
	}

	var pr model.PredictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&pr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	q, err := model.ParseQuality(pr.Quality)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return q, nil
}
