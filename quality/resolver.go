// Package quality resolves the chord quality from the secondary hand, either
// locally or through a remote classifier with a local fallback.
package quality

import (
	"context"
	"log/slog"

	"github.com/jellydator/ttlcache/v3"
	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/model"
)

type Mode int

const (
	Local Mode = iota
	RemoteMode
)

func (m Mode) String() string {
	if m == RemoteMode {
		return "remote"
	}
	return "local"
}

const cooldownKey = "remote"

// Resolver never fails: any remote problem degrades to the local heuristic
// within the same call.
type Resolver struct {
	mode      Mode
	heuristic Heuristic
	remote    *Remote
	cooldown  *ttlcache.Cache[string, error]
	failing   bool
	cfg       config.Remote
	log       *slog.Logger
}

func NewResolver(cfg *config.Config, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	r := &Resolver{
		mode:      Local,
		heuristic: NewHeuristic(cfg.Quality),
		cfg:       cfg.Remote,
		log:       log,
	}
	if cfg.Remote.Enabled {
		r.mode = RemoteMode
		r.remote = NewRemote(cfg.Remote.Endpoint, cfg.Remote.Timeout())
		r.cooldown = ttlcache.New[string, error](
			ttlcache.WithDisableTouchOnHit[string, error](),
		)
	}
	return r
}

func (r *Resolver) Mode() Mode {
	return r.mode
}

// Degraded reports whether the last remote call failed. It stays set while
// the cooldown skips the remote.
func (r *Resolver) Degraded() bool {
	return r.failing
}

func (r *Resolver) coolingDown() bool {
	return r.cooldown != nil && r.cooldown.Get(cooldownKey) != nil
}

// Resolve returns the quality for the secondary hand, "maj" when it is absent.
func (r *Resolver) Resolve(ctx context.Context, hand *model.Hand) model.Quality {
	if hand == nil {
		return model.Major
	}
	if r.mode == RemoteMode && !r.coolingDown() {
		q, err := r.remote.Predict(ctx, hand)
		if err == nil {
			if r.failing {
				r.log.Info("quality: remote classifier recovered", "endpoint", r.cfg.Endpoint)
			}
			r.failing = false
			return q
		}
		r.degrade(err)
	}
	return r.heuristic.Classify(hand)
}

func (r *Resolver) degrade(err error) {
	r.failing = true
	r.log.Warn("quality: remote classifier unavailable, using local heuristic",
		"endpoint", r.cfg.Endpoint, "retry_in", r.cfg.Cooldown(), "err", err)
	if r.cfg.CooldownMs > 0 {
		r.cooldown.Set(cooldownKey, err, r.cfg.Cooldown())
	}
}
