package midi

import (
	"errors"
	"log/slog"

	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/util"
)

// ErrSinkDead is returned once the output has failed and been muted.
var ErrSinkDead = errors.New("midi output is dead")

// Sink is the note transport. Sending a note-off for a silent note must be
// harmless.
type Sink interface {
	NoteOn(note, velocity uint8) error
	NoteOff(note uint8) error
	AllNotesOff() error
}

// Player owns the held-note set and is the only writer of it. The set mirrors
// exactly the notes confirmed sent on and not yet sent off.
type Player struct {
	sink Sink
	held Held
	dead bool
	log  *slog.Logger
}

func NewPlayer(sink Sink, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	return &Player{sink: sink, held: make(Held), log: log}
}

func (p *Player) Held() model.Notes {
	return util.SortedKeys(p.held)
}

func (p *Player) Dead() bool {
	return p.dead
}

// markDead mutes the sink for the rest of the session; the warning is logged once.
func (p *Player) markDead(err error) {
	if p.dead {
		return
	}
	p.dead = true
	p.log.Warn("midi: send failed, muting output for this session", "err", err)
}

// Plan diffs target against the held set without sending anything.
func (p *Player) Plan(target model.Notes) (on, off model.Notes) {
	on, off, _ = Apply(p.held, target)
	return on, off
}

// Emit sends every note-on, then every note-off, updating the held set after
// each confirmed send. It returns the events that were actually delivered.
func (p *Player) Emit(on, off model.Notes, velocity int) (sentOn, sentOff model.Notes, err error) {
	if p.dead {
		return nil, nil, ErrSinkDead
	}
	vel := uint8(util.Clamp(velocity, 1, 127))

	for _, n := range on {
		if err := p.sink.NoteOn(n, vel); err != nil {
			p.markDead(err)
			return sentOn, sentOff, err
		}
		p.held[n] = true
		sentOn = append(sentOn, n)
	}
	for _, n := range off {
		if err := p.sink.NoteOff(n); err != nil {
			p.markDead(err)
			return sentOn, sentOff, err
		}
		delete(p.held, n)
		sentOff = append(sentOff, n)
	}
	if len(sentOn)+len(sentOff) > 0 {
		p.log.Debug("midi: chord transition", "on", sentOn, "off", sentOff, "velocity", vel)
	}
	return sentOn, sentOff, nil
}

// Play moves the sounding notes to target with the minimal set of events.
func (p *Player) Play(target model.Notes, velocity int) (sentOn, sentOff model.Notes, err error) {
	on, off := p.Plan(target)
	return p.Emit(on, off, velocity)
}

// Panic sends note-off for every held note, then all-notes-off, and clears the
// held set. It bypasses the diff and is used for stop and recovery.
func (p *Player) Panic() model.Notes {
	released := p.Held()
	if p.dead {
		p.held = make(Held)
		return nil
	}
	for _, n := range released {
		if err := p.sink.NoteOff(n); err != nil {
			p.markDead(err)
			break
		}
	}
	if !p.dead {
		if err := p.sink.AllNotesOff(); err != nil {
			p.markDead(err)
		}
	}
	p.held = make(Held)
	p.log.Info("midi: panic, all notes released", "count", len(released))
	return released
}
