package midi

import (
	"fmt"
	"log/slog"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const ccAllNotesOff = 123

// Out is a Sink writing channel messages through a gomidi send function.
type Out struct {
	channel uint8
	send    func(gomidi.Message) error
	close   func() error
}

// NewOut wraps any send function; OpenVirtual uses it with a real port.
func NewOut(channel uint8, send func(gomidi.Message) error) *Out {
	return &Out{channel: channel, send: send}
}

func (o *Out) NoteOn(note, velocity uint8) error {
	return o.send(gomidi.NoteOn(o.channel, note, velocity))
}

func (o *Out) NoteOff(note uint8) error {
	return o.send(gomidi.NoteOff(o.channel, note))
}

func (o *Out) AllNotesOff() error {
	return o.send(gomidi.ControlChange(o.channel, ccAllNotesOff, 0))
}

func (o *Out) ProgramChange(program uint8) error {
	return o.send(gomidi.ProgramChange(o.channel, program))
}

func (o *Out) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// OpenVirtual creates a virtual output port that DAWs and synths can pick up.
func OpenVirtual(name string, channel uint8, log *slog.Logger) (*Out, error) {
	if log == nil {
		log = slog.Default()
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	port, err := drv.OpenVirtualOut(name)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("open virtual out %q: %w", name, err)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		port.Close()
		drv.Close()
		return nil, fmt.Errorf("send to %q: %w", name, err)
	}
	log.Info("midi: virtual output port created", "port", name, "channel", channel)

	out := NewOut(channel, send)
	out.close = func() error {
		err := port.Close()
		drv.Close()
		return err
	}
	return out, nil
}

// Ports lists the output ports the driver can see, for diagnostics.
func Ports() []string {
	var names []string
	for _, o := range gomidi.GetOutPorts() {
		names = append(names, o.String())
	}
	return names
}
