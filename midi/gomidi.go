package midi

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Virtual/system ports that should never be auto-selected as a hardware
// controller.
var excludedPortPatterns = []string{
	"Midi Through",
	"Announce",
	"Timer",
	"PipeWire",
}

// TranslateMessage converts a gomidi message into a translator event.
// Messages outside the translator's vocabulary come back as EventUnknown.
func TranslateMessage(msg gomidi.Message) Event {
	var channel, key, velocity uint8
	if msg.GetNoteStart(&channel, &key, &velocity) {
		return Event{Type: EventNoteOn, Data1: key, Data2: velocity}
	}
	if msg.GetNoteEnd(&channel, &key) {
		return Event{Type: EventNoteOff, Data1: key}
	}

	var relative int16
	var absolute uint16
	if msg.GetPitchBend(&channel, &relative, &absolute) {
		return Event{Type: EventPitchBend, Value: int(relative)}
	}

	var controller, value uint8
	if msg.GetControlChange(&channel, &controller, &value) {
		return Event{Type: EventControlChange, Data1: controller, Data2: value}
	}

	return Event{Type: EventUnknown}
}

// Input is an open hardware MIDI connection feeding a translator.
type Input struct {
	driver   *rtmididrv.Driver
	port     drivers.In
	stop     func()
	PortName string
}

// OpenInput scans the available MIDI inputs, skips virtual/system ports,
// opens the first remaining hardware port and streams its messages into the
// translator. It returns an error when no usable port exists.
func OpenInput(translator *Translator) (*Input, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}

	ins, err := driver.Ins()
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}

	var port drivers.In
	for _, in := range ins {
		if isExcludedPort(in.String()) {
			continue
		}
		port = in
		break
	}
	if port == nil {
		driver.Close()
		return nil, fmt.Errorf("no hardware midi input found (%d ports scanned)", len(ins))
	}

	if err := port.Open(); err != nil {
		driver.Close()
		return nil, fmt.Errorf("open midi input %q: %w", port.String(), err)
	}

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampMS int32) {
		event := TranslateMessage(msg)
		if event.Type != EventUnknown {
			translator.Handle(event)
		}
	})
	if err != nil {
		_ = port.Close()
		driver.Close()
		return nil, fmt.Errorf("listen on midi input %q: %w", port.String(), err)
	}

	return &Input{
		driver:   driver,
		port:     port,
		stop:     stop,
		PortName: port.String(),
	}, nil
}

// Close stops listening and releases the port and driver.
func (in *Input) Close() {
	if in == nil {
		return
	}
	if in.stop != nil {
		in.stop()
		in.stop = nil
	}
	if in.port != nil {
		_ = in.port.Close()
		in.port = nil
	}
	if in.driver != nil {
		in.driver.Close()
		in.driver = nil
	}
}

func isExcludedPort(name string) bool {
	for _, pattern := range excludedPortPatterns {
		if strings.Contains(strings.ToLower(name), strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
