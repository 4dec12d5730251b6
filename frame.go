package libemit

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Frame is the wire envelope for one emitted event. Args round-trip through
// JSON, so numbers arrive as float64 and objects as map[string]any on the
// receiving side.
type Frame struct {
	Event string `json:"event"`
	Args  []any  `json:"args,omitempty"`
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{event=%s,args=%v}", f.Event, f.Args)
}

func NewFrame(eventType string, args ...any) Frame {
	return Frame{Event: eventType, Args: args}
}

func EncodeFrame(f Frame) ([]byte, error) {
	bts, err := json.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedFrame, err.Error())
	}
	return bts, nil
}

func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, errors.Wrap(ErrMalformedFrame, err.Error())
	}
	if f.Event == "" {
		return Frame{}, errors.Wrap(ErrMalformedFrame, "missing event name")
	}
	return f, nil
}
