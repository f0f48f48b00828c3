package document

import (
	"encoding/json"
	"fmt"
)

// Envelope tags an overlay with its kind for hosts that cannot switch on
// Go types.
type Envelope struct {
	Kind Kind    `json:"kind"`
	Data Overlay `json:"data"`
}

type rawEnvelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func Envelopes(list []Overlay) []Envelope {
	out := make([]Envelope, len(list))
	for i, o := range list {
		out[i] = Envelope{Kind: o.Kind(), Data: o}
	}
	return out
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw rawEnvelope
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	o, err := newOverlay(raw.Kind)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw.Data, o); err != nil {
		return fmt.Errorf("decode %s: %w", raw.Kind, err)
	}
	e.Kind = raw.Kind
	e.Data = o
	return nil
}

func newOverlay(k Kind) (Overlay, error) {
	switch k {
	case KindText:
		return &Text{}, nil
	case KindRect:
		return &Rect{}, nil
	case KindCircle:
		return &Circle{}, nil
	case KindLine:
		return &Line{}, nil
	case KindArrow:
		return &Arrow{}, nil
	case KindHighlight:
		return &Highlight{}, nil
	case KindWhiteout:
		return &Whiteout{}, nil
	case KindDrawing:
		return &Drawing{}, nil
	case KindSignature:
		return &Signature{}, nil
	case KindImage:
		return &Image{}, nil
	}
	return nil, fmt.Errorf("unknown overlay kind %q", k)
}
