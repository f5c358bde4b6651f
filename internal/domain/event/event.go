package event

import (
	"encoding/json"
	"fmt"
)

type Type string

const (
	PaymentCompleted Type = "payment.completed"
	PaymentFailed    Type = "payment.failed"
)

type Event struct {
	Type    Type
	Payload any
}

// DecodePayload rebuilds the typed payload of a stored event.
func DecodePayload(t Type, data []byte) (any, error) {
	switch t {
	case PaymentCompleted, PaymentFailed:
		var p PaymentSettledPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown event type %q", t)
}
