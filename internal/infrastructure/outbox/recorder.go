package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
)

type Recorder struct {
	Repo  Repository
	Clock clockz.Clock
}

func (r *Recorder) Record(evt event.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", evt.Type, err)
	}

	clock := r.Clock
	if clock == nil {
		clock = clockz.RealClock
	}

	return r.Repo.Save(OutboxEvent{
		ID:        uuid.NewString(),
		Type:      evt.Type,
		Payload:   payload,
		CreatedAt: clock.Now().UTC(),
	})
}
