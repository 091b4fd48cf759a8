package broadcast

import "FinSignal/internal/domain/models"

// Event types pushed to subscribers.
const (
	EventNewSignal   = "new_signal"
	EventPriceTick   = "price_tick"
	EventHistoryDump = "history_dump"
)

// Event is the envelope written to every subscriber.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func newSignalEvent(s models.Signal) Event {
	return Event{Type: EventNewSignal, Data: s}
}

func priceTickEvent(t models.PriceTick) Event {
	return Event{Type: EventPriceTick, Data: t}
}

func historyDumpEvent(signals []models.Signal) Event {
	if signals == nil {
		signals = []models.Signal{}
	}
	return Event{Type: EventHistoryDump, Data: signals}
}
