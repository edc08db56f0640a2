package model

type PlayEventType string

const (
	EventUpserted       PlayEventType = "upserted"
	EventRemoved        PlayEventType = "removed"
	EventCongratulation PlayEventType = "congratulation"
)

// PlayEvent Уведомление об изменении коллекции игр
type PlayEvent struct {
	Type   PlayEventType
	Record PlayRecord
}
