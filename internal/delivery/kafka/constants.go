package kafka

const (
	DefaultEventsTopic   = "thequeue.request.events"
	DefaultCommandsTopic = "thequeue.request.commands"

	HeaderEventType = "event_type"
	HeaderSequence  = "sequence"
	HeaderTimestamp = "timestamp"
)
