package models

// AccountEvent is the Kafka payload published after account operations.
type AccountEvent struct {
	EventID   string `json:"event_id"`  // Unique event identifier
	Timestamp int64  `json:"timestamp"` // Unix timestamp of the event
	Operation string `json:"operation"` // "register" or "login"
	Username  string `json:"username"`  // Account the event belongs to
}
