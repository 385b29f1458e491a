package hub

import (
	jsoniter "github.com/json-iterator/go"
)

// Outbound realtime event names.
const (
	EventConnected         = "connected"
	EventNewRequest        = "new_request"
	EventRequestAccepted   = "request_accepted"
	EventRequestRejected   = "request_rejected"
	EventRequestCanceled   = "request_canceled"
	EventNewMessage        = "new_message"
	EventHeReceivedMessage = "he_received_message"
	EventHeReadMessage     = "he_read_message"
	EventAck               = "ack"
	EventError             = "error"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event represents a real-time event to be sent to clients.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// Encode renders the event as a single JSON frame.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
