package protocol

import "encoding/json"

const (
	ActionSubscribe      = "subscribe"
	ActionSubscribeAll   = "subscribe_all"
	ActionUnsubscribe    = "unsubscribe"
	ActionUnsubscribeAll = "unsubscribe_all"
)

const (
	TypeAck   = "ack"
	TypeError = "error"

	StatusSuccess = "success"
)

type WSRequest struct {
	Action  string         `json:"action"`
	Payload RequestPayload `json:"payload"`
	ID      string         `json:"id,omitempty"`
}

type RequestPayload struct {
	Symbols []string `json:"symbols"`
}

// WSResponse answers a WSRequest. Price events are sent as raw models.PriceUpdate
// and never carry a "type" field.
type WSResponse struct {
	Type    string `json:"type"`             // "ack", "error"
	ID      string `json:"id,omitempty"`     // Matches request ID
	Status  string `json:"status,omitempty"` // "success"
	Message string `json:"message,omitempty"`
}

func Ack(id, msg string) WSResponse {
	return WSResponse{Type: TypeAck, ID: id, Status: StatusSuccess, Message: msg}
}

func Error(id, msg string) WSResponse {
	return WSResponse{Type: TypeError, ID: id, Message: msg}
}

// Bytes encodes the response for the wire.
func (r WSResponse) Bytes() []byte {
	b, _ := json.Marshal(r) // strings only, cannot fail
	return b
}
