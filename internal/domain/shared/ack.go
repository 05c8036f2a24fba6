package shared

import (
	"bytes"
	"encoding/json"
)

// Ack is the acknowledgement body returned by mutations without a payload.
// The backend may answer with any JSON value; Raw keeps it as received.
type Ack struct {
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// UnmarshalJSON accepts any JSON value. A string becomes Message, an object
// contributes its "message" field, null leaves the ack empty.
func (a *Ack) UnmarshalJSON(data []byte) error {
	*a = Ack{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	a.Raw = append(json.RawMessage(nil), trimmed...)

	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &a.Message)
	case '{':
		var body struct {
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &body); err != nil {
			return err
		}
		if len(body.Message) > 0 && body.Message[0] == '"' {
			return json.Unmarshal(body.Message, &a.Message)
		}
	}
	return nil
}
