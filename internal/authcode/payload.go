// Package authcode decodes the verification code messages published to the
// listener's topic.
package authcode

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyPayload is returned when the body decodes to JSON null
var ErrEmptyPayload = errors.New("empty payload")

// Payload is one verification code and the label of the service that sent it
type Payload struct {
	Code   string `json:"code"`
	Source string `json:"source"`
}

// Decode parses a message body. Field names match case-insensitively, unknown
// fields are ignored and missing fields are left empty. Anything that is not a
// JSON object is rejected.
func Decode(data []byte) (*Payload, error) {
	var p *Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if p == nil {
		return nil, ErrEmptyPayload
	}
	return p, nil
}

// Message is the notification body announcing the copied code
func (p *Payload) Message() string {
	return fmt.Sprintf("Copied code %s from %s", p.Code, p.Source)
}
