// Package tokens is the boundary to the option service: the websocket
// client, the outbound request format, and the tagged inbound message
// variants. Payloads are validated here so nothing dynamically typed
// crosses into core logic.
package tokens

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags an inbound message variant.
type Kind string

const (
	// KindOptions carries a ranked list of token alternatives.
	KindOptions Kind = "options"
	// KindStatus reports channel connectivity. The client synthesizes
	// these on dial and read failure; the service may also send them.
	KindStatus Kind = "status"
	// KindPong answers a keepalive ping; dropped after decoding.
	KindPong Kind = "pong"
)

// Option is one ranked token alternative.
type Option struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Message is the validated inbound variant. Exactly the fields for the
// tagged Kind are meaningful.
type Message struct {
	Kind      Kind
	Options   []Option
	Connected bool
	Detail    string
}

type envelope struct {
	Type      string   `json:"type"`
	Options   []Option `json:"options"`
	Connected *bool    `json:"connected"`
	Detail    string   `json:"detail"`
}

// Decode parses and validates one inbound frame. Unknown types and
// malformed payloads return an error; the caller logs and drops them.
// Option probabilities are clamped into [0, 1].
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("tokens: malformed frame: %w", err)
	}
	switch Kind(strings.TrimSpace(env.Type)) {
	case KindOptions:
		opts := make([]Option, 0, len(env.Options))
		for _, o := range env.Options {
			if o.Probability < 0 {
				o.Probability = 0
			}
			if o.Probability > 1 {
				o.Probability = 1
			}
			opts = append(opts, o)
		}
		return Message{Kind: KindOptions, Options: opts}, nil
	case KindStatus:
		connected := env.Connected != nil && *env.Connected
		return Message{Kind: KindStatus, Connected: connected, Detail: env.Detail}, nil
	case KindPong:
		return Message{Kind: KindPong}, nil
	case "":
		return Message{}, fmt.Errorf("tokens: frame missing type")
	default:
		return Message{}, fmt.Errorf("tokens: unknown frame type %q", env.Type)
	}
}

// statusMessage builds a client-synthesized connectivity report.
func statusMessage(connected bool, detail string) Message {
	return Message{Kind: KindStatus, Connected: connected, Detail: detail}
}

// optionRequest is the outbound request frame. Temperature rides along
// for services that forward it to the sampler; others ignore it.
type optionRequest struct {
	Action       string  `json:"action"`
	PromptState  string  `json:"promptState"`
	DesiredCount int     `json:"desiredCount"`
	Temperature  float64 `json:"temperature,omitempty"`
}

const actionRequestOptions = "request-options"
