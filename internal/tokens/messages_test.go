package tokens

import (
	"encoding/json"
	"testing"
)

func TestDecodeOptions(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"options","options":[
		{"label":" blue","probability":0.62},
		{"label":" grey","probability":0.21}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Kind != KindOptions || len(msg.Options) != 2 {
		t.Fatalf("got %+v", msg)
	}
	if msg.Options[0] != (Option{Label: " blue", Probability: 0.62}) {
		t.Fatalf("first option %+v", msg.Options[0])
	}
}

func TestDecodeClampsProbabilities(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"options","options":[
		{"label":"a","probability":-0.5},
		{"label":"b","probability":1.7}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Options[0].Probability != 0 || msg.Options[1].Probability != 1 {
		t.Fatalf("probabilities not clamped: %+v", msg.Options)
	}
}

func TestDecodeEmptyOptionsIsValid(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"options","options":[]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Kind != KindOptions || len(msg.Options) != 0 {
		t.Fatalf("got %+v", msg)
	}
}

func TestDecodeStatus(t *testing.T) {
	up, err := Decode([]byte(`{"type":"status","connected":true,"detail":"ready"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if up.Kind != KindStatus || !up.Connected || up.Detail != "ready" {
		t.Fatalf("got %+v", up)
	}
	// A status frame without the connected field reads as down.
	down, err := Decode([]byte(`{"type":"status"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if down.Connected {
		t.Fatalf("missing connected field must read as down")
	}
}

func TestDecodePong(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"pong"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Kind != KindPong {
		t.Fatalf("got %+v", msg)
	}
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	cases := map[string]string{
		"unknown type": `{"type":"surprise"}`,
		"missing type": `{"options":[]}`,
		"not json":     `{"type":`,
	}
	for name, frame := range cases {
		if _, err := Decode([]byte(frame)); err == nil {
			t.Fatalf("%s: Decode accepted %q", name, frame)
		}
	}
}

func TestOptionRequestWireFormat(t *testing.T) {
	data, err := json.Marshal(optionRequest{
		Action:       actionRequestOptions,
		PromptState:  "The sky is",
		DesiredCount: 5,
		Temperature:  0.7,
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["action"] != "request-options" || got["promptState"] != "The sky is" {
		t.Fatalf("bad request frame %s", data)
	}
	if got["desiredCount"] != float64(5) || got["temperature"] != 0.7 {
		t.Fatalf("bad request frame %s", data)
	}
}

func TestOptionRequestOmitsZeroTemperature(t *testing.T) {
	data, err := json.Marshal(optionRequest{Action: actionRequestOptions, PromptState: "x", DesiredCount: 5})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := got["temperature"]; ok {
		t.Fatalf("zero temperature must be omitted: %s", data)
	}
}
