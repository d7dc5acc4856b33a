package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientMessage  MessageType = "client_message"
	TypeClientControl  MessageType = "client_control"
	TypeAssistantReply MessageType = "assistant_reply"
	TypeSystemEvent    MessageType = "system_event"
	TypeErrorEvent     MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type ClientMessage struct {
	Type         MessageType `json:"type"`
	SessionToken string      `json:"session_token"`
	Text         string      `json:"text"`
	TSMs         int64       `json:"ts_ms"`
}

type ClientControl struct {
	Type         MessageType `json:"type"`
	SessionToken string      `json:"session_token"`
	Action       string      `json:"action"`
	Identity     string      `json:"identity,omitempty"`
}

type AssistantReply struct {
	Type         MessageType `json:"type"`
	SessionToken string      `json:"session_token"`
	Text         string      `json:"text"`
	TSMs         int64       `json:"ts_ms"`
}

type SystemEvent struct {
	Type         MessageType `json:"type"`
	SessionToken string      `json:"session_token"`
	Code         string      `json:"code"`
	Detail       string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type         MessageType `json:"type"`
	SessionToken string      `json:"session_token"`
	Code         string      `json:"code"`
	Retryable    bool        `json:"retryable"`
	Detail       string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientMessage:
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionToken == "" || msg.Text == "" {
			return nil, errors.New("invalid client_message")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionToken == "" || msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		if msg.Action == "associate" && msg.Identity == "" {
			return nil, errors.New("associate requires identity")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
