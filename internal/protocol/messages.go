package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientText  MessageType = "text"
	TypeClientVoice MessageType = "voice"
	TypeResponse    MessageType = "response"
	TypeError       MessageType = "error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientText is a typed utterance sent over the websocket.
type ClientText struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	VoiceType string      `json:"voice_type,omitempty"`
}

// ClientVoice announces a voice turn over the websocket. Audio upload happens
// over the HTTP endpoint, so the connection answers with a redirect notice.
type ClientVoice struct {
	Type      MessageType `json:"type"`
	VoiceType string      `json:"voice_type,omitempty"`
}

// Response carries the assistant's reply for one turn.
type Response struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientText:
		var msg ClientText
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Content) == "" {
			return nil, errors.New("invalid text message: empty content")
		}
		return msg, nil
	case TypeClientVoice:
		var msg ClientVoice
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
