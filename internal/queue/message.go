package queue

import (
	"encoding/json"
	"time"
)

// MessageVersion is bumped when the payload shape changes.
const MessageVersion = 1

// Message asks a worker to run generation for one cover letter.
type Message struct {
	CoverLetterID string `json:"coverLetterId"`
	OwnerID       string `json:"ownerId"`
	RequestID     string `json:"requestId"`
	EnqueuedAt    string `json:"enqueuedAt"`
	Version       int    `json:"version"`
}

// NewGenerationMessage stamps a message with the current version and time.
func NewGenerationMessage(coverLetterID, ownerID, requestID string) Message {
	return Message{
		CoverLetterID: coverLetterID,
		OwnerID:       ownerID,
		RequestID:     requestID,
		EnqueuedAt:    time.Now().UTC().Format(time.RFC3339),
		Version:       MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
