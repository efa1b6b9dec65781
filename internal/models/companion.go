package models

// ChatInput is one message to the companion.
type ChatInput struct {
	Message string `json:"message"`
}

// ChatReply is the companion's answer.
type ChatReply struct {
	Reply string `json:"reply"`
}
