package chathub

import "pairgo/backend/internal/models"

// Client is the interface for any type of bidirectional connection. It
// abstracts the underlying transport, allowing the hub to manage different
// client types uniformly; the websocket implementation lives in this
// package, and alternate transports only need to satisfy this contract.
type Client interface {
	// GetUserID returns the unique identifier for the user associated with the client.
	GetUserID() string
	// GetRoomID returns the identifier of the pair room the client is currently in.
	GetRoomID() string
	// SetRoomID assigns the client to a pair room. This is called by the
	// matcher after a successful match and on session reattach.
	SetRoomID(string)
	// GetLanguage returns the client's preferred language for
	// server-authored system texts.
	GetLanguage() string

	// GetSendChannel returns the channel the hub writes outbound events to.
	GetSendChannel() chan<- models.ChatMessage

	// Run starts the client's read and write pumps.
	Run()
	// Close gracefully shuts down the client's connection and associated channels.
	Close()
}
