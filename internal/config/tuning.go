package config

import "time"

const (
	// Matchmaking queue
	QueueTickInterval = time.Second
	// FallbackAfter is how long a filtered entry with fallback enabled waits
	// before it is promoted to accept any compatible partner.
	FallbackAfter = 2 * time.Minute
	// QueueMaxWait removes an entry that found no partner at all; the caller
	// is told via match_timeout rather than silently retried.
	QueueMaxWait = 5 * time.Minute

	// Sessions
	// ReconnectGrace is the window a disconnected participant has to come
	// back before the peer is told partner_left. The session itself stays
	// active either way; only skip/end terminate it.
	ReconnectGrace = 5 * time.Second

	// Presence
	HeartbeatTTL = 30 * time.Second

	// Disappearing messages
	SweepInterval            = 30 * time.Second
	PairDisappearAfter       = 24 * time.Hour
	GroupDisappearAfter      = 7 * 24 * time.Hour
	MinGroupDisappearSeconds = 60

	// Limits
	SendChannelBuffer = 256
	MaxGroupMembers   = 100
	MaxMessageLength  = 4096

	// Reputation
	InitialReputation      = 1000
	MaxReputation          = 1000
	MinReputation          = 0
	SuccessfulDialogReward = 1

	// Ban escalation driven by confirmed reports
	BanThresholdReputation = 500
	BanThresholdFrequency  = 5
	BanFrequencyWindow     = 24 * time.Hour
	BanLevel1Duration      = 30 * time.Minute
	BanLevel2Duration      = 6 * time.Hour
	BanLevel3Duration      = 24 * time.Hour
)

// ReportWeights maps a report severity to the reputation penalty it carries.
var ReportWeights = map[string]int{
	"Low":      5,
	"Medium":   50,
	"Critical": 250,
}
