package notify

// ConversationChange announces that a conversation was created or received
// new activity. Stream handlers filter on the participants and push the
// affected account's refreshed conversation list.
type ConversationChange struct {
	ConversationID  uint
	ParticipantLow  uint
	ParticipantHigh uint
}
