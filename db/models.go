package db

import (
	"time"

	"gorm.io/gorm"
)

type OauthProvider string

type MessageStatus string

type NotificationStatus string

const (
	Google OauthProvider = "google"

	// Delivery status of a message. Persisted records are written as Sent;
	// Sending and Error are client-side annotations that only ever exist in
	// the local pending layer. Read is stored but currently has no writer.
	StatusSending MessageStatus = "sending"
	StatusSent    MessageStatus = "sent"
	StatusRead    MessageStatus = "read"
	StatusError   MessageStatus = "error"

	Unread NotificationStatus = "unread"
	Read   NotificationStatus = "read"
)

type Account struct {
	gorm.Model
	Username        string `json:"username" gorm:"not null"`
	Email           string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash    string `json:"-"`
	OauthProvider   string `json:"oauth_provider"`
	OauthProviderID string `json:"oauth_provider_id"`
	TokenVersion    uint   `json:"token_version"`
}

// Profile is a user's public teach/learn listing. At most one per account:
// the unique index on AccountID gives profile submission upsert semantics,
// a second submission overwrites the first.
type Profile struct {
	gorm.Model
	AccountID          uint    `json:"account_id" gorm:"uniqueIndex;not null"`
	Account            Account `json:"-" gorm:"foreignKey:AccountID"`
	Name               string  `json:"name"`
	Teach              string  `json:"teach" gorm:"not null"`
	Learn              string  `json:"learn" gorm:"not null"`
	Location           string  `json:"location"`
	About              string  `json:"about"`
	TeachingExperience string  `json:"teaching_experience"`
	Contact            string  `json:"contact"`
}

// Conversation is the unique container for the message history between an
// unordered pair of accounts. The pair is canonicalized so that
// ParticipantLow < ParticipantHigh, making lookup independent of which side
// initiated. Uniqueness of the pair is enforced by lookup-before-create in
// the resolve handler, not by a database constraint.
type Conversation struct {
	gorm.Model
	ParticipantLow  uint `json:"participant_low" gorm:"index;not null"`
	ParticipantHigh uint `json:"participant_high" gorm:"index;not null"`

	// Cached snapshot of the most recent message, refreshed on every send.
	LastMessageText   string     `json:"last_message_text"`
	LastMessageSender uint       `json:"last_message_sender"`
	LastMessageAt     *time.Time `json:"last_message_at"`
}

type Message struct {
	gorm.Model
	ConversationID uint          `json:"conversation_id" gorm:"index;not null"`
	SenderID       uint          `json:"sender_id" gorm:"not null"`
	RecipientID    uint          `json:"recipient_id" gorm:"not null"`
	Text           string        `json:"text" gorm:"type:text;not null"`
	Status         MessageStatus `json:"status"`

	// Client-generated correlation id, echoed back so senders can reconcile
	// their optimistic pending entry with the authoritative record.
	ClientRef string `json:"client_ref" gorm:"index"`
}

type Notification struct {
	gorm.Model
	SourceID uint               `json:"source_id"`
	DestID   uint               `json:"dest_id"`
	Content  string             `json:"content"`
	Status   NotificationStatus `json:"status"`
}
