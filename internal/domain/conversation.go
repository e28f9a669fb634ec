package domain

// ============================================================
// Conversations (WhatsApp inbox)
// ============================================================

// ConversationStatus is the inbox lifecycle of a conversation.
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationPending  ConversationStatus = "pending"
	ConversationResolved ConversationStatus = "resolved"
	ConversationArchived ConversationStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ConversationStatus) Valid() bool {
	switch s {
	case ConversationActive, ConversationPending, ConversationResolved, ConversationArchived:
		return true
	}
	return false
}

// Priority of a conversation in the inbox.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Sentiment as classified by the AI assistant.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Conversation is one WhatsApp thread with a guest or lead.
type Conversation struct {
	ID            string             `json:"id"`
	TenantID      string             `json:"tenantId"`
	ClientName    string             `json:"clientName"`
	ClientPhone   string             `json:"clientPhone"`
	LastMessage   string             `json:"lastMessage"`
	LastMessageAt Timestamp          `json:"lastMessageAt"`
	Status        ConversationStatus `json:"status"`
	Priority      Priority           `json:"priority"`
	UnreadCount   int                `json:"unreadCount"`
	IsStarred     bool               `json:"isStarred"`
	Sentiment     Sentiment          `json:"sentiment"`
	AIConfidence  float64            `json:"aiConfidence"`
	Tags          []string           `json:"tags"`
	AssignedAgent string             `json:"assignedAgent,omitempty"`
	CreatedAt     Timestamp          `json:"createdAt"`
	UpdatedAt     Timestamp          `json:"updatedAt"`
}

// ApplyDefaults fills optional fields the way the inbox expects them.
func (c *Conversation) ApplyDefaults() {
	if !c.Status.Valid() {
		c.Status = ConversationActive
	}
	if !c.Priority.Valid() {
		c.Priority = PriorityMedium
	}
	if c.Sentiment == "" {
		c.Sentiment = SentimentNeutral
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.UnreadCount < 0 {
		c.UnreadCount = 0
	}
}

// ConversationPatch is a partial update. Nil fields are left untouched.
type ConversationPatch struct {
	IsStarred   *bool               `json:"isStarred,omitempty"`
	UnreadCount *int                `json:"unreadCount,omitempty"`
	Status      *ConversationStatus `json:"status,omitempty"`
}

// ConversationActivity is the preview update applied to a thread when a
// message lands on it. Stores apply it in place, leaving flags set by other
// requests untouched.
type ConversationActivity struct {
	LastMessage   string
	LastMessageAt Timestamp
	UpdatedAt     Timestamp
	UnreadDelta   int
	// Reopen moves archived or resolved threads back to active.
	Reopen       bool
	Sentiment    Sentiment
	AIConfidence *float64
}

// ConversationDetail is returned by GET /v1/conversations/{id}.
type ConversationDetail struct {
	Conversation *Conversation `json:"conversation"`
	Messages     []Message     `json:"messages"`
}

// ConversationStats are the KPI cards of the inbox.
type ConversationStats struct {
	Total           int                        `json:"total"`
	ByStatus        map[ConversationStatus]int `json:"byStatus"`
	Unread          int                        `json:"unread"`
	Starred         int                        `json:"starred"`
	NegativeCount   int                        `json:"negativeCount"`
	AvgAIConfidence float64                    `json:"avgAiConfidence"`
}

// InboxEvent is pushed on the inbox socket whenever a conversation or message changes.
type InboxEvent struct {
	Type         string        `json:"type"` // conversation.updated, message.created, message.removed
	Conversation *Conversation `json:"conversation,omitempty"`
	Message      *Message      `json:"message,omitempty"`
}
