package domain

// ============================================================
// Messages
// ============================================================

// MessageSender identifies who authored a message.
type MessageSender string

const (
	SenderUser  MessageSender = "user"
	SenderAI    MessageSender = "ai"
	SenderAgent MessageSender = "agent"
)

// MessageType is the content kind of a message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	MessageAudio MessageType = "audio"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageAudio:
		return true
	}
	return false
}

// MessageStatus is the WhatsApp delivery receipt.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// DeliveryState tracks an outbound message through the optimistic send path.
// A pending message is visible immediately and is either committed once the
// gateway accepts it or removed when the send fails.
type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliveryCommitted DeliveryState = "committed"
	DeliveryFailed    DeliveryState = "failed"
)

// MessageMetadata carries gateway receipts and media references.
type MessageMetadata struct {
	Delivered  bool   `json:"delivered"`
	Read       bool   `json:"read"`
	SenderName string `json:"senderName,omitempty"`
	MediaURL   string `json:"mediaUrl,omitempty"`
	MediaMime  string `json:"mediaMime,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	GatewayID  string `json:"gatewayId,omitempty"`
}

// Message is a single entry in a conversation timeline.
type Message struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenantId"`
	ConversationID string          `json:"conversationId"`
	Content        string          `json:"content"`
	Timestamp      Timestamp       `json:"timestamp"`
	Sender         MessageSender   `json:"sender"`
	Type           MessageType     `json:"type"`
	Status         MessageStatus   `json:"status"`
	Delivery       DeliveryState   `json:"delivery"`
	Metadata       MessageMetadata `json:"metadata"`
}

// SendMessageRequest is the body of POST /v1/conversations/{id}/messages.
type SendMessageRequest struct {
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	MediaURL   string      `json:"mediaUrl,omitempty"`
	SenderName string      `json:"senderName,omitempty"`
}

// InboundMessage is what the WhatsApp gateway posts to the webhook.
type InboundMessage struct {
	GatewayID  string      `json:"id"`
	From       string      `json:"from"`
	Name       string      `json:"name"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	MediaURL   string      `json:"mediaUrl,omitempty"`
	FromAI     bool        `json:"fromAi"`
	Confidence float64     `json:"confidence,omitempty"`
	Sentiment  Sentiment   `json:"sentiment,omitempty"`
	ReceivedAt Timestamp   `json:"receivedAt"`
}

// OutboundMessage is the payload handed to the WhatsApp gateway.
type OutboundMessage struct {
	TenantID string      `json:"tenantId"`
	To       string      `json:"to"`
	Content  string      `json:"content"`
	Type     MessageType `json:"type"`
	MediaURL string      `json:"mediaUrl,omitempty"`
}

// GatewayReceipt is the gateway acknowledgement of an outbound message.
type GatewayReceipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
