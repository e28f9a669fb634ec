package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// ============================================================
// Hand-written in-memory ports shared by the service tests
// ============================================================

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	overdue  []string
}

func newMemAccounts(accounts ...domain.Account) *memAccounts {
	m := &memAccounts{accounts: map[string]domain.Account{}}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *memAccounts) ListAccounts(_ context.Context, tenantID string) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccounts) GetAccount(_ context.Context, tenantID, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "account", ID: id}
	}
	return &a, nil
}

func (m *memAccounts) CreateAccounts(_ context.Context, accounts []domain.Account) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return accounts, nil
}

func (m *memAccounts) UpdateAccount(_ context.Context, a *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: a.ID}
	}
	m.accounts[a.ID] = *a
	cp := *a
	return &cp, nil
}

func (m *memAccounts) DeleteAccount(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
	return nil
}

func (m *memAccounts) MarkOverdue(_ context.Context, tenantID string, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overdue = append(m.overdue, tenantID)
	return 0, nil
}

type memTransactions struct {
	mu  sync.Mutex
	txs []domain.Transaction
}

func (m *memTransactions) ListTransactions(_ context.Context, tenantID string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.txs {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTransactions) GetTransaction(_ context.Context, tenantID, id string) (*domain.Transaction, error) {
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
}

func (m *memTransactions) CreateTransaction(_ context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, *t)
	return t, nil
}

func (m *memTransactions) UpdateTransaction(_ context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	return t, nil
}

func (m *memTransactions) DeleteTransaction(_ context.Context, tenantID, id string) error {
	return nil
}

type memCatalog struct {
	properties []domain.Property
	clients    []domain.Client
}

func (m *memCatalog) ListProperties(_ context.Context, tenantID string) ([]domain.Property, error) {
	return m.properties, nil
}

func (m *memCatalog) CreateProperty(_ context.Context, p *domain.Property) (*domain.Property, error) {
	m.properties = append(m.properties, *p)
	return p, nil
}

func (m *memCatalog) ListClients(_ context.Context, tenantID string) ([]domain.Client, error) {
	return m.clients, nil
}

func (m *memCatalog) CreateClient(_ context.Context, c *domain.Client) (*domain.Client, error) {
	m.clients = append(m.clients, *c)
	return c, nil
}

type memBilling struct {
	settings map[string]domain.BillingSettings
}

func (m *memBilling) GetBillingSettings(_ context.Context, tenantID string) (*domain.BillingSettings, error) {
	st, ok := m.settings[tenantID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "billing_settings", ID: tenantID}
	}
	return &st, nil
}

func (m *memBilling) SaveBillingSettings(_ context.Context, s *domain.BillingSettings) (*domain.BillingSettings, error) {
	if m.settings == nil {
		m.settings = map[string]domain.BillingSettings{}
	}
	m.settings[s.TenantID] = *s
	cp := *s
	return &cp, nil
}

func (m *memBilling) ListEnabledBillingSettings(_ context.Context) ([]domain.BillingSettings, error) {
	var out []domain.BillingSettings
	for _, st := range m.settings {
		if st.Enabled {
			out = append(out, st)
		}
	}
	return out, nil
}

type memDocs struct {
	mu            sync.Mutex
	conversations map[string]domain.Conversation
	messages      map[string]domain.Message
	deleted       []string
}

func newMemDocs(convs ...domain.Conversation) *memDocs {
	m := &memDocs{conversations: map[string]domain.Conversation{}, messages: map[string]domain.Message{}}
	for _, c := range convs {
		m.conversations[c.ID] = c
	}
	return m
}

func (m *memDocs) ListConversations(_ context.Context, tenantID string) ([]domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Conversation
	for _, c := range m.conversations {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memDocs) GetConversation(_ context.Context, tenantID, id string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: id}
	}
	return &c, nil
}

func (m *memDocs) FindConversationByPhone(_ context.Context, tenantID, phone string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.conversations {
		if c.TenantID == tenantID && c.ClientPhone == phone {
			return &c, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "conversation", ID: phone}
}

func (m *memDocs) SaveConversation(_ context.Context, c *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[c.ID] = *c
	return nil
}

func (m *memDocs) PatchConversation(_ context.Context, tenantID, id string, p domain.ConversationPatch) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: id}
	}
	if p.IsStarred != nil {
		c.IsStarred = *p.IsStarred
	}
	if p.UnreadCount != nil {
		c.UnreadCount = *p.UnreadCount
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	m.conversations[id] = c
	return &c, nil
}

func (m *memDocs) RecordActivity(_ context.Context, tenantID, id string, act domain.ConversationActivity) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: id}
	}
	c.LastMessage = act.LastMessage
	c.LastMessageAt = act.LastMessageAt
	c.UpdatedAt = act.UpdatedAt
	c.UnreadCount += act.UnreadDelta
	if act.Reopen && (c.Status == domain.ConversationArchived || c.Status == domain.ConversationResolved) {
		c.Status = domain.ConversationActive
	}
	if act.Sentiment != "" {
		c.Sentiment = act.Sentiment
	}
	if act.AIConfidence != nil {
		c.AIConfidence = *act.AIConfidence
	}
	m.conversations[id] = c
	cp := c
	return &cp, nil
}

func (m *memDocs) ToggleStar(_ context.Context, tenantID, id string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: id}
	}
	c.IsStarred = !c.IsStarred
	m.conversations[id] = c
	cp := c
	return &cp, nil
}

func (m *memDocs) ListMessages(_ context.Context, tenantID, conversationID string, _ int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.TenantID == tenantID && msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memDocs) ListMessagesSince(_ context.Context, tenantID string, _ time.Time) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.TenantID == tenantID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memDocs) InsertMessage(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ID] = *msg
	return nil
}

func (m *memDocs) CommitMessage(_ context.Context, tenantID, id, gatewayID string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "message", ID: id}
	}
	msg.Delivery = domain.DeliveryCommitted
	msg.Metadata.GatewayID = gatewayID
	m.messages[id] = msg
	return &msg, nil
}

func (m *memDocs) DeleteMessage(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[id]; !ok {
		return &domain.ErrNotFound{Resource: "message", ID: id}
	}
	delete(m.messages, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type emptyStores struct{}

func (emptyStores) ListReservations(context.Context, string) ([]domain.Reservation, error) {
	return nil, nil
}
func (emptyStores) GetReservation(_ context.Context, _, id string) (*domain.Reservation, error) {
	return nil, &domain.ErrNotFound{Resource: "reservation", ID: id}
}
func (emptyStores) CreateReservation(_ context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	return r, nil
}
func (emptyStores) UpdateReservation(_ context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	return r, nil
}
func (emptyStores) DeleteReservation(context.Context, string, string) error { return nil }
func (emptyStores) ListVisits(context.Context, string) ([]domain.Visit, error) {
	return nil, nil
}

type stubGateway struct {
	mu   sync.Mutex
	err  error
	sent []domain.OutboundMessage
	// onSend runs while the message is in flight.
	onSend func()
}

func (g *stubGateway) Send(_ context.Context, msg *domain.OutboundMessage) (*domain.GatewayReceipt, error) {
	if g.onSend != nil {
		g.onSend()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.sent = append(g.sent, *msg)
	return &domain.GatewayReceipt{ID: "wamid-" + msg.To, Status: "queued"}, nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []domain.InboxEvent
}

func (b *recordingBroadcaster) Broadcast(_ string, ev domain.InboxEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, ev := range b.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingQueue struct {
	mu    sync.Mutex
	tasks []domain.ReminderTask
	err   error
}

func (q *recordingQueue) EnqueueReminder(_ context.Context, task *domain.ReminderTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, *task)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
