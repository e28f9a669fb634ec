package listview

import (
	"sort"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// Timeline is the ordered message list of one conversation, including
// sends still awaiting the gateway. Values are immutable: every operation
// returns a new Timeline.
type Timeline struct {
	messages []domain.Message
}

// NewTimeline orders messages by timestamp, keeping input order for ties.
func NewTimeline(msgs []domain.Message) Timeline {
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.OrZero().Before(out[j].Timestamp.OrZero())
	})
	return Timeline{messages: out}
}

// Messages returns a copy of the timeline entries.
func (t Timeline) Messages() []domain.Message {
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len is the number of entries.
func (t Timeline) Len() int { return len(t.messages) }

// Rollback removes the pending entry id and nothing else. Committed
// entries sharing the id are kept.
func (t Timeline) Rollback(id string) Timeline {
	out := make([]domain.Message, 0, len(t.messages))
	removed := false
	for _, m := range t.messages {
		if !removed && m.ID == id && m.Delivery == domain.DeliveryPending {
			removed = true
			continue
		}
		out = append(out, m)
	}
	return Timeline{messages: out}
}

// Pending lists the entries still awaiting confirmation.
func (t Timeline) Pending() []domain.Message {
	return Apply(t.messages, func(m domain.Message) bool { return m.Delivery == domain.DeliveryPending })
}

// DropStalePending rolls back pending entries sent before cutoff. Their
// send can no longer complete, so they are hidden from the thread.
func (t Timeline) DropStalePending(cutoff time.Time) Timeline {
	out := t
	for _, m := range t.Pending() {
		if m.Timestamp.OrZero().Before(cutoff) {
			out = out.Rollback(m.ID)
		}
	}
	return out
}
