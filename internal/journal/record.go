package journal

import (
	"time"

	"ibgw/internal/dispatch"
)

// Record is the audit row of one finished request.
type Record struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Session   string `gorm:"size:64;index"`
	Key       string `gorm:"size:128;index"`
	Signature string `gorm:"size:1024"`
	Kind      string `gorm:"size:16"`
	State     string `gorm:"size:16;index"`
	Payloads  int
	TimedOut  bool
	Error     string `gorm:"size:1024"`
	CreatedAt time.Time
	SentAt    *time.Time
	FirstAt   *time.Time
	EndedAt   time.Time `gorm:"index"`
}

func (Record) TableName() string {
	return "dispatch_requests"
}

// NewRecord maps a terminal lifecycle event.
func NewRecord(session string, ev dispatch.Event) Record {
	r := Record{
		Session:   session,
		Key:       ev.Key.String(),
		Signature: ev.Signature,
		Kind:      ev.Kind.String(),
		State:     ev.State.String(),
		Payloads:  ev.Payloads,
		TimedOut:  ev.TimedOut,
		CreatedAt: ev.Created,
		SentAt:    optional(ev.Sent),
		FirstAt:   optional(ev.First),
		EndedAt:   ev.At,
	}
	if ev.Err != nil {
		r.Error = ev.Err.Error()
	}
	return r
}

func optional(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
