package notifyfake

import (
	"context"
	"sync"
	"time"

	"github.com/grubsnap/identity/notify"
)

var _ notify.Sender = (*FakeSender)(nil)

// SentCode records one SendCode call.
type SentCode struct {
	Email  string
	Code   string
	TTL    time.Duration
	Locale string
}

// FakeSender is a thread-safe recording notify.Sender for tests.
type FakeSender struct {
	lock sync.Mutex

	// FailWith, when non-nil, is returned by every SendCode call.
	FailWith error

	sent []SentCode
}

func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

func (f *FakeSender) SendCode(_ context.Context, email, code string, ttl time.Duration, locale string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.FailWith != nil {
		return f.FailWith
	}
	f.sent = append(f.sent, SentCode{Email: email, Code: code, TTL: ttl, Locale: locale})
	return nil
}

// Sent returns a copy of all recorded sends.
func (f *FakeSender) Sent() []SentCode {
	f.lock.Lock()
	defer f.lock.Unlock()

	out := make([]SentCode, len(f.sent))
	copy(out, f.sent)
	return out
}

// Last returns the most recent send, or a zero value when nothing was sent.
func (f *FakeSender) Last() SentCode {
	f.lock.Lock()
	defer f.lock.Unlock()

	if len(f.sent) == 0 {
		return SentCode{}
	}
	return f.sent[len(f.sent)-1]
}
