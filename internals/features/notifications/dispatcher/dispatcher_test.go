package dispatcher

import (
	"sync"
	"testing"

	"admissionsdesk_backend/internals/constants"
)

type countingMailSender struct {
	mu    sync.Mutex
	sent  int
	panic bool
}

func (s *countingMailSender) SendReceiptEmail(payload map[string]interface{}) error {
	if s.panic {
		panic("smtp exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	return nil
}

func (s *countingMailSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func TestInlineDispatcherDelivers(t *testing.T) {
	mail := &countingMailSender{}
	d := NewInlineDispatcher(nil, mail)

	d.Dispatch(constants.DispatchReceiptEmail, map[string]interface{}{"invoice_number": "2026-INV01"})

	if mail.count() != 1 {
		t.Fatalf("sent = %d, want 1", mail.count())
	}
}

func TestAsyncDispatcherDrainsOnShutdown(t *testing.T) {
	mail := &countingMailSender{}
	d := NewAsyncDispatcher(nil, mail, 2, 64)

	const n = 25
	for i := 0; i < n; i++ {
		d.Dispatch(constants.DispatchReceiptEmail, map[string]interface{}{"invoice_number": "x"})
	}
	d.Shutdown()

	if mail.count() != n {
		t.Fatalf("sent = %d, want %d", mail.count(), n)
	}
}

func TestAsyncDispatcherShutdownIsIdempotent(t *testing.T) {
	d := NewAsyncDispatcher(nil, &countingMailSender{}, 1, 4)
	d.Shutdown()
	d.Shutdown() // second call must not panic on a closed channel
}

func TestDispatcherContainsPanics(t *testing.T) {
	mail := &countingMailSender{panic: true}
	d := NewInlineDispatcher(nil, mail)

	// the task handler owns the recover; a panicking sender must not reach us
	d.Dispatch(constants.DispatchReceiptEmail, map[string]interface{}{})
}

func TestDispatcherIgnoresUnknownKind(t *testing.T) {
	mail := &countingMailSender{}
	d := NewInlineDispatcher(nil, mail)

	d.Dispatch("carrier_pigeon", map[string]interface{}{})

	if mail.count() != 0 {
		t.Fatalf("unknown kind must not send mail, sent = %d", mail.count())
	}
}
