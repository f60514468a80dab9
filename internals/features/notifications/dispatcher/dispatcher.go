package dispatcher

import (
	"log"
	"sync"

	"gorm.io/gorm"
)

/*
	========================================================
	  Side-effect dispatcher

	Fire-and-forget relative to payment reconciliation: a
	failing task is logged and dropped, never propagated.
	The execution mode (inline vs queued) is a strategy
	chosen at bootstrap; callers only see Dispatch.
========================================================
*/

type Task struct {
	Kind    string
	Payload map[string]interface{}
}

// MailSender delivers receipt emails. The transport lives outside this
// service; LogMailSender stands in when none is configured.
type MailSender interface {
	SendReceiptEmail(payload map[string]interface{}) error
}

type LogMailSender struct{}

func (LogMailSender) SendReceiptEmail(payload map[string]interface{}) error {
	log.Printf("[INFO] 📧 receipt email (no transport configured): invoice=%v student=%v",
		payload["invoice_number"], payload["student_id"])
	return nil
}

/* ===================== Inline mode ===================== */

type InlineDispatcher struct {
	handler *taskHandler
}

func NewInlineDispatcher(db *gorm.DB, mail MailSender) *InlineDispatcher {
	return &InlineDispatcher{handler: newTaskHandler(db, mail)}
}

func (d *InlineDispatcher) Dispatch(kind string, payload map[string]interface{}) {
	d.handler.run(Task{Kind: kind, Payload: payload})
}

/* ===================== Async mode ===================== */

type AsyncDispatcher struct {
	handler *taskHandler
	queue   chan Task
	wg      sync.WaitGroup
	once    sync.Once
}

func NewAsyncDispatcher(db *gorm.DB, mail MailSender, workers, buffer int) *AsyncDispatcher {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 256
	}

	d := &AsyncDispatcher{
		handler: newTaskHandler(db, mail),
		queue:   make(chan Task, buffer),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for task := range d.queue {
				d.handler.run(task)
			}
		}()
	}
	return d
}

func (d *AsyncDispatcher) Dispatch(kind string, payload map[string]interface{}) {
	task := Task{Kind: kind, Payload: payload}
	select {
	case d.queue <- task:
	default:
		// a full queue must not block the payment path; run it here instead
		log.Printf("[WARN] dispatch queue full, running %s inline", kind)
		d.handler.run(task)
	}
}

// Shutdown drains the queue. Call during graceful shutdown.
func (d *AsyncDispatcher) Shutdown() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
