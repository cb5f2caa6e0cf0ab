package notify

import (
	"sync"
	"time"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/mailer"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/logger"
)

const (
	defaultQueueSize = 64
	sendTimeout      = 10 * time.Second
)

type kind int

const (
	kindVerification kind = iota
	kindPasswordReset
)

type message struct {
	kind    kind
	toEmail string
	toName  string
	link    string
}

// Dispatcher delivers emails in the background so handlers never wait on
// the mail provider. If the queue is full the message is dropped and logged.
type Dispatcher struct {
	mailer mailer.Service
	queue  chan message
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(m mailer.Service, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	d := &Dispatcher{
		mailer: m,
		queue:  make(chan message, queueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) EnqueueVerification(toEmail, toName, verifyURL string) {
	d.enqueue(message{kind: kindVerification, toEmail: toEmail, toName: toName, link: verifyURL})
}

func (d *Dispatcher) EnqueuePasswordReset(toEmail, toName, resetURL string) {
	d.enqueue(message{kind: kindPasswordReset, toEmail: toEmail, toName: toName, link: resetURL})
}

func (d *Dispatcher) enqueue(m message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		logger.Warn("Dispatcher closed, dropping email", "to", m.toEmail)
		return
	}

	select {
	case d.queue <- m:
	default:
		logger.Warn("Email queue full, dropping email", "to", m.toEmail)
	}
}

// Close drains the queue and stops the worker. Call after the HTTP server
// has shut down so no new enqueues race the close.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for m := range d.queue {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m message) {
	errCh := make(chan error, 1)
	go func() {
		switch m.kind {
		case kindPasswordReset:
			errCh <- d.mailer.SendPasswordResetEmail(m.toEmail, m.toName, m.link)
		default:
			errCh <- d.mailer.SendVerificationEmail(m.toEmail, m.toName, m.link)
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Failed to send email", "error", err, "to", m.toEmail)
		}
	case <-time.After(sendTimeout):
		logger.Error("Email send timed out", "to", m.toEmail)
	}
}
