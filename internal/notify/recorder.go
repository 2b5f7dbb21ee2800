package notify

import (
	"context"
	"sync"
)

// Message is one call captured by Recorder.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Recorder is an in-memory Dispatcher for tests. When Err is set every Send
// fails with it after recording the attempt.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

func (r *Recorder) Type() string { return "recorder" }

func (r *Recorder) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Message{To: to, Subject: subject, Body: body})
	return r.Err
}

// Sent returns a copy of the recorded calls.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.sent))
	copy(out, r.sent)
	return out
}
