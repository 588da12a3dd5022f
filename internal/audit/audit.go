package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"antware.xyz/authgate/internal/engine"
	"antware.xyz/authgate/internal/metrics"
)

var auditlog = logf.Log.WithName("audit")

// Entry is one recorded decision.
type Entry struct {
	Timestamp time.Time                 `json:"timestamp"`
	Identity  engine.Identity           `json:"identity"`
	Verb      string                    `json:"verb"`
	Resource  engine.ResourceDescriptor `json:"resource"`
	Allowed   bool                      `json:"allowed"`
	Matched   *engine.RuleRef           `json:"matched,omitempty"`
}

// Sink persists entries. Implementations need not be safe for concurrent
// use; the Log serializes writes.
type Sink interface {
	Write(Entry) error
}

// Log is an append-only record of decisions. It is a pure consumer: a full
// buffer or a failing sink surfaces on Errors() and the operational
// counters, never to the caller of Record. Availability of the decision
// path takes precedence over audit durability.
type Log struct {
	mu     sync.RWMutex
	closed bool

	sink    Sink
	entries chan Entry
	errs    chan error
	done    chan struct{}
}

// NewLog starts the log's writer. buffer is the number of entries held while
// the sink catches up.
func NewLog(sink Sink, buffer int) *Log {
	l := &Log{
		sink:    sink,
		entries: make(chan Entry, buffer),
		errs:    make(chan error, 16),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// Record appends an entry without blocking. When the buffer is full the
// entry is dropped and the drop reported operationally.
func (l *Log) Record(entry Entry) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return
	}

	select {
	case l.entries <- entry:
	default:
		metrics.AuditDropped.Inc()
		l.report(fmt.Errorf("audit buffer full, dropped record for %s %s", entry.Verb, entry.Resource.Resource))
	}
}

// RecordDecision is Record for the engine's output.
func (l *Log) RecordDecision(id engine.Identity, verb string, res engine.ResourceDescriptor, decision engine.Decision) {
	l.Record(Entry{
		Timestamp: decision.EvaluatedAt,
		Identity:  id,
		Verb:      verb,
		Resource:  res,
		Allowed:   decision.Allowed,
		Matched:   decision.Matched,
	})
}

// Errors is the operational-error channel. Failed or dropped writes land
// here; they are never converted into an authorization failure.
func (l *Log) Errors() <-chan error {
	return l.errs
}

// Close stops accepting records, drains the buffer and waits for the writer.
func (l *Log) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.entries)
	l.mu.Unlock()

	<-l.done
}

func (l *Log) run() {
	defer close(l.done)

	for entry := range l.entries {
		if err := l.sink.Write(entry); err != nil {
			metrics.AuditWriteFailures.Inc()
			l.report(fmt.Errorf("audit sink write failed: %w", err))
		}
	}
}

func (l *Log) report(err error) {
	auditlog.Error(err, "audit failure")
	select {
	case l.errs <- err:
	default:
	}
}

// JSONSink writes entries as JSON lines.
type JSONSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewJSONSink(out io.Writer) *JSONSink {
	return &JSONSink{out: out}
}

func (s *JSONSink) Write(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = s.out.Write(line)
	return err
}
