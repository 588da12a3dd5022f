package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"antware.xyz/authgate/internal/engine"
)

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
	fail    error
}

func (s *memorySink) Write(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return s.fail
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memorySink) all() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Entry(nil), s.entries...)
}

func TestRecordDecision(t *testing.T) {
	sink := &memorySink{}
	log := NewLog(sink, 8)

	id := engine.ServiceAccountIdentity("monitoring", "scraper")
	res := engine.ResourceDescriptor{Resource: "pods", Namespace: "monitoring"}
	log.RecordDecision(id, "get", res, engine.Decision{
		Allowed:     true,
		Matched:     &engine.RuleRef{Binding: "scraper-pods", Namespace: "monitoring"},
		EvaluatedAt: time.Now(),
	})
	log.RecordDecision(id, "delete", res, engine.Decision{EvaluatedAt: time.Now()})
	log.Close()

	entries := sink.all()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Allowed || entries[0].Matched == nil || entries[0].Matched.Binding != "scraper-pods" {
		t.Errorf("unexpected allow entry: %+v", entries[0])
	}
	if entries[1].Allowed || entries[1].Matched != nil {
		t.Errorf("deny entry must carry no rule reference: %+v", entries[1])
	}
}

func TestRecordAfterCloseIsNoop(t *testing.T) {
	sink := &memorySink{}
	log := NewLog(sink, 8)
	log.Close()

	// Must not panic on the closed channel.
	log.Record(Entry{Verb: "get"})
	if len(sink.all()) != 0 {
		t.Error("record after close must not reach the sink")
	}
}

func TestSinkFailureIsReported(t *testing.T) {
	sink := &memorySink{fail: errors.New("disk full")}
	log := NewLog(sink, 8)

	log.Record(Entry{Verb: "get", Resource: engine.ResourceDescriptor{Resource: "pods"}})

	select {
	case err := <-log.Errors():
		if !strings.Contains(err.Error(), "disk full") {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reported sink failure")
	}
	log.Close()
}

func TestJSONSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)

	entries := []Entry{
		{
			Identity: engine.Identity{Kind: engine.KindUser, Name: "alice", Groups: []string{"sre"}},
			Verb:     "get",
			Resource: engine.ResourceDescriptor{Resource: "pods", Namespace: "prod", Subresource: "log"},
			Allowed:  true,
			Matched:  &engine.RuleRef{Binding: "sre-logs"},
		},
		{
			Identity: engine.Identity{Kind: engine.KindUser, Name: "bob"},
			Verb:     "delete",
			Resource: engine.ResourceDescriptor{Resource: "pods", Namespace: "prod"},
		},
	}
	for _, entry := range entries {
		if err := sink.Write(entry); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	scanner := bufio.NewScanner(&buf)
	var lines []Entry
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		lines = append(lines, entry)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Identity.Name != "alice" || !lines[0].Allowed || lines[0].Matched.Binding != "sre-logs" {
		t.Errorf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Matched != nil {
		t.Errorf("deny line must omit matched, got %+v", lines[1].Matched)
	}
}
