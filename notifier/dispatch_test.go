package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

type stubGuard struct {
	mu        sync.Mutex
	records   map[string]DispatchRecord
	lookupErr error
	markErr   error
}

func newStubGuard() *stubGuard {
	return &stubGuard{records: make(map[string]DispatchRecord)}
}

func (g *stubGuard) AlreadyDispatched(_ context.Context, fingerprint string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lookupErr != nil {
		return false, g.lookupErr
	}
	_, ok := g.records[fingerprint]
	return ok, nil
}

func (g *stubGuard) MarkDispatched(_ context.Context, rec DispatchRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.markErr != nil {
		return g.markErr
	}
	// First writer wins, matching the production store.
	if _, ok := g.records[rec.Fingerprint]; !ok {
		g.records[rec.Fingerprint] = rec
	}
	return nil
}

type stubNotifier struct {
	mu    sync.Mutex
	posts []string
	err   error
}

func (n *stubNotifier) Post(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.posts = append(n.posts, text)
	return nil
}

func testCaseTrigger(t *testing.T) Trigger {
	t.Helper()

	record := CounterRecord{
		TotalCases:        1234,
		TotalDeaths:       567,
		DailyCases:        56,
		DailyDeaths:       8,
		UpdateLabel:       "June 29",
		InfoLabel:         "Updated as of 6/29/2020 8:00pm",
		TotalHospitalized: 5123,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	return Trigger{
		Stream:      StreamCase,
		Fingerprint: Fingerprint(payload),
		Payload:     payload,
	}
}

func TestDispatchPosts(t *testing.T) {
	guard := newStubGuard()
	channel := &stubNotifier{}
	pipeline := NewDispatchPipeline(guard, channel, zap.NewNop().Sugar())
	trigger := testCaseTrigger(t)

	if err := pipeline.Handle(context.Background(), trigger); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(channel.posts) != 1 {
		t.Fatalf("posted %d times, want 1", len(channel.posts))
	}

	rec, ok := guard.records[trigger.Fingerprint]
	if !ok {
		t.Fatal("fingerprint not marked as dispatched")
	}
	if rec.Text != channel.posts[0] {
		t.Fatal("marked text differs from posted text")
	}
	if rec.Stream != StreamCase {
		t.Fatalf("stream = %q, want %q", rec.Stream, StreamCase)
	}
}

func TestDispatchAlreadySent(t *testing.T) {
	guard := newStubGuard()
	channel := &stubNotifier{}
	pipeline := NewDispatchPipeline(guard, channel, zap.NewNop().Sugar())
	trigger := testCaseTrigger(t)
	guard.records[trigger.Fingerprint] = DispatchRecord{Fingerprint: trigger.Fingerprint}

	if err := pipeline.Handle(context.Background(), trigger); err != nil {
		t.Fatalf("already sent must be a silent success: %v", err)
	}
	if len(channel.posts) != 0 {
		t.Fatalf("posted %d times, want 0", len(channel.posts))
	}
}

func TestDispatchPostFailureNotMarked(t *testing.T) {
	guard := newStubGuard()
	channel := &stubNotifier{err: errors.New("channel down")}
	pipeline := NewDispatchPipeline(guard, channel, zap.NewNop().Sugar())
	trigger := testCaseTrigger(t)

	if err := pipeline.Handle(context.Background(), trigger); err == nil {
		t.Fatal("expected the post failure to propagate")
	}
	if len(guard.records) != 0 {
		t.Fatal("a failed post must not be marked, so a retried trigger can succeed")
	}
}

func TestDispatchRenderFailure(t *testing.T) {
	guard := newStubGuard()
	channel := &stubNotifier{}
	pipeline := NewDispatchPipeline(guard, channel, zap.NewNop().Sugar())

	trigger := Trigger{Stream: "unknown", Fingerprint: "abc", Payload: []byte(`{}`)}

	err := pipeline.Handle(context.Background(), trigger)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error %v does not match ErrParse", err)
	}
	if len(channel.posts) != 0 {
		t.Fatal("a rendering failure must abort before any post attempt")
	}
}

func TestDispatchConcurrentTriggers(t *testing.T) {
	guard := newStubGuard()
	channel := &stubNotifier{}
	pipeline := NewDispatchPipeline(guard, channel, zap.NewNop().Sugar())
	trigger := testCaseTrigger(t)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pipeline.Handle(context.Background(), trigger); err != nil {
				t.Errorf("handle: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(channel.posts) < 1 || len(channel.posts) > n {
		t.Fatalf("posted %d times, want between 1 and %d", len(channel.posts), n)
	}
	if len(guard.records) != 1 {
		t.Fatalf("guard holds %d records, want exactly 1", len(guard.records))
	}

	sent, err := guard.AlreadyDispatched(context.Background(), trigger.Fingerprint)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !sent {
		t.Fatal("guard must report already sent after the first successful mark")
	}
}

func TestRenderTriggerHospital(t *testing.T) {
	rows, err := ValidateHospitalRows(testDatastoreRows(14))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("marshal rows: %v", err)
	}

	text, err := RenderTrigger(Trigger{Stream: StreamHospital, Fingerprint: "f", Payload: payload})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want, err := RenderHospital(rows)
	if err != nil {
		t.Fatalf("render hospital: %v", err)
	}
	if text != want {
		t.Fatal("trigger rendering must match direct rendering")
	}
}

func TestTopicStream(t *testing.T) {
	stream, err := NewTopic("status.case").Stream()
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if stream != "case" {
		t.Fatalf("stream = %q, want %q", stream, "case")
	}

	if _, err := NewTopic("weather.nl.utrecht").Stream(); err == nil {
		t.Fatal("expected an error for a foreign routing key")
	}
}
