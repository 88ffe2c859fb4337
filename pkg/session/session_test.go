package session

import (
	"testing"
	"time"
)

func TestAppendTurnMonotonicSeq(t *testing.T) {
	var s Session
	for i := 0; i < 3; i++ {
		s.AppendTurn(Turn{Prompt: "p", Timestamp: time.Now()})
	}
	for i, turn := range s.Turns {
		if turn.Seq != i {
			t.Errorf("turn %d: expected seq %d, got %d", i, i, turn.Seq)
		}
	}
}

func TestAppendTurnUpdatesLastActive(t *testing.T) {
	var s Session
	first := time.Now()
	second := first.Add(time.Minute)
	s.AppendTurn(Turn{Prompt: "a", Timestamp: first})
	s.AppendTurn(Turn{Prompt: "b", Timestamp: second})
	if !s.LastActive.Equal(second) {
		t.Errorf("expected LastActive %v, got %v", second, s.LastActive)
	}
}

func TestIndexUpsertIdempotent(t *testing.T) {
	idx := NewIndex()
	entry := IndexEntry{FirstPrompt: "hi", MessageCount: 1}
	idx.Upsert("sess_1", entry)
	idx.Upsert("sess_1", entry)
	if len(idx.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(idx.Entries))
	}
	if idx.Version != 1 {
		t.Errorf("expected version 1, got %d", idx.Version)
	}
}

func TestTodoNormalizeActiveForm(t *testing.T) {
	item := TodoItem{Content: "write tests"}
	item.NormalizeActiveForm()
	if item.ActiveForm != "write tests..." {
		t.Errorf("unexpected active form: %q", item.ActiveForm)
	}

	explicit := TodoItem{Content: "write tests", ActiveForm: "Writing tests"}
	explicit.NormalizeActiveForm()
	if explicit.ActiveForm != "Writing tests" {
		t.Errorf("expected explicit active form preserved, got %q", explicit.ActiveForm)
	}
}

func TestProjectDirNameNormalizes(t *testing.T) {
	got := ProjectDirName("/home/user/my.project")
	want := "-home-user-my-project"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProjectHashStableAcrossRepresentations(t *testing.T) {
	h1, err := ProjectHash("/tmp/foo/../foo")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := ProjectHash("/tmp/foo")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected stable hash, got %q vs %q", h1, h2)
	}
}
