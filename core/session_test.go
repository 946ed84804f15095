package core

import "testing"

func TestSession_MergeStateAndClone(t *testing.T) {
	s := NewSession("s1")

	s.MergeState(map[string]any{"destination": "ภูเก็ต", "budget": 5000})
	if v, ok := s.GetState("destination"); !ok || v.(string) != "ภูเก็ต" {
		t.Fatalf("state not applied: %+v", s.State)
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetState("dates", "1-3 ธันวาคม")
	if _, exists := s.GetState("dates"); exists {
		t.Error("original should not have clone's new key")
	}
}

func TestSession_HistoryLimitAndCopy(t *testing.T) {
	s := NewSession("s2")
	s.AddMessage(Message{Role: "user", Content: "สวัสดี"})
	s.AddMessage(Message{Role: "assistant", Content: "สวัสดีค่ะ"})
	s.AddMessage(Message{Role: "user", Content: "ไปเที่ยวไหนดี"})

	recent := s.History(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}
	if recent[1].Content != "ไปเที่ยวไหนดี" {
		t.Errorf("expected most recent message last, got %q", recent[1].Content)
	}

	recent[0].Content = "changed"
	if s.History(0)[1].Content == "changed" {
		t.Error("history slice should be copied on read")
	}
}

func TestSession_StateSnapshotIsolated(t *testing.T) {
	s := NewSession("s3")
	s.SetState("destination", "น่าน")

	snap := s.StateSnapshot()
	snap["destination"] = "เลย"
	if v, _ := s.GetState("destination"); v.(string) != "น่าน" {
		t.Error("snapshot mutation must not affect the session")
	}
}
