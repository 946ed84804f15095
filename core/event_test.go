package core

import (
	"encoding/json"
	"testing"
)

func TestResponseEvent_Terminality(t *testing.T) {
	events := []struct {
		event    ResponseEvent
		terminal bool
	}{
		{PartialEvent{Text: "กำลังค้นหา"}, false},
		{FinalEvent{Text: "เสร็จแล้ว"}, true},
		{ErrorEvent{Message: "ล้มเหลว"}, true},
	}
	for _, tt := range events {
		if tt.event.Terminal() != tt.terminal {
			t.Errorf("%T: Terminal() = %v, want %v", tt.event, tt.event.Terminal(), tt.terminal)
		}
	}
}

func TestChatMessage_JSONShape(t *testing.T) {
	partial, err := json.Marshal(ChatMessage{Message: "บางส่วน", Partial: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(partial) != `{"message":"บางส่วน","partial":true}` {
		t.Errorf("unexpected partial shape: %s", partial)
	}

	final, err := json.Marshal(ChatMessage{Message: "จบ", Final: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(final) != `{"message":"จบ","final":true}` {
		t.Errorf("unexpected final shape: %s", final)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" || seen[id] {
			t.Fatalf("duplicate or empty id %q", id)
		}
		seen[id] = true
	}
}
