package session

import "testing"

func TestQueue_Traversal(t *testing.T) {
	q := NewQueue([]string{"one", "two", "three"})

	question, idx, ok := q.Current()
	if !ok || question != "one" || idx != 0 {
		t.Fatalf("Current = %q, %d, %v", question, idx, ok)
	}

	if question, idx, ok := q.Peek(1); !ok || question != "two" || idx != 1 {
		t.Errorf("Peek(1) = %q, %d, %v", question, idx, ok)
	}
	if _, _, ok := q.Peek(5); ok {
		t.Error("Peek past end should report ok=false")
	}

	if !q.Advance() {
		t.Error("Advance after first question should report more remaining")
	}
	if !q.Advance() {
		t.Error("Advance onto last question should still report remaining")
	}
	if question, _, ok := q.Current(); !ok || question != "three" {
		t.Errorf("expected cursor on last question, got %q, %v", question, ok)
	}
}

func TestQueue_AdvancePastEnd(t *testing.T) {
	q := NewQueue([]string{"only"})
	q.Advance()
	if _, _, ok := q.Current(); ok {
		t.Error("Current on exhausted queue should report ok=false")
	}
}

func TestQueue_FollowUpInsertsAfterCursor(t *testing.T) {
	q := NewQueue([]string{"one", "two"})
	if !q.ApplySuggestion("Can you describe a conflict you resolved recently?", true) {
		t.Fatal("follow-up suggestion was rejected")
	}
	want := []string{"one", "Can you describe a conflict you resolved recently?", "two"}
	got := q.Questions()
	if len(got) != len(want) {
		t.Fatalf("expected %d questions, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestQueue_NonFollowUpAppendsOnlyAtTail(t *testing.T) {
	q := NewQueue([]string{"one", "two"})
	q.Advance() // cursor on "two", the last question

	if !q.ApplySuggestion("What motivates you in a fast paced environment?", false) {
		t.Fatal("suggestion was rejected")
	}
	got := q.Questions()
	if got[len(got)-1] != "What motivates you in a fast paced environment?" {
		t.Errorf("expected suggestion at tail, got %v", got)
	}
}

func TestQueue_NonFollowUpDroppedMidQueue(t *testing.T) {
	q := NewQueue([]string{"one", "two"})

	// Un-visited questions remain, so the suggestion must be dropped.
	if q.ApplySuggestion("What motivates you in a fast paced environment?", false) {
		t.Fatal("suggestion was accepted while un-visited questions remained")
	}
	if q.Len() != 2 {
		t.Errorf("queue grew to %d entries", q.Len())
	}
}

func TestQueue_RejectsNearDuplicates(t *testing.T) {
	q := NewQueue([]string{"Tell me about yourself."})

	cases := []struct {
		name string
		text string
	}{
		{"exact", "Tell me about yourself."},
		{"case and whitespace", "  tell me  about YOURSELF.  "},
		{"minor rewording", "Tell me about yourself?"},
		{"empty", "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if q.ApplySuggestion(tc.text, false) {
				t.Errorf("suggestion %q should have been rejected", tc.text)
			}
		})
	}
	if q.Len() != 1 {
		t.Errorf("queue grew to %d entries", q.Len())
	}

	if !q.ApplySuggestion("Why do you want to work here?", false) {
		t.Error("distinct question should have been accepted")
	}
}
