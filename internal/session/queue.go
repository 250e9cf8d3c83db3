package session

import (
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
)

// Queue is the ordered list of questions for one session. The analysis model
// may suggest additional questions mid-session: follow-ups are inserted right
// after the current question, everything else is appended at the tail. A
// suggestion that is a near-duplicate of any question already in the queue is
// dropped, so a model that keeps proposing "Tell me about yourself?" cannot
// make the interview loop forever.
type Queue struct {
	mu        sync.Mutex
	questions []string
	index     int
}

// NewQueue creates a queue over the initial question list.
func NewQueue(questions []string) *Queue {
	qs := make([]string, len(questions))
	copy(qs, questions)
	return &Queue{questions: qs}
}

// Current returns the question at the cursor and its zero-based index.
// ok is false when the queue is exhausted.
func (q *Queue) Current() (question string, index int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.index >= len(q.questions) {
		return "", 0, false
	}
	return q.questions[q.index], q.index, true
}

// Peek returns the question offset positions past the cursor without moving
// it. Peek(0) is equivalent to Current.
func (q *Queue) Peek(offset int) (question string, index int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.index + offset
	if i < 0 || i >= len(q.questions) {
		return "", 0, false
	}
	return q.questions[i], i, true
}

// Advance moves the cursor to the next question. Returns false when the
// queue is exhausted afterwards.
func (q *Queue) Advance() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.index++
	return q.index < len(q.questions)
}

// ApplySuggestion adds a model-suggested question. Follow-ups are inserted
// immediately after the current question. Anything else is appended to the
// tail, and only while the cursor is on the last question: as long as
// un-visited questions remain queued, non-follow-up suggestions are
// dropped. Returns false if the suggestion was rejected, either by that
// rule or as a near-duplicate of an existing queue entry.
func (q *Queue) ApplySuggestion(text string, followUp bool) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.questions {
		if nearDuplicate(existing, text) {
			return false
		}
	}
	if followUp && q.index+1 <= len(q.questions) {
		q.questions = append(q.questions[:q.index+1],
			append([]string{text}, q.questions[q.index+1:]...)...)
		return true
	}
	if q.index < len(q.questions)-1 {
		return false
	}
	q.questions = append(q.questions, text)
	return true
}

// Len returns the total number of questions currently in the queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.questions)
}

// Questions returns a snapshot of the full question list.
func (q *Queue) Questions() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.questions...)
}

// nearDuplicate reports whether two questions are the same up to minor
// rewording, using optimal string alignment distance with a threshold that
// scales at one edit per five characters of the shorter string.
func nearDuplicate(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if na == nb {
		return true
	}
	shorter := len(na)
	if len(nb) < shorter {
		shorter = len(nb)
	}
	threshold := (shorter + 4) / 5
	return matchr.OSA(na, nb) <= threshold
}

// normalize lowercases and collapses whitespace so punctuation-level noise
// does not defeat the distance check.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
