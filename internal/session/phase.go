package session

// Phase is the lifecycle state of an interview session. The orchestrator is
// the only writer; everything else reads phases through [Session.Snapshot].
type Phase string

const (
	// PhaseInitializing is the state before media capture is acquired.
	PhaseInitializing Phase = "initializing"

	// PhaseSpeakingQuestion is active while the interviewer voice reads the
	// current question.
	PhaseSpeakingQuestion Phase = "speaking_question"

	// PhaseListening is active while the candidate answers. Recording and
	// silence detection run only in this phase.
	PhaseListening Phase = "listening"

	// PhaseProcessing is active while the recorded answer is analysed.
	PhaseProcessing Phase = "processing"

	// PhaseSpeakingFeedback is active while feedback is read back.
	PhaseSpeakingFeedback Phase = "speaking_feedback"

	// PhaseCompleted is terminal.
	PhaseCompleted Phase = "completed"
)

// validTransitions is the closed set of allowed phase moves. Every phase may
// jump to completed: that is the manual-end path.
var validTransitions = map[Phase][]Phase{
	PhaseInitializing:     {PhaseSpeakingQuestion, PhaseCompleted},
	PhaseSpeakingQuestion: {PhaseListening, PhaseCompleted},
	PhaseListening:        {PhaseProcessing, PhaseCompleted},
	PhaseProcessing:       {PhaseSpeakingQuestion, PhaseSpeakingFeedback, PhaseCompleted},
	PhaseSpeakingFeedback: {PhaseSpeakingQuestion, PhaseCompleted},
	PhaseCompleted:        nil,
}

// ValidTransition reports whether moving from one phase to another is
// allowed. processing → speaking_question is the repeat-request path.
func ValidTransition(from, to Phase) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
