// Package schema has the shared records of the questionnaire and validation sides.
package schema

import "time"

// Proposition is an answer choice: an outgoing edge of a question.
type Proposition struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Help         string    `json:"help,omitempty"`
	Restricted   bool      `json:"restricted,omitempty"`
	Metrics      []string  `json:"metrics,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"` // nil means a neutral multiplier
	Next         string    `json:"next,omitempty"`         // target question id
}

// Question is a node of the questionnaire graph.
type Question struct {
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	Help         string        `json:"help,omitempty"`
	Type         QuestionType  `json:"type"`
	Propositions []Proposition `json:"propositions,omitempty"`
}

// IsTerminal reports whether the question ends the traversal.
func (q Question) IsTerminal() bool {
	return q.Type == TerminalQuestion
}

// AnswerStep is one answered question and the propositions chosen for it.
type AnswerStep struct {
	Question Question      `json:"question"`
	Chosen   []Proposition `json:"chosen"`
	Response string        `json:"response,omitempty"` // free text of open questions
}

// ChosenTexts returns the texts of the chosen propositions.
func (s AnswerStep) ChosenTexts() []string {
	texts := make([]string, 0, len(s.Chosen))
	for _, p := range s.Chosen {
		texts = append(texts, p.Text)
	}
	return texts
}

// AnswerHistory is the ordered record of a traversal. The caller owns it.
type AnswerHistory struct {
	Steps     []AnswerStep `json:"steps"`
	Completed bool         `json:"completed"`
}

// Len returns the number of answered steps.
func (h *AnswerHistory) Len() int {
	return len(h.Steps)
}

// Last returns the last step, or false when the history is empty.
func (h *AnswerHistory) Last() (AnswerStep, bool) {
	if len(h.Steps) == 0 {
		return AnswerStep{}, false
	}
	return h.Steps[len(h.Steps)-1], true
}

// Append records a forward step and reopens the history.
func (h *AnswerHistory) Append(step AnswerStep) {
	h.Steps = append(h.Steps, step)
	h.Completed = false
}

// Truncate keeps the first n steps. It is how a caller backtracks.
func (h *AnswerHistory) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(h.Steps) {
		h.Steps = h.Steps[:n]
		h.Completed = false
	}
}

// RankedCandidate is a candidate output with its accumulated coefficient.
type RankedCandidate struct {
	Name        string  `json:"name"`
	Coefficient float64 `json:"coefficient"`
}

// StoredForm summarizes a persisted answer chain.
type StoredForm struct {
	User       string    `json:"user"`
	Name       string    `json:"name"`
	RootID     string    `json:"root_id"`
	Ranked     []string  `json:"ranked"`
	TrackingID string    `json:"tracking_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Feedback is a free-text note left by a user.
type Feedback struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CandidateStat counts how often a candidate shows up in stored rankings.
type CandidateStat struct {
	Name        string `json:"name"`
	TopCount    int    `json:"top_count"`
	Appearances int    `json:"appearances"`
}

// FormDetail is a stored form with its answers and a fresh ranking.
type FormDetail struct {
	Form    StoredForm        `json:"form"`
	History *AnswerHistory    `json:"history"`
	Ranking []RankedCandidate `json:"ranking"`
}
