package domain

import "errors"

// ErrNoAnalysis is returned when a follow-up is attempted before any analysis.
var ErrNoAnalysis = errors.New("domain: no current analysis")

// State is the conversation state derived from a Session.
type State string

const (
	StateEmpty      State = "empty"
	StateAnalyzed   State = "analyzed"
	StateConversing State = "conversing"
)

// Exchange is one follow-up question and its answer.
type Exchange struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// SessionRecord is one submitted analysis kept in the session history.
type SessionRecord struct {
	Symptoms string          `json:"symptoms" yaml:"symptoms"`
	Context  ClinicalContext `json:"context" yaml:"context"`
	Response Analysis        `json:"response" yaml:"response"`
}

// Session is the conversation state of one user session. It is a value:
// transitions return a new Session and never modify the receiver, so a
// failed operation leaves the caller's Session exactly as it was.
type Session struct {
	current   *Analysis
	exchanges []Exchange
	history   []SessionRecord
}

// State reports where the session is in its lifecycle.
func (s Session) State() State {
	switch {
	case s.current == nil:
		return StateEmpty
	case len(s.exchanges) == 0:
		return StateAnalyzed
	default:
		return StateConversing
	}
}

// Analysis returns a copy of the current analysis.
func (s Session) Analysis() (Analysis, bool) {
	if s.current == nil {
		return Analysis{}, false
	}
	return s.current.clone(), true
}

// Exchanges returns a copy of the follow-up log for the current analysis.
func (s Session) Exchanges() []Exchange {
	out := make([]Exchange, len(s.exchanges))
	copy(out, s.exchanges)
	return out
}

// History returns a copy of every record submitted in this session.
func (s Session) History() []SessionRecord {
	out := make([]SessionRecord, len(s.history))
	for i, r := range s.history {
		r.Response = r.Response.clone()
		out[i] = r
	}
	return out
}

// SuggestedQuestions returns the current analysis' clarifying questions while
// no follow-up has been asked, and nil otherwise.
func (s Session) SuggestedQuestions() []string {
	if s.State() != StateAnalyzed || len(s.current.ClarifyingQuestions) == 0 {
		return nil
	}
	out := make([]string, len(s.current.ClarifyingQuestions))
	copy(out, s.current.ClarifyingQuestions)
	return out
}

// WithAnalysis makes rec's response current, clears the follow-up log and
// appends rec to the history.
func (s Session) WithAnalysis(rec SessionRecord) Session {
	rec.Response = rec.Response.clone()
	current := rec.Response.clone()

	history := make([]SessionRecord, len(s.history), len(s.history)+1)
	copy(history, s.history)
	return Session{
		current: &current,
		history: append(history, rec),
	}
}

// WithExchange appends ex to the follow-up log.
func (s Session) WithExchange(ex Exchange) (Session, error) {
	if s.current == nil {
		return s, ErrNoAnalysis
	}
	exchanges := make([]Exchange, len(s.exchanges), len(s.exchanges)+1)
	copy(exchanges, s.exchanges)
	return Session{
		current:   s.current,
		exchanges: append(exchanges, ex),
		history:   s.history,
	}, nil
}
