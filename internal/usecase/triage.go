package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"triage-assistant/internal/domain"
)

const (
	defaultMaxInput = 4000
	maxLoggedRaw    = 2000

	OperationSubmit = "submit"
	OperationAsk    = "ask"

	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeParseError     = "parse_error"
)

// ModelGateway sends one completion request to the oracle and returns the raw
// reply text.
type ModelGateway interface {
	ChatStructured(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// Observer receives operational signals. internal/metrics implements it.
type Observer interface {
	ObserveOracleCall(operation, outcome string, d time.Duration)
	ObserveDrift(kinds []domain.DriftKind)
}

type nopObserver struct{}

func (nopObserver) ObserveOracleCall(string, string, time.Duration) {}
func (nopObserver) ObserveDrift([]domain.DriftKind)                 {}

// TriageService runs the submit and ask pipelines against a Session. It holds
// no session state of its own and is safe to share across sessions.
type TriageService struct {
	gateway  ModelGateway
	model    string
	maxInput int
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*TriageService)

func WithObserver(o Observer) Option {
	return func(s *TriageService) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *TriageService) {
		if l != nil {
			s.logger = l
		}
	}
}

type SubmitInput struct {
	Symptoms string
	Context  domain.ClinicalContext
}

func NewTriageService(gw ModelGateway, model string, maxInput int, opts ...Option) (*TriageService, error) {
	if gw == nil {
		return nil, errors.New("usecase: model gateway must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if maxInput <= 0 {
		maxInput = defaultMaxInput
	}
	s := &TriageService{
		gateway:  gw,
		model:    model,
		maxInput: maxInput,
		observer: nopObserver{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit analyses the symptoms and returns sess with the new analysis current,
// its follow-up log cleared and one record appended to history. On error sess
// is returned unchanged. Empty symptoms are forwarded so the oracle can answer
// with its refusal shape.
func (s *TriageService) Submit(ctx context.Context, sess domain.Session, in SubmitInput) (domain.Session, error) {
	symptoms := strings.TrimSpace(in.Symptoms)
	if utf8.RuneCountInString(symptoms) > s.maxInput {
		return sess, newError(ErrorInvalidInput, "input_too_long", nil)
	}
	clinical := in.Context.Normalize()
	if err := clinical.Validate(); err != nil {
		return sess, newError(ErrorInvalidInput, "invalid_context", err)
	}

	start := s.now()
	raw, err := s.gateway.ChatStructured(ctx, s.model, buildAnalysisMessages(symptoms, clinical))
	if err != nil {
		s.observer.ObserveOracleCall(OperationSubmit, OutcomeTransportError, s.now().Sub(start))
		s.logger.ErrorContext(ctx, "oracle call failed", "operation", OperationSubmit, "err", err)
		return sess, transportError(ctx, err)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		s.observer.ObserveOracleCall(OperationSubmit, OutcomeParseError, s.now().Sub(start))
		s.logger.ErrorContext(ctx, "oracle reply unreadable",
			"operation", OperationSubmit,
			"raw", truncate(raw, maxLoggedRaw),
			"err", err,
		)
		return sess, newError(ErrorParse, "analysis_unreadable", err)
	}
	s.observer.ObserveOracleCall(OperationSubmit, OutcomeOK, s.now().Sub(start))

	if drift := analysis.Drift(); len(drift) > 0 {
		s.observer.ObserveDrift(drift)
		s.logger.WarnContext(ctx, "analysis drifted from contract",
			"drift", drift,
			"differentials", len(analysis.Differentials),
			"probability_sum", analysis.ProbabilitySum(),
		)
	}

	return sess.WithAnalysis(domain.SessionRecord{
		Symptoms: symptoms,
		Context:  clinical,
		Response: analysis,
	}), nil
}

// Ask sends a follow-up question together with the full session history and
// the current follow-up log, and returns sess with one exchange appended. On
// error sess is returned unchanged.
func (s *TriageService) Ask(ctx context.Context, sess domain.Session, question string) (domain.Session, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return sess, newError(ErrorInvalidInput, "empty_question", nil)
	}
	if utf8.RuneCountInString(question) > s.maxInput {
		return sess, newError(ErrorInvalidInput, "input_too_long", nil)
	}
	if sess.State() == domain.StateEmpty {
		return sess, newError(ErrorInvalidState, "no_analysis", domain.ErrNoAnalysis)
	}

	start := s.now()
	answer, err := s.gateway.Chat(ctx, s.model, buildFollowUpMessages(question, sess.History(), sess.Exchanges()))
	if err != nil {
		s.observer.ObserveOracleCall(OperationAsk, OutcomeTransportError, s.now().Sub(start))
		s.logger.ErrorContext(ctx, "oracle call failed", "operation", OperationAsk, "err", err)
		return sess, transportError(ctx, err)
	}
	s.observer.ObserveOracleCall(OperationAsk, OutcomeOK, s.now().Sub(start))

	next, err := sess.WithExchange(domain.Exchange{Question: question, Answer: strings.TrimSpace(answer)})
	if err != nil {
		return sess, newError(ErrorInvalidState, "no_analysis", err)
	}
	return next, nil
}

func transportError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(ErrorTransport, "oracle_timeout", err)
	}
	return newError(ErrorTransport, "oracle_error", err)
}

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "...(truncated)"
}
