package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"triage-assistant/internal/domain"
	"triage-assistant/internal/sessions"
	"triage-assistant/internal/usecase"
)

const CorrelationHeader = "X-Correlation-Id"

// TriageUseCase is the part of usecase.TriageService the transport needs.
type TriageUseCase interface {
	Submit(ctx context.Context, sess domain.Session, in usecase.SubmitInput) (domain.Session, error)
	Ask(ctx context.Context, sess domain.Session, question string) (domain.Session, error)
}

type SessionStore interface {
	Create() string
	Get(id string) (domain.Session, error)
	Update(id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error)
	Delete(id string)
}

// Handler serves the session API. The same operations back the chi router
// and the API Gateway entry point.
type Handler struct {
	uc      TriageUseCase
	store   SessionStore
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Handler)

// WithTimeout bounds each oracle-backed request. Zero leaves it unbounded.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(uc TriageUseCase, store SessionStore, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	if store == nil {
		return nil, errors.New("handler: session store must not be nil")
	}
	h := &Handler{uc: uc, store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type submitRequest struct {
	Symptoms string                 `json:"symptoms"`
	Context  domain.ClinicalContext `json:"context"`
}

type askRequest struct {
	Question string `json:"question"`
}

type createResponse struct {
	SessionID string       `json:"sessionId"`
	State     domain.State `json:"state"`
}

type sessionView struct {
	SessionID          string             `json:"sessionId"`
	State              domain.State       `json:"state"`
	Analysis           *domain.Analysis   `json:"analysis"`
	Drift              []domain.DriftKind `json:"drift"`
	Exchanges          []domain.Exchange  `json:"exchanges"`
	SuggestedQuestions []string           `json:"suggestedQuestions"`
	HistoryLength      int                `json:"historyLength"`
}

type errorResponse struct {
	Error         string `json:"error"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlationId"`
}

// reply is a transport-neutral response. A nil body means no content.
type reply struct {
	status int
	body   any
}

func newView(id string, sess domain.Session) sessionView {
	v := sessionView{
		SessionID:          id,
		State:              sess.State(),
		Drift:              []domain.DriftKind{},
		Exchanges:          sess.Exchanges(),
		SuggestedQuestions: sess.SuggestedQuestions(),
		HistoryLength:      len(sess.History()),
	}
	if a, ok := sess.Analysis(); ok {
		v.Analysis = &a
		if drift := a.Drift(); len(drift) > 0 {
			v.Drift = drift
		}
	}
	if v.SuggestedQuestions == nil {
		v.SuggestedQuestions = []string{}
	}
	return v
}

func (h *Handler) createSession(ctx context.Context) reply {
	id := h.store.Create()
	h.logger.InfoContext(ctx, "session created", "session_id", id, "correlation_id", correlationID(ctx))
	return reply{status: http.StatusCreated, body: createResponse{SessionID: id, State: domain.StateEmpty}}
}

func (h *Handler) viewSession(ctx context.Context, id string) reply {
	sess, err := h.store.Get(id)
	if err != nil {
		return h.failure(ctx, storeError(err))
	}
	return reply{status: http.StatusOK, body: newView(id, sess)}
}

func (h *Handler) deleteSession(ctx context.Context, id string) reply {
	h.store.Delete(id)
	h.logger.InfoContext(ctx, "session deleted", "session_id", id, "correlation_id", correlationID(ctx))
	return reply{status: http.StatusNoContent}
}

func (h *Handler) submit(ctx context.Context, id string, body []byte) reply {
	var req submitRequest
	if err := decodeBody(body, &req); err != nil {
		return h.failure(ctx, usecase.NewError(usecase.ErrorInvalidInput, "invalid_body", err))
	}
	return h.apply(ctx, id, func(ctx context.Context, sess domain.Session) (domain.Session, error) {
		return h.uc.Submit(ctx, sess, usecase.SubmitInput{Symptoms: req.Symptoms, Context: req.Context})
	})
}

func (h *Handler) ask(ctx context.Context, id string, body []byte) reply {
	var req askRequest
	if err := decodeBody(body, &req); err != nil {
		return h.failure(ctx, usecase.NewError(usecase.ErrorInvalidInput, "invalid_body", err))
	}
	return h.apply(ctx, id, func(ctx context.Context, sess domain.Session) (domain.Session, error) {
		return h.uc.Ask(ctx, sess, req.Question)
	})
}

// apply runs op under the session's operation lock and commits only on success.
func (h *Handler) apply(ctx context.Context, id string, op func(context.Context, domain.Session) (domain.Session, error)) reply {
	opCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	sess, err := h.store.Update(id, func(s domain.Session) (domain.Session, error) {
		return op(opCtx, s)
	})
	if err != nil {
		return h.failure(ctx, storeError(err))
	}
	return reply{status: http.StatusOK, body: newView(id, sess)}
}

func (h *Handler) failure(ctx context.Context, err error) reply {
	return h.failureWithStatus(ctx, statusFor(err), err)
}

func (h *Handler) failureWithStatus(ctx context.Context, status int, err error) reply {
	code, reason := usecase.ErrorInternal, ""
	var ue *usecase.Error
	if errors.As(err, &ue) {
		code, reason = ue.Code, ue.Reason
	}
	corr := correlationID(ctx)

	attrs := []any{"status", status, "code", code, "reason", reason, "correlation_id", corr, "err", err}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", attrs...)
	} else {
		h.logger.InfoContext(ctx, "request rejected", attrs...)
	}
	return reply{status: status, body: errorResponse{Error: string(code), Reason: reason, CorrelationID: corr}}
}

func (h *Handler) routeNotFound(ctx context.Context) reply {
	return h.failureWithStatus(ctx, http.StatusNotFound, usecase.NewError(usecase.ErrorNotFound, "route_not_found", nil))
}

func (h *Handler) methodNotAllowed(ctx context.Context) reply {
	return h.failureWithStatus(ctx, http.StatusMethodNotAllowed, usecase.NewError(usecase.ErrorInvalidInput, "method_not_allowed", nil))
}

// storeError gives registry failures the same coded shape as use case failures.
func storeError(err error) error {
	var ue *usecase.Error
	switch {
	case errors.As(err, &ue):
		return err
	case errors.Is(err, sessions.ErrNotFound):
		return usecase.NewError(usecase.ErrorNotFound, "session_not_found", err)
	case errors.Is(err, sessions.ErrBusy):
		return usecase.NewError(usecase.ErrorOperationInProgress, "session_busy", err)
	default:
		return err
	}
}

func statusFor(err error) int {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		return http.StatusInternalServerError
	}
	switch ue.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorInvalidState, usecase.ErrorOperationInProgress:
		return http.StatusConflict
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorTransport:
		if ue.Reason == "oracle_timeout" {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case usecase.ErrorParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("handler: request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("handler: decode request body: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("handler: request body has trailing data")
	}
	return nil
}

type correlationKey struct{}

func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func newCorrelationID(provided string) string {
	if provided != "" {
		return provided
	}
	return uuid.NewString()
}
