package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"triage-assistant/internal/usecase"
)

const (
	resourceSessions  = "/sessions"
	resourceSession   = "/sessions/{id}"
	resourceAnalysis  = "/sessions/{id}/analysis"
	resourceQuestions = "/sessions/{id}/questions"
)

// Handle serves an API Gateway proxy event. Failures are reported in the
// response; the returned error is always nil so Lambda never retries.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corr := newCorrelationID(headerValue(event.Headers, CorrelationHeader))
	ctx = withCorrelationID(ctx, corr)

	rep := h.dispatch(ctx, event)
	return toProxyResponse(rep, corr), nil
}

func (h *Handler) dispatch(ctx context.Context, event events.APIGatewayProxyRequest) reply {
	resource, id := resolveResource(event)
	method := strings.ToUpper(event.HTTPMethod)

	switch resource {
	case resourceSessions:
		if method == http.MethodPost {
			return h.createSession(ctx)
		}
	case resourceSession:
		switch method {
		case http.MethodGet:
			return h.viewSession(ctx, id)
		case http.MethodDelete:
			return h.deleteSession(ctx, id)
		}
	case resourceAnalysis, resourceQuestions:
		if method != http.MethodPost {
			break
		}
		body, err := eventBody(event)
		if err != nil {
			return h.failure(ctx, usecase.NewError(usecase.ErrorInvalidInput, "invalid_body", err))
		}
		if resource == resourceAnalysis {
			return h.submit(ctx, id, body)
		}
		return h.ask(ctx, id, body)
	default:
		return h.routeNotFound(ctx)
	}
	return h.methodNotAllowed(ctx)
}

// resolveResource prefers a known API Gateway resource template and falls back
// to parsing the raw path, which covers greedy proxy resources such as
// "/{proxy+}" and events that carry no template.
func resolveResource(event events.APIGatewayProxyRequest) (string, string) {
	switch event.Resource {
	case resourceSessions, resourceSession, resourceAnalysis, resourceQuestions:
		return event.Resource, event.PathParameters["id"]
	}
	parts := strings.Split(strings.Trim(event.Path, "/"), "/")
	if len(parts) == 0 || parts[0] != "sessions" {
		return "", ""
	}
	switch len(parts) {
	case 1:
		return resourceSessions, ""
	case 2:
		return resourceSession, parts[1]
	case 3:
		switch parts[2] {
		case "analysis":
			return resourceAnalysis, parts[1]
		case "questions":
			return resourceQuestions, parts[1]
		}
	}
	return "", ""
}

func eventBody(event events.APIGatewayProxyRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}
	return base64.StdEncoding.DecodeString(event.Body)
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func toProxyResponse(rep reply, corr string) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode: rep.status,
		Headers:    map[string]string{CorrelationHeader: corr},
	}
	if rep.body == nil {
		return resp
	}
	raw, err := json.Marshal(rep.body)
	if err != nil {
		resp.StatusCode = http.StatusInternalServerError
		raw, _ = json.Marshal(errorResponse{Error: string(usecase.ErrorInternal), CorrelationID: corr})
	}
	resp.Headers["Content-Type"] = "application/json"
	resp.Body = string(raw)
	return resp
}
