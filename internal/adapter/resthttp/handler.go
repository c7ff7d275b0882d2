package resthttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"answer-engine/internal/domain"
	"answer-engine/internal/usecase"
)

// AnswerRequest is the JSON body for POST /v1/answer. Optional fields use
// pointers so an absent field falls back to the engine defaults while an
// explicit zero is honoured.
type AnswerRequest struct {
	Query         string            `json:"query"`
	TopN          *int              `json:"top_n,omitempty"`
	TopK          *int              `json:"top_k,omitempty"`
	ContextBudget *int              `json:"context_budget,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
}

// SourceResponse is one attributed source in the answer payload.
type SourceResponse struct {
	ChunkID    string `json:"chunk_id"`
	SourceFile string `json:"source_file"`
	PageNumber int    `json:"page_number"`
	Snippet    string `json:"snippet"`
}

// AnswerResponse is the JSON payload for a completed answer.
type AnswerResponse struct {
	Answer        string           `json:"answer"`
	Sources       []SourceResponse `json:"sources"`
	Degraded      bool             `json:"degraded"`
	StageFailures []string         `json:"stage_failures"`
}

type Handler struct {
	answerUsecase usecase.AnswerUsecase
}

func NewHandler(answerUsecase usecase.AnswerUsecase) *Handler {
	return &Handler{answerUsecase: answerUsecase}
}

// Answer handles POST /v1/answer.
func (h *Handler) Answer(ctx echo.Context) error {
	var req AnswerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	opts := usecase.Options{
		TopNRetrieve:  -1,
		TopKRerank:    -1,
		ContextBudget: -1,
		Filters:       req.Filters,
	}
	if req.TopN != nil {
		opts.TopNRetrieve = *req.TopN
	}
	if req.TopK != nil {
		opts.TopKRerank = *req.TopK
	}
	if req.ContextBudget != nil {
		opts.ContextBudget = *req.ContextBudget
	}

	result, err := h.answerUsecase.Answer(ctx.Request().Context(), req.Query, opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRetrievalUnavailable):
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ctx.JSON(http.StatusGatewayTimeout, map[string]string{"error": "request cancelled"})
		default:
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	return ctx.JSON(http.StatusOK, toAnswerResponse(result))
}

func toAnswerResponse(result *domain.AnswerResult) AnswerResponse {
	sources := make([]SourceResponse, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, SourceResponse{
			ChunkID:    s.ChunkID,
			SourceFile: s.SourceFile,
			PageNumber: s.PageNumber,
			Snippet:    s.Snippet,
		})
	}

	failures := result.StageFailures
	if failures == nil {
		failures = []string{}
	}

	return AnswerResponse{
		Answer:        result.AnswerText,
		Sources:       sources,
		Degraded:      result.Degraded,
		StageFailures: failures,
	}
}
