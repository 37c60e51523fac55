package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

// AssistantHandler serves the rule-based assistant endpoints
type AssistantHandler struct {
	assistantService ports.AssistantService
	logger           *logger.Logger
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistantService ports.AssistantService, logger *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
		logger:           logger.WithComponent("assistant_handler"),
	}
}

// Chat godoc
// @Summary Chat with the assistant
// @Tags ai
// @Accept json
// @Produce json
// @Param request body ports.ChatRequest true "Message"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /ai/chat [post]
func (h *AssistantHandler) Chat(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req ports.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	resp, err := h.assistantService.Chat(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", Data{"response": resp})
}

// TaskSuggestions godoc
// @Summary Task suggestions
// @Description Urgent, organization and productivity hints derived from the caller's tasks
// @Tags ai
// @Produce json
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /ai/task-suggestions [post]
func (h *AssistantHandler) TaskSuggestions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	suggestions, err := h.assistantService.SuggestTasks(c.Request().Context(), userID)
	if err != nil {
		h.logger.Errorw("Task suggestions failed", "error", err, "user_id", userID)
		return err
	}

	return ok(c, http.StatusOK, "", Data{"suggestions": suggestions})
}

// DailyPlan godoc
// @Summary Daily plan
// @Description Splits today's open tasks into morning, afternoon and evening slots
// @Tags ai
// @Produce json
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /ai/daily-plan [post]
func (h *AssistantHandler) DailyPlan(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	plan, err := h.assistantService.PlanDay(c.Request().Context(), userID)
	if err != nil {
		h.logger.Errorw("Daily plan failed", "error", err, "user_id", userID)
		return err
	}

	return ok(c, http.StatusOK, "", Data{"dailyPlan": plan})
}
