package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	questions  services.QuestionService
	generation services.GenerationService
	answers    services.AnswerService
}

func NewQuestionHandler(
	questions services.QuestionService,
	generation services.GenerationService,
	answers services.AnswerService,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		questions:   questions,
		generation:  generation,
		answers:     answers,
	}
}

// ===== QUESTIONS =====

// ListQuestions lists the caller's questions in a banca
// @Summary List questions
// @Tags questions
// @Produce json
// @Param id path string true "Banca ID"
// @Param status query string false "draft or published (default: published)"
// @Param difficulty query string false "easy, medium or hard"
// @Param limit query int false "Page size (default: 20, max: 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} services.QuestionListResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /bancas/{id}/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var query services.QuestionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.questions.List(c.Request.Context(), userID, c.Param("id"), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateQuestions creates draft questions from the caller's sources
// @Summary Generate draft questions
// @Description Consumes one generation credit per call
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Banca ID"
// @Param request body services.GenerateQuestionsRequest true "Generation request"
// @Success 201 {object} services.GenerateQuestionsResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "No credits left"
// @Failure 422 {object} ErrorResponse "Business rule violation"
// @Failure 502 {object} ErrorResponse "Generator failed"
// @Router /bancas/{id}/questions [post]
func (h *QuestionHandler) GenerateQuestions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.GenerateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.LogRequest(c, "Generating questions", "banca_id", c.Param("id"), "count", req.RequestedCount())

	resp, err := h.generation.CreateDraftQuestions(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// PublishDrafts publishes the given drafts
// @Summary Publish drafts
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Banca ID"
// @Param request body services.QuestionIDsRequest true "Draft IDs"
// @Success 200 {object} services.PublishResponse
// @Failure 404 {object} ErrorResponse "No drafts found"
// @Router /bancas/{id}/questions/drafts/publish [post]
func (h *QuestionHandler) PublishDrafts(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.QuestionIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.questions.PublishDrafts(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DiscardDrafts deletes the given questions from the banca
// @Summary Discard drafts
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Banca ID"
// @Param request body services.QuestionIDsRequest true "Question IDs"
// @Success 200 {object} services.DiscardResponse
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /bancas/{id}/questions/drafts/discard [post]
func (h *QuestionHandler) DiscardDrafts(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.QuestionIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.questions.DiscardDrafts(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetQuestion returns one of the caller's questions
// @Summary Get a question
// @Tags questions
// @Produce json
// @Param id path string true "Banca ID"
// @Param questionId path int true "Question ID"
// @Success 200 {object} services.QuestionResponse
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /bancas/{id}/questions/{questionId} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.uintParam(c, "questionId", "question ID")
	if !ok {
		return
	}

	question, err := h.questions.Get(c.Request.Context(), userID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes one of the caller's questions with its answers
// @Summary Delete a question
// @Tags questions
// @Param id path string true "Banca ID"
// @Param questionId path int true "Question ID"
// @Success 204
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /bancas/{id}/questions/{questionId} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.uintParam(c, "questionId", "question ID")
	if !ok {
		return
	}

	if err := h.questions.Delete(c.Request.Context(), userID, questionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== ANSWERS =====

// SubmitAnswer records an answer and returns the correction
// @Summary Answer a question
// @Tags answers
// @Accept json
// @Produce json
// @Param id path string true "Banca ID"
// @Param questionId path int true "Question ID"
// @Param request body services.SubmitAnswerRequest true "Answer"
// @Success 201 {object} services.SubmitAnswerResponse
// @Failure 400 {object} ErrorResponse "Option does not belong to the question"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /bancas/{id}/questions/{questionId}/answers [post]
func (h *QuestionHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.uintParam(c, "questionId", "question ID")
	if !ok {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.answers.Submit(c.Request.Context(), userID, questionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetAnswerHistory lists the caller's answers to a question
// @Summary Answer history
// @Tags answers
// @Produce json
// @Param id path string true "Banca ID"
// @Param questionId path int true "Question ID"
// @Success 200 {object} services.AnswerHistoryResponse
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /bancas/{id}/questions/{questionId}/answers [get]
func (h *QuestionHandler) GetAnswerHistory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.uintParam(c, "questionId", "question ID")
	if !ok {
		return
	}

	resp, err := h.answers.History(c.Request.Context(), userID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ===== ME =====

// ListMyQuestions returns every question of the caller grouped by banca
// @Summary My questions
// @Tags me
// @Produce json
// @Success 200 {array} services.BancaQuestionGroup
// @Router /me/questions [get]
func (h *QuestionHandler) ListMyQuestions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	groups, err := h.questions.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// ListMyTags returns the distinct tags across the caller's questions
// @Summary My tags
// @Tags me
// @Produce json
// @Success 200 {array} string
// @Router /me/tags [get]
func (h *QuestionHandler) ListMyTags(c *gin.Context) {
	h.listTags(c, nil)
}

// ListBancaTags returns the distinct tags of the caller's questions in a banca
// @Summary Banca tags
// @Tags questions
// @Produce json
// @Param id path string true "Banca ID"
// @Success 200 {array} string
// @Router /bancas/{id}/tags [get]
func (h *QuestionHandler) ListBancaTags(c *gin.Context) {
	bancaID := c.Param("id")
	h.listTags(c, &bancaID)
}

func (h *QuestionHandler) listTags(c *gin.Context, bancaID *string) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	tags, err := h.questions.ListTags(c.Request.Context(), userID, bancaID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}

	c.JSON(http.StatusOK, tags)
}
