package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/response"
	"github.com/stemsi/exstem-portal/internal/service"
	"github.com/stemsi/exstem-portal/internal/validator"
)

// ExamManager is the exam service surface used over HTTP.
type ExamManager interface {
	Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error)
	List(ctx context.Context, page, perPage int) ([]model.ExamSummary, *response.Pagination, error)
	Stats(ctx context.Context) (*model.ExamStats, error)
	StudentResults(ctx context.Context, studentID int) ([]model.ExamResult, error)
}

// ExamHandler handles exam catalog endpoints.
type ExamHandler struct {
	examService ExamManager
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService ExamManager) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListExams godoc
// GET /api/v1/exams
// Lists exams with pagination. Answer keys are never included.
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, pagination, err := h.examService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.ExamPage(c, exams, pagination)
}

// CreateExam godoc
// POST /api/v1/exams
// Creates an exam. duration_minutes defaults to 30.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCorrectOption) {
			response.FailWithDetail(c, http.StatusBadRequest, response.ErrInvalidCorrectOption, err.Error())
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.ExamCreated(c, exam)
}

// GetStats godoc
// GET /api/v1/exams/stats
// Returns total exams, total attempts and the rounded mean score.
func (h *ExamHandler) GetStats(c *gin.Context) {
	stats, err := h.examService.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
