package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-portal/internal/middleware"
	"github.com/stemsi/exstem-portal/internal/response"
)

// StudentPortalHandler handles student-facing endpoints.
type StudentPortalHandler struct {
	examService ExamManager
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(examService ExamManager) *StudentPortalHandler {
	return &StudentPortalHandler{examService: examService}
}

// GetMyResults godoc
// GET /api/v1/student/results
// Returns the calling student's result history, newest first, with their average score.
func (h *StudentPortalHandler) GetMyResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.examService.StudentResults(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.StudentResults(c, results)
}
