package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/scoring"
)

// ResultView decorates a stored result with its display fields.
type ResultView struct {
	model.ExamResult
	Band      scoring.Band `json:"band"`
	TimeSpent string       `json:"time_spent"`
}

// ResultHistory is a student's results together with their rounded mean score.
type ResultHistory struct {
	Results      []ResultView `json:"results"`
	AverageScore int          `json:"average_score"`
}

// NewResultHistory builds the display form of a result list. Results is never nil.
func NewResultHistory(results []model.ExamResult) ResultHistory {
	views := make([]ResultView, len(results))
	scores := make([]int, len(results))
	for i, r := range results {
		views[i] = ResultView{
			ExamResult: r,
			Band:       scoring.BandFor(r.Score),
			TimeSpent:  scoring.FormatTimeSpent(r.TimeSpentSeconds),
		}
		scores[i] = r.Score
	}
	return ResultHistory{Results: views, AverageScore: scoring.MeanScore(scores)}
}

// ExamCreated sends 201 with the summary of a new exam. The answer key is not echoed.
func ExamCreated(c *gin.Context, exam *model.Exam) {
	Success(c, http.StatusCreated, gin.H{"exam": model.SummaryOf(exam)})
}

// ExamPage sends one page of exam summaries.
func ExamPage(c *gin.Context, exams []model.ExamSummary, pagination *Pagination) {
	if exams == nil {
		exams = []model.ExamSummary{}
	}
	SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// StudentResults sends a student's result history.
func StudentResults(c *gin.Context, results []model.ExamResult) {
	Success(c, http.StatusOK, NewResultHistory(results))
}
