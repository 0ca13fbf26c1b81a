package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID_KeepsValidHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "trace-123", body.Metadata.RequestID)
}

func TestRequestID_ReplacesBadHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, bad := range []string{"has space", strings.Repeat("a", 65)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", bad)
		r.ServeHTTP(w, req)
		assert.NotEqual(t, bad, w.Header().Get("X-Request-ID"))
		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	}
}

func TestFailWithDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FailWithDetail(c, http.StatusBadRequest, ErrInvalidCorrectOption, "question 2")

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrInvalidCorrectOption, body.Error.Code)
	assert.Equal(t, GetMessage(ErrInvalidCorrectOption), body.Error.Message)
	assert.Equal(t, "question 2", body.Error.Fields["detail"])
}

func TestNewResultHistory(t *testing.T) {
	h := NewResultHistory([]model.ExamResult{
		{Score: 90, TimeSpentSeconds: 125},
		{Score: 59, TimeSpentSeconds: 0},
	})

	require.Len(t, h.Results, 2)
	assert.Equal(t, scoring.BandExcellent, h.Results[0].Band)
	assert.Equal(t, "2 min 5 sec", h.Results[0].TimeSpent)
	assert.Equal(t, scoring.BandNeedsImprovement, h.Results[1].Band)
	assert.Equal(t, 75, h.AverageScore)

	empty := NewResultHistory(nil)
	assert.NotNil(t, empty.Results)
	assert.Zero(t, empty.AverageScore)
}

func TestExamCreated_OmitsAnswerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ExamCreated(c, &model.Exam{
		ID:        uuid.New(),
		Title:     "Algebra",
		Questions: []model.Question{{Text: "1+1", Options: []string{"1", "2"}, CorrectOption: 1}},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"Algebra"`)
	assert.NotContains(t, w.Body.String(), "correct_option")
}
