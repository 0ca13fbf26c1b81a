package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExamStore struct {
	created []*model.Exam
	summary []model.ExamSummary
	total   int64
	err     error

	lastLimit, lastOffset int
}

func (f *fakeExamStore) Create(_ context.Context, e *model.Exam) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, e)
	return nil
}

func (f *fakeExamStore) List(_ context.Context, limit, offset int) ([]model.ExamSummary, int64, error) {
	f.lastLimit, f.lastOffset = limit, offset
	return f.summary, f.total, f.err
}

func (f *fakeExamStore) Count(context.Context) (int64, error) {
	return f.total, f.err
}

type fakeResultStore struct {
	byStudent map[int][]model.ExamResult
	attempts  int64
	average   int
}

func (f *fakeResultStore) ListByStudent(_ context.Context, id int) ([]model.ExamResult, error) {
	return f.byStudent[id], nil
}

func (f *fakeResultStore) AttemptStats(context.Context) (int64, int, error) {
	return f.attempts, f.average, nil
}

type fakeCache struct {
	put []*model.Exam
}

func (f *fakeCache) Put(_ context.Context, e *model.Exam) error {
	f.put = append(f.put, e)
	return nil
}

func intPtr(v int) *int { return &v }

func validRequest() *model.CreateExamRequest {
	return &model.CreateExamRequest{
		Title: "Algebra basics",
		Questions: []model.CreateQuestionRequest{
			{Text: "1+1", Options: []string{"1", "2"}, CorrectOption: intPtr(1)},
			{Text: "2*3", Options: []string{"5", "6", "7"}, CorrectOption: intPtr(1)},
		},
	}
}

func TestExamService_CreateDefaultsAndCaches(t *testing.T) {
	store := &fakeExamStore{}
	cache := &fakeCache{}
	svc := NewExamService(store, &fakeResultStore{}, cache, zerolog.Nop())

	exam, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, model.DefaultDurationMinutes, exam.DurationMinutes)
	assert.Len(t, exam.Questions, 2)
	assert.Equal(t, 1, exam.Questions[1].CorrectOption)
	require.Len(t, store.created, 1)
	require.Len(t, cache.put, 1)
	assert.Equal(t, exam.ID, cache.put[0].ID)
}

func TestExamService_CreateRejectsOutOfRangeAnswer(t *testing.T) {
	store := &fakeExamStore{}
	svc := NewExamService(store, &fakeResultStore{}, nil, zerolog.Nop())

	req := validRequest()
	req.Questions[1].CorrectOption = intPtr(3)

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidCorrectOption)
	assert.Empty(t, store.created)
}

func TestExamService_CreateStoreFailure(t *testing.T) {
	store := &fakeExamStore{err: errors.New("db down")}
	cache := &fakeCache{}
	svc := NewExamService(store, &fakeResultStore{}, cache, zerolog.Nop())

	_, err := svc.Create(context.Background(), validRequest())
	assert.Error(t, err)
	assert.Empty(t, cache.put)
}

func TestExamService_ListPagination(t *testing.T) {
	store := &fakeExamStore{total: 25}
	svc := NewExamService(store, &fakeResultStore{}, nil, zerolog.Nop())

	exams, page, err := svc.List(context.Background(), 3, 10)
	require.NoError(t, err)

	assert.NotNil(t, exams)
	assert.Equal(t, 10, store.lastLimit)
	assert.Equal(t, 20, store.lastOffset)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalItems)
}

func TestExamService_ListClampsArguments(t *testing.T) {
	store := &fakeExamStore{}
	svc := NewExamService(store, &fakeResultStore{}, nil, zerolog.Nop())

	_, page, err := svc.List(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, store.lastLimit)
	assert.Equal(t, 0, store.lastOffset)
}

func TestExamService_Stats(t *testing.T) {
	svc := NewExamService(&fakeExamStore{total: 4}, &fakeResultStore{attempts: 9, average: 71}, nil, zerolog.Nop())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ExamStats{TotalExams: 4, TotalAttempts: 9, AverageScore: 71}, *stats)
}

func TestExamService_StudentResultsNeverNil(t *testing.T) {
	results := &fakeResultStore{byStudent: map[int][]model.ExamResult{
		5: {{Score: 80}},
	}}
	svc := NewExamService(&fakeExamStore{}, results, nil, zerolog.Nop())

	got, err := svc.StudentResults(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.StudentResults(context.Background(), 6)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestValidateExam(t *testing.T) {
	ok := &model.Exam{
		Title:     "Geo",
		Questions: []model.Question{{Text: "capital?", Options: []string{"a", "b"}, CorrectOption: 1}},
	}
	assert.NoError(t, ValidateExam(ok))

	noTitle := *ok
	noTitle.Title = " "
	assert.ErrorIs(t, ValidateExam(&noTitle), ErrInvalidExam)

	badAnswer := *ok
	badAnswer.Questions = []model.Question{{Text: "capital?", Options: []string{"a", "b"}, CorrectOption: 2}}
	assert.ErrorIs(t, ValidateExam(&badAnswer), ErrInvalidCorrectOption)

	oneOption := *ok
	oneOption.Questions = []model.Question{{Text: "capital?", Options: []string{"a"}}}
	assert.ErrorIs(t, ValidateExam(&oneOption), ErrInvalidExam)
}
