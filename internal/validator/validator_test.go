package validator

import (
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidate() *govalidator.Validate {
	v := govalidator.New()
	v.SetTagName("binding")
	Register(v)
	return v
}

func intPtr(v int) *int { return &v }

func TestCreateExamRequest_Valid(t *testing.T) {
	req := model.CreateExamRequest{
		Title: "Physics",
		Questions: []model.CreateQuestionRequest{
			{Text: "g?", Options: []string{"9.8", "10"}, CorrectOption: intPtr(0)},
		},
	}
	assert.NoError(t, newValidate().Struct(req))
}

func TestCreateExamRequest_CorrectOptionOutOfRange(t *testing.T) {
	req := model.CreateExamRequest{
		Title: "Physics",
		Questions: []model.CreateQuestionRequest{
			{Text: "g?", Options: []string{"9.8", "10"}, CorrectOption: intPtr(2)},
		},
	}
	err := newValidate().Struct(req)
	require.Error(t, err)

	fields := TranslateErrors(err)
	assert.Contains(t, fields, "questions[0].correct_option")
}

func TestCreateExamRequest_MissingFields(t *testing.T) {
	err := newValidate().Struct(model.CreateExamRequest{Title: "ab"})
	require.Error(t, err)

	fields := TranslateErrors(err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "questions")
}

func TestTranslateErrors_NonValidation(t *testing.T) {
	fields := TranslateErrors(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), fields["detail"])
}
