package model

// Question is a single multiple-choice question. CorrectOption indexes into Options.
type Question struct {
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectOption int      `json:"correct_option" yaml:"correct_option"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// ForStudent strips the answer key.
func (q *Question) ForStudent(index int) *QuestionForStudent {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return &QuestionForStudent{Index: index, Text: q.Text, Options: opts}
}

// CreateQuestionRequest is one question inside CreateExamRequest.
type CreateQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,max=10,dive,required"`
	CorrectOption *int     `json:"correct_option" binding:"required,min=0"`
}
