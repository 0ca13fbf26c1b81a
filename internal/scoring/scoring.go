// Package scoring turns a finished set of answers into a score. Everything here is pure.
package scoring

import (
	"github.com/stemsi/exstem-portal/internal/model"
)

// Outcome is the scoring part of an ExamResult.
type Outcome struct {
	CorrectCount   int
	TotalQuestions int
	Score          int
}

// Scorer grades a completed session.
type Scorer interface {
	Score(exam *model.Exam, answers []*int) Outcome
}

// Default counts exact matches against the answer key, one point each.
type Default struct{}

// NewDefault returns the standard scorer.
func NewDefault() Default {
	return Default{}
}

// Score grades answers positionally. An absent answer never matches.
// A zero-question exam scores 0.
func (Default) Score(exam *model.Exam, answers []*int) Outcome {
	total := len(exam.Questions)
	correct := 0
	for i, q := range exam.Questions {
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		if *answers[i] == q.CorrectOption {
			correct++
		}
	}

	return Outcome{
		CorrectCount:   correct,
		TotalQuestions: total,
		Score:          Percent(correct, total),
	}
}

// Percent returns round-half-up(part/total*100), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (part*200 + total) / (2 * total)
}

// MeanScore is the rounded mean of scores, 0 for an empty slice.
func MeanScore(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	n := len(scores)
	return (sum*2 + n) / (2 * n)
}
