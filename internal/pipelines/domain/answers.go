package domain

import (
	"strconv"
	"time"
)

// AnswersFromResponses derives the answer set conditional logic consults
// from a batch of submitted responses, keyed by field ID. Scalars are
// rendered to their canonical text form so equals/contains compare
// against the same strings the client configured.
func AnswersFromResponses(responses map[string]FieldResponse) AnswerSet {
	answers := make(AnswerSet, len(responses))
	for id, response := range responses {
		answers[id] = answerFromResponse(response)
	}
	return answers
}

func answerFromResponse(response FieldResponse) Answer {
	switch {
	case len(response.Selections) > 0:
		return Answer{Values: response.Selections}
	case response.Boolean != nil:
		return Answer{Text: strconv.FormatBool(*response.Boolean)}
	case response.Number != nil:
		return Answer{Text: strconv.FormatFloat(*response.Number, 'f', -1, 64)}
	case response.Date != nil:
		return Answer{Text: response.Date.Format(time.DateOnly)}
	case response.Text != nil:
		return Answer{Text: *response.Text}
	}
	return Answer{}
}
