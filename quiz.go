/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var quizOptions = []string{"A", "B", "C", "D"}

// passMark is the lowest passing score for n questions: half, rounded up.
func passMark(n int) int {
	return (n + 1) / 2
}

// gradeQuiz scores answers[i] against questions[i].
func gradeQuiz(questions []Question, answers []string) (score int, passed bool) {
	score = len(lo.Filter(questions, func(q Question, i int) bool {
		return i < len(answers) && q.CorrectOption != "" &&
			strings.EqualFold(strings.TrimSpace(answers[i]), q.CorrectOption)
	}))

	return score, score >= passMark(len(questions))
}

// gradableLocally reports whether every question carries its answer key.
func gradableLocally(questions []Question) bool {
	return len(questions) > 0 && lo.EveryBy(questions, func(q Question) bool {
		return q.CorrectOption != ""
	})
}

// answerMap keys answers by question id, lowercased, for server grading.
func answerMap(questions []Question, answers []string) map[string]string {
	out := make(map[string]string, len(questions))
	for i, q := range questions {
		if i < len(answers) {
			out[strconv.Itoa(q.ID)] = strings.ToLower(strings.TrimSpace(answers[i]))
		}
	}
	return out
}

// askQuiz prompts for each question until a valid option is given.
func askQuiz(in io.Reader, out io.Writer, questions []Question) ([]string, error) {
	scanner := bufio.NewScanner(in)
	answers := make([]string, 0, len(questions))

	for i, q := range questions {
		fmt.Fprintf(out, "%d. %s\n", i+1, q.QuestionText)
		fmt.Fprintf(out, "   A. %s\n   B. %s\n   C. %s\n   D. %s\n", q.OptionA, q.OptionB, q.OptionC, q.OptionD)

		for {
			fmt.Fprint(out, "> ")

			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				return nil, io.ErrUnexpectedEOF
			}

			answer := strings.ToUpper(strings.TrimSpace(scanner.Text()))
			if lo.Contains(quizOptions, answer) {
				answers = append(answers, answer)
				break
			}

			fmt.Fprintln(out, "Please answer A, B, C or D.")
		}
	}

	return answers, nil
}
