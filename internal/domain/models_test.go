package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseSelection(t *testing.T) {
	cases := []struct {
		raw  string
		mode SelectionMode
	}{
		{"", SelectionMixed},
		{"random", SelectionMixed},
		{"mixed", SelectionMixed},
		{"weak", SelectionWeak},
		{" 衛生管理 ", SelectionCategory},
	}
	for _, c := range cases {
		sel, err := ParseSelection(c.raw, []int{1})
		if err != nil {
			t.Fatalf("%q: %v", c.raw, err)
		}
		if sel.Mode != c.mode {
			t.Fatalf("%q: expected %s, got %s", c.raw, c.mode, sel.Mode)
		}
	}

	if _, err := ParseSelection("料理", nil); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected unknown category, got %v", err)
	}
	sel, _ := ParseSelection("美容保健", nil)
	if l := sel.Label(); l == nil || *l != CategoryHealth {
		t.Fatalf("expected health label, got %v", l)
	}
	if MixedSelection().Label() != nil {
		t.Fatalf("mixed selection must not carry a label")
	}
}

func TestWeakSelectionCopiesIDs(t *testing.T) {
	ids := []int{1, 2}
	sel := WeakSelection(ids)
	ids[0] = 99
	if sel.QuestionIDs[0] != 1 {
		t.Fatalf("selection aliases caller slice")
	}
}

func TestBreakdownSplitsByCategoryInDisplayOrder(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	attempt := Attempt{
		FinishedAt: at,
		Answers: []Answer{
			{QuestionID: 5, Category: CategoryManagement, IsCorrect: false},
			{QuestionID: 1, Category: CategoryLaw, IsCorrect: true},
			{QuestionID: 6, Category: CategoryManagement, IsCorrect: true},
		},
	}

	got := attempt.Breakdown("u1")
	want := []Result{
		{UserID: "u1", Category: CategoryLaw, TotalQuestions: 1, CorrectAnswers: 1, WrongQuestionIDs: []int{}, CompletedAt: at},
		{UserID: "u1", Category: CategoryManagement, TotalQuestions: 2, CorrectAnswers: 1, WrongQuestionIDs: []int{5}, CompletedAt: at},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	for _, r := range got {
		if err := r.Validate(); err != nil {
			t.Fatalf("breakdown produced invalid result: %v", err)
		}
	}
}

func TestQuestionValidate(t *testing.T) {
	ok := Question{ID: 1, Category: CategoryLaw, Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 3}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Question{
		{ID: 2, Category: "その他", Choices: ok.Choices},
		{ID: 3, Category: CategoryLaw, Choices: []string{"a", "b", "c"}},
		{ID: 4, Category: CategoryLaw, Choices: ok.Choices, CorrectIndex: 4},
	}
	for _, q := range bad {
		if err := q.Validate(); !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("question %d: expected invalid question, got %v", q.ID, err)
		}
	}
}

func TestResultValidate(t *testing.T) {
	cases := []struct {
		name string
		r    Result
		ok   bool
	}{
		{"valid", Result{Category: CategoryLaw, TotalQuestions: 3, CorrectAnswers: 1, WrongQuestionIDs: []int{1, 2}}, true},
		{"zero total", Result{Category: CategoryLaw}, false},
		{"too many correct", Result{Category: CategoryLaw, TotalQuestions: 1, CorrectAnswers: 2}, false},
		{"too many wrong ids", Result{Category: CategoryLaw, TotalQuestions: 2, CorrectAnswers: 1, WrongQuestionIDs: []int{1, 2}}, false},
		{"unknown category", Result{Category: "x", TotalQuestions: 1}, false},
	}
	for _, c := range cases {
		err := c.r.Validate()
		if c.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidResult) {
			t.Fatalf("%s: expected invalid result, got %v", c.name, err)
		}
	}
}

func TestCategoriesAreOrdered(t *testing.T) {
	cs := Categories()
	if len(cs) != 7 || cs[0] != CategoryLaw || cs[6] != CategoryManagement {
		t.Fatalf("unexpected categories %v", cs)
	}
	cs[0] = "mutated"
	if Categories()[0] != CategoryLaw {
		t.Fatalf("Categories must return a copy")
	}
}
