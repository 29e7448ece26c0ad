package examstats

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestShippedResultsSummary(t *testing.T) {
	data, err := LoadFile(filepath.Join("..", "..", "config", "exam_results.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := Summarize(data)
	if len(s.Results) != 14 {
		t.Fatalf("expected 14 sittings, got %d", len(s.Results))
	}
	if s.Latest.Exam != "第52回" || s.LatestSpring.Exam != "第51回" || s.LatestFall.Exam != "第52回" {
		t.Fatalf("unexpected latest %s / %s / %s", s.Latest.Exam, s.LatestSpring.Exam, s.LatestFall.Exam)
	}
	if s.SpringAverage != 87.5 || s.FallAverage != 60.1 {
		t.Fatalf("unexpected averages spring=%v fall=%v", s.SpringAverage, s.FallAverage)
	}
	if s.Notes.Spring == "" || s.Notes.Fall == "" {
		t.Fatalf("expected season notes")
	}
}

func TestSummarizeOrdersByExamNumber(t *testing.T) {
	s := Summarize(Data{Results: []Result{
		{Exam: "第9回", Season: Spring, Rate: 80},
		{Exam: "第10回", Season: Spring, Rate: 85},
	}})
	if s.Results[0].Exam != "第10回" {
		t.Fatalf("expected 第10回 first, got %s", s.Results[0].Exam)
	}
	if s.LatestFall != nil || s.FallAverage != 0 {
		t.Fatalf("no fall sittings must leave fall empty, got %+v", s)
	}
	if s.SpringAverage != 82.5 {
		t.Fatalf("unexpected spring average %v", s.SpringAverage)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(Data{})
	if s.Results == nil || len(s.Results) != 0 || s.Latest != nil {
		t.Fatalf("unexpected empty summary %+v", s)
	}
}

func TestParseFillsRate(t *testing.T) {
	data, err := Parse([]byte("results:\n  - {exam: 第1回, season: 秋, applicants: 10, takers: 8, passed: 5}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if data.Results[0].Rate != 62.5 {
		t.Fatalf("expected 62.5, got %v", data.Results[0].Rate)
	}
}

func TestParseRejectsInvalidResults(t *testing.T) {
	cases := map[string]string{
		"season":    "results:\n  - {exam: 第1回, season: 夏, applicants: 1, takers: 1, passed: 1}\n",
		"label":     "results:\n  - {exam: first, season: 春, applicants: 1, takers: 1, passed: 1}\n",
		"counts":    "results:\n  - {exam: 第1回, season: 春, applicants: 1, takers: 2, passed: 1}\n",
		"duplicate": "results:\n  - {exam: 第1回, season: 春, applicants: 1, takers: 1, passed: 1}\n  - {exam: 第1回, season: 秋, applicants: 1, takers: 1, passed: 1}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(body)); !errors.Is(err, ErrInvalidResult) {
				t.Fatalf("expected invalid result, got %v", err)
			}
		})
	}
}
