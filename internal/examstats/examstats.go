// Package examstats publishes the official national-exam pass rates shown next to the
// practice statistics.
package examstats

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Season string

const (
	Spring Season = "春"
	Fall   Season = "秋"
)

var ErrInvalidResult = errors.New("invalid exam result")

// Result is one sitting of the national exam.
type Result struct {
	Exam       string  `yaml:"exam" json:"exam"`
	Year       string  `yaml:"year" json:"year"`
	Season     Season  `yaml:"season" json:"season"`
	Applicants int     `yaml:"applicants" json:"applicants"`
	Takers     int     `yaml:"takers" json:"takers"`
	Passed     int     `yaml:"passed" json:"passed"`
	Rate       float64 `yaml:"rate" json:"rate"`
}

// Notes carries the per-season commentary.
type Notes struct {
	Spring string `yaml:"spring" json:"spring"`
	Fall   string `yaml:"fall" json:"fall"`
}

type Data struct {
	Source  string   `yaml:"source"`
	Results []Result `yaml:"results"`
	Notes   Notes    `yaml:"notes"`
}

// Summary is the pass-rate view: every sitting newest first plus the headline figures.
type Summary struct {
	Source        string   `json:"source,omitempty"`
	Results       []Result `json:"results"`
	Latest        *Result  `json:"latest"`
	LatestSpring  *Result  `json:"latestSpring"`
	LatestFall    *Result  `json:"latestFall"`
	SpringAverage float64  `json:"springAverage"`
	FallAverage   float64  `json:"fallAverage"`
	Notes         Notes    `json:"notes"`
}

// LoadFile reads and validates a results file.
func LoadFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read exam results: %w", err)
	}
	return Parse(raw)
}

// Parse decodes results and fills a missing rate from passed/takers.
func Parse(raw []byte) (Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("parse exam results: %w", err)
	}
	seen := make(map[string]struct{}, len(data.Results))
	for i := range data.Results {
		r := &data.Results[i]
		if err := r.validate(); err != nil {
			return Data{}, err
		}
		if _, dup := seen[r.Exam]; dup {
			return Data{}, fmt.Errorf("%w: duplicate exam %s", ErrInvalidResult, r.Exam)
		}
		seen[r.Exam] = struct{}{}
		if r.Rate == 0 && r.Takers > 0 {
			r.Rate = round1(float64(r.Passed) * 100 / float64(r.Takers))
		}
	}
	return data, nil
}

func (r Result) validate() error {
	if _, ok := Number(r.Exam); !ok {
		return fmt.Errorf("%w: exam label %q", ErrInvalidResult, r.Exam)
	}
	if r.Season != Spring && r.Season != Fall {
		return fmt.Errorf("%w: %s season %q", ErrInvalidResult, r.Exam, r.Season)
	}
	if r.Passed < 0 || r.Passed > r.Takers || r.Takers > r.Applicants {
		return fmt.Errorf("%w: %s counts %d/%d/%d", ErrInvalidResult, r.Exam, r.Passed, r.Takers, r.Applicants)
	}
	if r.Rate < 0 || r.Rate > 100 {
		return fmt.Errorf("%w: %s rate %.1f", ErrInvalidResult, r.Exam, r.Rate)
	}
	return nil
}

// Number extracts N from a "第N回" label.
func Number(exam string) (int, bool) {
	s, ok := strings.CutPrefix(exam, "第")
	if !ok {
		return 0, false
	}
	s, ok = strings.CutSuffix(s, "回")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Summarize orders the sittings newest first and computes the season averages rounded to
// one decimal. A season without data averages to 0.
func Summarize(data Data) Summary {
	results := make([]Result, len(data.Results))
	copy(results, data.Results)
	sort.SliceStable(results, func(i, j int) bool {
		a, _ := Number(results[i].Exam)
		b, _ := Number(results[j].Exam)
		return a > b
	})

	out := Summary{Source: data.Source, Results: results, Notes: data.Notes}
	var springSum, fallSum float64
	var springN, fallN int
	for i := range results {
		r := &results[i]
		if out.Latest == nil {
			out.Latest = r
		}
		switch r.Season {
		case Spring:
			if out.LatestSpring == nil {
				out.LatestSpring = r
			}
			springSum += r.Rate
			springN++
		case Fall:
			if out.LatestFall == nil {
				out.LatestFall = r
			}
			fallSum += r.Rate
			fallN++
		}
	}
	if springN > 0 {
		out.SpringAverage = round1(springSum / float64(springN))
	}
	if fallN > 0 {
		out.FallAverage = round1(fallSum / float64(fallN))
	}
	return out
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
