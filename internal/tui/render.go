package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
)

var choiceLabels = []string{"A", "B", "C", "D"}

// renderQuestion renders the presented question and, once answered, the feedback.
func renderQuestion(s app.Session, message string, noColor bool) string {
	q, ok := s.Current()
	if !ok {
		return ""
	}
	lines := []string{
		stylize(renderHeader(s, q), noColor, lipgloss.Color("33")),
		"",
		q.Text,
		"",
	}

	answer, answered := s.LastAnswer()
	for i, choice := range q.Choices {
		line := fmt.Sprintf("  %s. %s", choiceLabels[i], choice)
		switch {
		case answered && i == q.CorrectIndex:
			line = stylize(line+"  ○", noColor, lipgloss.Color("42"))
		case answered && i == answer.SelectedIndex:
			line = stylize(line+"  ×", noColor, lipgloss.Color("196"))
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	if answered {
		verdict := stylize("不正解", noColor, lipgloss.Color("196"))
		if answer.IsCorrect {
			verdict = stylize("正解！", noColor, lipgloss.Color("42"))
		}
		lines = append(lines, verdict)
		if q.Explanation != "" {
			lines = append(lines, stylize(q.Explanation, noColor, lipgloss.Color("244")))
		}
		next := "enter: 次の問題"
		if s.IsLast() {
			next = "enter: 結果を見る"
		}
		lines = append(lines, "", stylize(next+"  q: 終了", noColor, lipgloss.Color("240")))
	} else {
		lines = append(lines, stylize("a-d / 1-4: 回答  q: 終了", noColor, lipgloss.Color("240")))
	}
	if message != "" {
		lines = append(lines, stylize(message, noColor, lipgloss.Color("214")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderHeader renders the progress line.
func renderHeader(s app.Session, q domain.Question) string {
	label := "ランダム"
	switch s.Selection.Mode {
	case domain.SelectionCategory:
		label = string(s.Selection.Category)
	case domain.SelectionWeak:
		label = "苦手問題"
	}
	line := fmt.Sprintf("%s | Q%02d/%02d | %s", label, s.Index+1, len(s.Questions), q.Category)
	if q.Exam != "" {
		line += " | " + q.Exam
	}
	return line + " | " + progressBar(s.Progress(), 20)
}

// renderOutcome renders the per-category result table and the missed questions.
func renderOutcome(o *app.Outcome, noColor bool) string {
	lines := []string{
		stylize(fmt.Sprintf("結果: %d/%d 正解 (%d%%)", o.Overall.TotalCorrect, o.Overall.TotalAnswered, o.Overall.Rate), noColor, lipgloss.Color("33")),
		"",
	}
	lines = append(lines, statsTable(o.Stats, noColor).View())
	if len(o.Wrong) > 0 {
		lines = append(lines, "", stylize("間違えた問題", noColor, lipgloss.Color("196")))
		for _, w := range o.Wrong {
			lines = append(lines, fmt.Sprintf("  [%d] %s", w.Question.ID, truncate(w.Question.Text, 60)))
			lines = append(lines, fmt.Sprintf("      あなた: %s  正解: %s", choiceLabels[w.SelectedIndex], choiceLabels[w.Question.CorrectIndex]))
		}
	}
	lines = append(lines, "", stylize(saveLine(o.Save), noColor, lipgloss.Color("244")))
	lines = append(lines, stylize("enter / q: 終了", noColor, lipgloss.Color("240")))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// statsTable lays out the categories touched by the attempt.
func statsTable(stats []domain.CategoryStat, noColor bool) table.Model {
	rows := make([]table.Row, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, table.Row{
			string(st.Category),
			fmt.Sprintf("%d/%d", st.TotalCorrect, st.TotalAnswered),
			fmt.Sprintf("%d%%", st.Rate()),
			progressBar(float64(st.Rate())/100, 10),
		})
	}
	return table.New(
		table.WithColumns([]table.Column{
			{Title: "分野", Width: 18},
			{Title: "正解", Width: 7},
			{Title: "正答率", Width: 6},
			{Title: "", Width: 10},
		}),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
		table.WithFocused(false),
		table.WithStyles(tableStyles(noColor)),
	)
}

// tableStyles returns table styles for the result screen.
func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	styles.Selected = styles.Cell
	if noColor {
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

func saveLine(r app.SaveReport) string {
	switch {
	case r.Guest:
		return "ゲストのため成績は保存されません"
	case len(r.Failed) > 0:
		names := make([]string, len(r.Failed))
		for i, c := range r.Failed {
			names[i] = string(c)
		}
		return "保存に失敗: " + strings.Join(names, ", ")
	default:
		return "成績を保存しました"
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyAnswered):
		return "この問題は回答済みです"
	case errors.Is(err, domain.ErrNotAnswered):
		return "先に回答してください"
	case errors.Is(err, domain.ErrChoiceOutOfRange):
		return "選択肢は a-d です"
	default:
		return err.Error()
	}
}

func progressBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(text string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
