package http

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/bank"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/examstats"
	"exam-quiz-service/internal/identity"
	"exam-quiz-service/internal/infra/memory"
)

type testServer struct {
	server  *httptest.Server
	issuer  *identity.Issuer
	results *memory.ResultStore
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	b, err := bank.New(sampleQuestions(), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	results := memory.NewResultStore()
	analytics := app.NewAnalyticsService(results, app.AnalyticsOptions{Leaderboard: app.LeaderboardOptions{MinTotalAnswered: 1}})
	analytics.WithLeaderboardCache(memory.NewLeaderboardCache(analytics, time.Minute))
	issuer, err := identity.NewIssuer("test-secret", time.Hour, results)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	play := app.NewPlayService(memory.NewSessionStore(), b, analytics)

	router := NewRouter(NewAPIHandler(analytics, b, results).WithPassRates(samplePassRates()), NewWSHandler(play), issuer)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return testServer{server: server, issuer: issuer, results: results}
}

func (s testServer) signIn(t *testing.T, externalID, name string) (domain.User, string) {
	t.Helper()
	user, token, err := s.issuer.SignIn(context.Background(), domain.Profile{ExternalID: externalID, DisplayName: name})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return user, token
}

func (s testServer) do(t *testing.T, method, path, token, body string) (int, json.RawMessage, string) {
	t.Helper()
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, env.Data, env.Error
}

func TestCategoriesListsEveryCategory(t *testing.T) {
	s := newTestServer(t)

	status, data, _ := s.do(t, http.MethodGet, "/api/categories", "", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var out []categoryCount
	_ = json.Unmarshal(data, &out)
	if len(out) != len(domain.Categories()) || out[1].Category != domain.CategoryHygiene || out[1].Count != 2 {
		t.Fatalf("unexpected categories %+v", out)
	}
}

func TestResultsRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	if status, _, msg := s.do(t, http.MethodGet, "/api/results?type=stats", "", ""); status != http.StatusUnauthorized || msg == "" {
		t.Fatalf("expected 401 with message, got %d %q", status, msg)
	}

	// A valid token for a user the store does not know.
	token, _ := s.issuer.Sign(domain.User{ID: "ghost", ExternalID: "ghost-ext"})
	if status, _, _ := s.do(t, http.MethodGet, "/api/dashboard", token, ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", status)
	}
}

func TestSaveResultThenReadStats(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signIn(t, "line-1", "Sakura")

	body := `{"category":"衛生管理","totalQuestions":10,"correctAnswers":7,"wrongQuestionIds":[1,2,3]}`
	status, _, msg := s.do(t, http.MethodPost, "/api/results", token, body)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", status, msg)
	}

	status, data, _ := s.do(t, http.MethodGet, "/api/results?type=stats", token, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var stats statsResponse
	_ = json.Unmarshal(data, &stats)
	if stats.Overall.Rate != 70 || stats.Stats[1].TotalAnswered != 10 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	_, data, _ = s.do(t, http.MethodGet, "/api/results?type=weak", token, "")
	var weak []int
	_ = json.Unmarshal(data, &weak)
	if len(weak) != 3 || weak[0] != 1 {
		t.Fatalf("unexpected weak ids %v", weak)
	}

	_, data, _ = s.do(t, http.MethodGet, "/api/results?type=history&limit=1", token, "")
	var history []domain.Result
	_ = json.Unmarshal(data, &history)
	if len(history) != 1 || history[0].Category != domain.CategoryHygiene {
		t.Fatalf("unexpected history %+v", history)
	}

	_, data, _ = s.do(t, http.MethodGet, "/api/leaderboard", "", "")
	var board []domain.LeaderboardEntry
	_ = json.Unmarshal(data, &board)
	if len(board) != 1 || board[0].DisplayName != "Sakura" || board[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", board)
	}
}

func TestSaveResultRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signIn(t, "line-1", "Sakura")

	for _, body := range []string{
		`{"category":"料理","totalQuestions":1,"correctAnswers":1}`,
		`{"category":"衛生管理","totalQuestions":1,"correctAnswers":2}`,
		`not json`,
	} {
		if status, _, _ := s.do(t, http.MethodPost, "/api/results", token, body); status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, status)
		}
	}
	if status, _, _ := s.do(t, http.MethodGet, "/api/results?type=bogus", token, ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", status)
	}
}

func TestDashboardForNewUserIsEmpty(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signIn(t, "line-9", "")

	status, data, _ := s.do(t, http.MethodGet, "/api/dashboard", token, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var d app.Dashboard
	_ = json.Unmarshal(data, &d)
	if d.Degraded || d.Overall.TotalAnswered != 0 || len(d.Stats) != len(domain.Categories()) {
		t.Fatalf("unexpected dashboard %+v", d)
	}
}

func TestTrendsGroupsByExam(t *testing.T) {
	s := newTestServer(t)

	_, data, _ := s.do(t, http.MethodGet, "/api/trends", "", "")
	var trends []examTrend
	_ = json.Unmarshal(data, &trends)
	if len(trends) != 2 || trends[0].Exam != "第51回" || trends[0].Total != 1 || trends[1].Total != 3 {
		t.Fatalf("unexpected trends %+v", trends)
	}
}

func TestPassRatesSummarizesSeasons(t *testing.T) {
	s := newTestServer(t)

	status, data, _ := s.do(t, http.MethodGet, "/api/pass-rates", "", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var got examstats.Summary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Results) != 3 || got.Results[0].Exam != "第52回" {
		t.Fatalf("expected newest sitting first, got %+v", got.Results)
	}
	if got.Latest.Exam != "第52回" || got.LatestSpring.Exam != "第51回" || got.LatestFall.Exam != "第52回" {
		t.Fatalf("unexpected latest sittings %+v", got)
	}
	if got.SpringAverage != 88.1 || got.FallAverage != 60.2 {
		t.Fatalf("unexpected averages spring=%v fall=%v", got.SpringAverage, got.FallAverage)
	}
}

func TestPassRatesWithoutDataIsEmpty(t *testing.T) {
	h := NewAPIHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.PassRates(rec, httptest.NewRequest(http.MethodGet, "/api/pass-rates", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"results":[]`) || !strings.Contains(body, `"latest":null`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func samplePassRates() examstats.Data {
	return examstats.Data{Results: []examstats.Result{
		{Exam: "第50回", Season: examstats.Fall, Applicants: 4988, Takers: 4763, Passed: 2622, Rate: 55.0},
		{Exam: "第52回", Season: examstats.Fall, Applicants: 4788, Takers: 4569, Passed: 2989, Rate: 65.4},
		{Exam: "第51回", Season: examstats.Spring, Applicants: 20025, Takers: 19776, Passed: 17427, Rate: 88.1},
	}}
}

func sampleQuestions() []domain.Question {
	mk := func(id int, c domain.Category, exam string) domain.Question {
		return domain.Question{
			ID:           id,
			Category:     c,
			Exam:         exam,
			Text:         "question",
			Choices:      []string{"A", "B", "C", "D"},
			CorrectIndex: 1,
			Explanation:  "because",
		}
	}
	return []domain.Question{
		mk(1, domain.CategoryHygiene, "第52回"),
		mk(2, domain.CategoryHygiene, "第52回"),
		mk(3, domain.CategoryLaw, "第52回"),
		mk(4, domain.CategoryScience, "第51回"),
	}
}
