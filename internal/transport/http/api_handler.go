package http

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/examstats"
	"exam-quiz-service/internal/identity"
)

// QuestionCatalog is the read-only view of the bank the API exposes.
type QuestionCatalog interface {
	CountByCategory() map[domain.Category]int
	CountByExam() map[string]map[domain.Category]int
}

// APIHandler serves the JSON routes.
type APIHandler struct {
	analytics *app.AnalyticsService
	catalog   QuestionCatalog
	users     app.UserRepository
	passRates examstats.Summary
}

// NewAPIHandler wires the JSON routes. users may be nil when running without persistence;
// authenticated routes then trust the token alone.
func NewAPIHandler(analytics *app.AnalyticsService, catalog QuestionCatalog, users app.UserRepository) *APIHandler {
	return &APIHandler{analytics: analytics, catalog: catalog, users: users, passRates: examstats.Summarize(examstats.Data{})}
}

// WithPassRates sets the official results served by PassRates.
func (h *APIHandler) WithPassRates(data examstats.Data) *APIHandler {
	h.passRates = examstats.Summarize(data)
	return h
}

type categoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

func (h *APIHandler) Categories(w http.ResponseWriter, r *http.Request) {
	counts := h.catalog.CountByCategory()
	out := make([]categoryCount, 0, len(counts))
	for _, c := range domain.Categories() {
		out = append(out, categoryCount{Category: c, Count: counts[c]})
	}
	writeJSON(w, http.StatusOK, out)
}

type examTrend struct {
	Exam       string          `json:"exam"`
	Total      int             `json:"total"`
	Categories []categoryCount `json:"categories"`
}

// Trends cross-tabulates the bank by exam session, newest label last.
func (h *APIHandler) Trends(w http.ResponseWriter, r *http.Request) {
	byExam := h.catalog.CountByExam()
	exams := make([]string, 0, len(byExam))
	for exam := range byExam {
		exams = append(exams, exam)
	}
	sort.Strings(exams)

	out := make([]examTrend, 0, len(exams))
	for _, exam := range exams {
		trend := examTrend{Exam: exam, Categories: make([]categoryCount, 0, len(domain.Categories()))}
		for _, c := range domain.Categories() {
			n := byExam[exam][c]
			trend.Total += n
			trend.Categories = append(trend.Categories, categoryCount{Category: c, Count: n})
		}
		out = append(out, trend)
	}
	writeJSON(w, http.StatusOK, out)
}

type statsResponse struct {
	Stats   []domain.CategoryStat `json:"stats"`
	Overall domain.Overall        `json:"overall"`
}

// Results serves GET /api/results?type=stats|weak|history.
func (h *APIHandler) Results(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	switch r.URL.Query().Get("type") {
	case "stats":
		stats, err := h.analytics.CategoryStats(ctx, user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{Stats: app.OrderedStats(stats), Overall: app.Overall(stats)})
	case "weak":
		ids, err := h.analytics.WeakQuestionIDs(ctx, user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ids)
	case "history", "":
		limit := h.analytics.Options().HistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}
		history, err := h.analytics.History(ctx, user.ID, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	default:
		writeError(w, http.StatusBadRequest, "type must be stats, weak or history")
	}
}

type saveResultRequest struct {
	Category         string `json:"category"`
	TotalQuestions   int    `json:"totalQuestions"`
	CorrectAnswers   int    `json:"correctAnswers"`
	WrongQuestionIDs []int  `json:"wrongQuestionIds"`
}

// SaveResult serves POST /api/results.
func (h *APIHandler) SaveResult(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req saveResultRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	saved, err := h.analytics.SaveResult(r.Context(), domain.Result{
		UserID:           user.ID,
		Category:         category,
		TotalQuestions:   req.TotalQuestions,
		CorrectAnswers:   req.CorrectAnswers,
		WrongQuestionIDs: req.WrongQuestionIDs,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *APIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.analytics.Dashboard(r.Context(), user.ID))
}

// PassRates serves the national exam results, newest sitting first.
func (h *APIHandler) PassRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.passRates)
}

func (h *APIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.analytics.Leaderboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// requireUser resolves the caller: 401 without a valid token, 404 when the token names a user
// the store no longer knows.
func (h *APIHandler) requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	claimed := identity.CurrentUser(r.Context())
	if claimed == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	if h.users == nil {
		return *claimed, true
	}
	user, err := h.users.GetUserByExternalID(r.Context(), claimed.ExternalID)
	if err != nil {
		writeServiceError(w, err)
		return domain.User{}, false
	}
	return user, true
}
