package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bloomgrove/platform/internal/auth"
	"github.com/bloomgrove/platform/internal/domain"
	"github.com/bloomgrove/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit  = 50
	defaultRankingLimit  = 10
	defaultActivityLimit = 20
)

// ChallengeHandler handles challenge and progress endpoints.
type ChallengeHandler struct {
	svc *service.ChallengeService
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(svc *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{svc: svc}
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	id, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized(err.Error())
	}
	return id, nil
}

func limitParam(r *http.Request, fallback int) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			return n
		}
	}
	return fallback
}

// Today handles GET /challenges/today, the shuffled daily recommendation.
func (h *ChallengeHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	challenges, err := h.svc.TodayRecommended(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, challenges)
}

// ByCategory handles GET /challenges/by-category/{category}.
func (h *ChallengeHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		RespondError(w, domain.ErrValidation(err.Error()))
		return
	}

	challenges, err := h.svc.ByCategory(r.Context(), category)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, challenges)
}

type completeRequest struct {
	Note string `json:"note"`
}

// Complete handles POST /challenges/{id}/complete.
func (h *ChallengeHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	challengeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid challenge id"))
		return
	}

	var input completeRequest
	if r.ContentLength > 0 {
		if err := DecodeJSON(r, &input); err != nil {
			RespondError(w, domain.ErrValidation("invalid request body"))
			return
		}
	}

	result, err := h.svc.CompleteChallenge(r.Context(), userID, challengeID, input.Note)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

type progressResponse struct {
	domain.UserProgress
	FlowerEmoji string `json:"flower_emoji"`
}

// Progress handles GET /progress.
func (h *ChallengeHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	progress, err := h.svc.Progress(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, progressResponse{UserProgress: progress, FlowerEmoji: progress.FlowerEmoji()})
}

// History handles GET /challenges/history.
func (h *ChallengeHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	history, err := h.svc.History(r.Context(), userID, limitParam(r, defaultHistoryLimit))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, history)
}

// RecentActivity handles GET /activity/recent, the latest completions across users.
func (h *ChallengeHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.svc.RecentActivity(r.Context(), limitParam(r, defaultActivityLimit))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, activity)
}

type rankingEntry struct {
	domain.UserProgress
	FlowerEmoji string `json:"flower_emoji"`
	Rank        int    `json:"rank"`
}

// Ranking handles GET /challenges/ranking.
func (h *ChallengeHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	top, err := h.svc.Ranking(r.Context(), limitParam(r, defaultRankingLimit))
	if err != nil {
		RespondError(w, err)
		return
	}

	entries := make([]rankingEntry, len(top))
	for i, p := range top {
		entries[i] = rankingEntry{UserProgress: p, FlowerEmoji: p.FlowerEmoji(), Rank: i + 1}
	}
	RespondJSON(w, http.StatusOK, entries)
}

// TodayCount handles GET /challenges/today/count.
func (h *ChallengeHandler) TodayCount(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	count, err := h.svc.TodayCompletedCount(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]int{"count": count, "daily_cap": domain.DailyCap})
}

// Stats handles GET /challenges/stats.
func (h *ChallengeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	// Optional explicit range overrides the default windows.
	if from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to"); from != "" && to != "" {
		start, err1 := time.Parse("2006-01-02", from)
		end, err2 := time.Parse("2006-01-02", to)
		if err1 != nil || err2 != nil || !end.After(start) {
			RespondError(w, domain.ErrValidation("invalid date range"))
			return
		}
		count, err := h.svc.CountBetween(r.Context(), userID, start, end)
		if err != nil {
			RespondError(w, err)
			return
		}
		RespondJSON(w, http.StatusOK, map[string]int64{"count": count})
		return
	}

	stats, err := h.svc.UserStats(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}
