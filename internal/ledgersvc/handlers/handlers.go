package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/banknote-app/banknote-services/internal/ledgersvc/service"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	tokenAuth   *jwtauth.JWTAuth
	userService *service.UserService
	ledger      *service.LedgerService
}

func NewHandler(userService *service.UserService, ledger *service.LedgerService) *Handler {
	return &Handler{
		userService: userService,
		ledger:      ledger,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "ledger service is running at port " + os.Getenv("LEDGER_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}

// GuestLoginHandler mints an anonymous user row and a signed token carrying
// its id. The ledger never inspects the id beyond equality.
func (h *Handler) GuestLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	user, err := h.userService.GetOrCreateUser(r.Context(), "", req.Name, true)
	if err != nil {
		log.Errorf("Error [UserService.GetOrCreateUser] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
		return
	}

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"user_id": user.UserID,
		"exp":     expirationTime,
	})
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "failed to issue token"})
		return
	}

	h.CreateResponse(w, Response{
		Code: http.StatusOK,
		Data: map[string]interface{}{
			"token": tokenString,
			"user":  user,
		},
	})
}

func (h *Handler) RecentGamesHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	games, err := h.ledger.RecentGames(r.Context(), limit)
	if err != nil {
		log.Errorf("Error [Ledger.RecentGames] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: games})
}

func (h *Handler) UserStatsHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	stats, err := h.ledger.UserStats(r.Context(), userID)
	if err != nil {
		log.Errorf("Error [Ledger.UserStats] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
		return
	}

	h.CreateResponse(w, Response{
		Code: http.StatusOK,
		Data: map[string]interface{}{
			"total_games":        stats.TotalGames,
			"won_games":          stats.WonGames,
			"total_play_time_ms": stats.TotalPlayTime.Milliseconds(),
		},
	})
}
