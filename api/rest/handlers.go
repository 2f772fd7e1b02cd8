// Package rest exposes the raffle to participants over HTTP
package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"raffler/application/dto"
	"raffler/domain/entities"
	"raffler/domain/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	defaultWinnersLimit = 10
	maxWinnersLimit     = 100
)

// RaffleAPI is the application surface served over HTTP
type RaffleAPI interface {
	Enter(ctx context.Context, identity string, amountPaid int64) (*entities.Entrant, error)
	GetSnapshot(ctx context.Context) (*dto.RaffleSnapshotDTO, error)
	GetAllEntrants(ctx context.Context) ([]*entities.Entrant, error)
	GetEntrant(ctx context.Context, index int64) (*entities.Entrant, error)
	GetUpkeepStatus(ctx context.Context) (*entities.UpkeepStatus, error)
	GetRecentWinners(ctx context.Context, limit int) ([]*entities.RaffleWinner, error)
}

// Handler serves the raffle HTTP API
type Handler struct {
	raffle RaffleAPI
}

// NewHandler creates a new Handler
func NewHandler(raffle RaffleAPI) *Handler {
	return &Handler{raffle: raffle}
}

type enterRequest struct {
	Identity   string `json:"identity" binding:"required"`
	AmountPaid *int64 `json:"amount_paid" binding:"required"`
}

type entrantResponse struct {
	Index      int64     `json:"index"`
	Identity   string    `json:"identity"`
	AmountPaid int64     `json:"amount_paid"`
	EnteredAt  time.Time `json:"entered_at"`
}

type raffleResponse struct {
	State           string    `json:"state"`
	EntranceFee     int64     `json:"entrance_fee"`
	IntervalSeconds int64     `json:"interval_seconds"`
	LastDrawAt      time.Time `json:"last_draw_timestamp"`
	RecentWinner    string    `json:"recent_winner"`
	Balance         int64     `json:"balance"`
	EntrantCount    int64     `json:"number_of_entrants"`
}

type winnerResponse struct {
	RoundNumber  int64     `json:"round_number"`
	Winner       string    `json:"winner"`
	RequestID    string    `json:"request_id"`
	RandomWord   string    `json:"random_word"`
	WinnerIndex  int64     `json:"winner_index"`
	EntrantCount int64     `json:"entrant_count"`
	PrizeAmount  int64     `json:"prize_amount"`
	DrawnAt      time.Time `json:"drawn_at"`
}

// Enter records a paid entry
func (h *Handler) Enter(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identity and amount_paid are required"})
		return
	}

	entrant, err := h.raffle.Enter(c.Request.Context(), req.Identity, *req.AmountPaid)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"identity":    entrant.Identity,
		"amount_paid": entrant.AmountPaid,
		"entered_at":  entrant.EnteredAt,
	})
}

// GetRaffle returns the public raffle state
func (h *Handler) GetRaffle(c *gin.Context) {
	snapshot, err := h.raffle.GetSnapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, raffleResponse{
		State:           snapshot.State,
		EntranceFee:     snapshot.EntranceFee,
		IntervalSeconds: int64(snapshot.Interval / time.Second),
		LastDrawAt:      snapshot.LastDrawAt,
		RecentWinner:    snapshot.RecentWinner,
		Balance:         snapshot.Balance,
		EntrantCount:    snapshot.EntrantCount,
	})
}

// GetEntrants returns every entrant slot of the current round
func (h *Handler) GetEntrants(c *gin.Context) {
	entrants, err := h.raffle.GetAllEntrants(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]entrantResponse, 0, len(entrants))
	for i, entrant := range entrants {
		out = append(out, toEntrantResponse(int64(i), entrant))
	}
	c.JSON(http.StatusOK, gin.H{"entrants": out})
}

// GetEntrant returns the entrant slot at a zero-based index
func (h *Handler) GetEntrant(c *gin.Context) {
	index, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
		return
	}

	entrant, err := h.raffle.GetEntrant(c.Request.Context(), index)
	if err != nil {
		writeError(c, err)
		return
	}
	if entrant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entrant index out of range"})
		return
	}

	c.JSON(http.StatusOK, toEntrantResponse(index, entrant))
}

// GetUpkeep returns the upkeep predicate and its inputs
func (h *Handler) GetUpkeep(c *gin.Context) {
	status, err := h.raffle.GetUpkeepStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetWinners returns past winners, newest first
func (h *Handler) GetWinners(c *gin.Context) {
	limit := defaultWinnersLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxWinnersLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	winners, err := h.raffle.GetRecentWinners(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]winnerResponse, 0, len(winners))
	for _, w := range winners {
		out = append(out, winnerResponse{
			RoundNumber:  w.RoundNumber,
			Winner:       w.Identity,
			RequestID:    string(w.RequestID),
			RandomWord:   w.RandomWord,
			WinnerIndex:  w.WinnerIndex,
			EntrantCount: w.EntrantCount,
			PrizeAmount:  w.PrizeAmount,
			DrawnAt:      w.DrawnAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"winners": out})
}

func toEntrantResponse(index int64, entrant *entities.Entrant) entrantResponse {
	return entrantResponse{
		Index:      index,
		Identity:   entrant.Identity,
		AmountPaid: entrant.AmountPaid,
		EnteredAt:  entrant.EnteredAt,
	}
}

func writeError(c *gin.Context, err error) {
	var sendMore *services.SendMoreToEnterRaffleError
	switch {
	case errors.As(err, &sendMore):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":    err.Error(),
			"sent":     sendMore.Sent,
			"required": sendMore.Required,
		})
	case errors.Is(err, services.ErrSendMoreToEnterRaffle):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPotCapacityExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRaffleNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRaffleNotInitialized):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"error": err,
		}).Error("Raffle API request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
