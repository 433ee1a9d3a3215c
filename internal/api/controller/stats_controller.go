package controller

import (
	"net/http"
	"strconv"

	"ctchen222/adaptive-tictactoe/internal/api/middleware"
	"ctchen222/adaptive-tictactoe/internal/api/models"
	"ctchen222/adaptive-tictactoe/internal/api/response"
	"ctchen222/adaptive-tictactoe/internal/attest"
	"ctchen222/adaptive-tictactoe/internal/repository"
	"ctchen222/adaptive-tictactoe/internal/stats"

	"github.com/gin-gonic/gin"
)

const resultsPageSize = 20

// Verifier checks result signatures.
type Verifier interface {
	Verify(token string) (attest.Result, error)
}

// StatsController reports tallies and attested results.
type StatsController struct {
	tracker  *stats.Tracker
	results  repository.ResultRepository
	verifier Verifier
}

func NewStatsController(tracker *stats.Tracker, results repository.ResultRepository, verifier Verifier) *StatsController {
	return &StatsController{tracker: tracker, results: results, verifier: verifier}
}

func (sc *StatsController) Stats(c *gin.Context) {
	response.SuccessResponse(c, sc.tracker.Snapshot())
}

// Result returns one stored result and whether its signature still checks out.
func (sc *StatsController) Result(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "invalid result id")
		return
	}
	res, err := sc.results.FindByID(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessResponse(c, sc.view(res))
}

// Results lists the authenticated player's latest results.
func (sc *StatsController) Results(c *gin.Context) {
	list, err := sc.results.ListByPlayer(c.Request.Context(), middleware.PlayerID(c), resultsPageSize)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	views := make([]models.ResultResponse, 0, len(list))
	for i := range list {
		views = append(views, sc.view(&list[i]))
	}
	response.SuccessResponseList(c, views)
}

func (sc *StatsController) view(r *repository.StoredResult) models.ResultResponse {
	verified := false
	if sc.verifier != nil {
		signed, err := sc.verifier.Verify(r.Token)
		verified = err == nil && signed.ID == r.ID && signed.Outcome == r.Outcome
	}
	return models.ResultResponse{
		ID:        r.ID,
		SessionID: r.SessionID,
		Outcome:   r.Outcome,
		Token:     r.Token,
		Verified:  verified,
		CreatedAt: r.CreatedAt,
	}
}
