package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lexfield/contentpipe/internal/common"
	"github.com/lexfield/contentpipe/internal/pipeline"
)

func ok(c *gin.Context, data gin.H) {
	common.OK(c, data)
}

func fail(c *gin.Context, httpStatus int, msg string) {
	common.Fail(c, httpStatus, msg)
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

type cycleReq struct {
	Action     string `json:"action" binding:"required"`
	WeekNumber int    `json:"week_number"`
}

// Cycle is the action-dispatch endpoint the marketing dashboard calls:
// start_weekly_cycle enqueues a week, get_cycle_status reports its progress.
func (h *Handler) Cycle(c *gin.Context) {
	var req cycleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	switch req.Action {
	case "start_weekly_cycle":
		if req.WeekNumber <= 0 {
			fail(c, http.StatusBadRequest, "week_number must be positive")
			return
		}
		start, err := h.Svc.StartCycle(c.Request.Context(), req.WeekNumber)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		ok(c, gin.H{
			"jobs_created":         len(start.JobIDs),
			"estimated_completion": start.EstimatedCompletion,
			"jobs":                 start.JobIDs,
		})

	case "get_cycle_status":
		if req.WeekNumber <= 0 {
			fail(c, http.StatusBadRequest, "week_number must be positive")
			return
		}
		st, err := h.Svc.CycleStatus(c.Request.Context(), req.WeekNumber)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		ok(c, gin.H{"status": st})

	default:
		fail(c, http.StatusBadRequest, "unknown action: "+req.Action)
	}
}

// SchedulerTick is the weekly trigger entry point. It is safe to call it as
// often as the upstream cron likes.
func (h *Handler) SchedulerTick(c *gin.Context) {
	res, err := h.Svc.Tick(c.Request.Context(), "http")
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	out := gin.H{
		"week_number": res.WeekNumber,
		"skipped":     res.Skipped,
	}
	if !res.Skipped {
		out["jobs_created"] = res.JobsCreated
		out["estimated_completion"] = res.EstimatedCompletion
	}
	ok(c, out)
}

// ProcessNext runs at most one due job. Handler failures still answer 200;
// the failure lives in the job row and the response body.
func (h *Handler) ProcessNext(c *gin.Context) {
	res, err := h.Svc.ProcessNext(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	if res.Message == pipeline.NoJobsReadyMessage {
		c.JSON(http.StatusOK, gin.H{"message": res.Message})
		return
	}
	c.JSON(http.StatusOK, res)
}
