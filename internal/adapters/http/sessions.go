package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type scheduleRequest struct {
	ScheduledStartTime time.Time `json:"scheduled_start_time" binding:"required"`
}

func (api *API) startSession(c *gin.Context) {
	roomID, ok := uuidParam(c, "room_id")
	if !ok {
		return
	}
	sess, err := api.Sessions.StartNow(c.Request.Context(), caller(c), roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (api *API) scheduleSession(c *gin.Context) {
	roomID, ok := uuidParam(c, "room_id")
	if !ok {
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sess, err := api.Sessions.Schedule(c.Request.Context(), caller(c), roomID, req.ScheduledStartTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (api *API) sessionHistory(c *gin.Context) {
	roomID, ok := uuidParam(c, "room_id")
	if !ok {
		return
	}
	list, err := api.Sessions.History(c.Request.Context(), caller(c), roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (api *API) startInstant(c *gin.Context) {
	room, sess, err := api.Sessions.StartInstant(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "data": sess})
}

func (api *API) sessionDetail(c *gin.Context) {
	id, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	detail, err := api.Sessions.Detail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (api *API) joinSession(c *gin.Context) {
	id, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	p, err := api.Roster.Join(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully joined the session.", "role": p.Role, "data": p})
}

func (api *API) leaveSession(c *gin.Context) {
	id, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	if _, err := api.Roster.Leave(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have left the meeting"})
}

func (api *API) promote(c *gin.Context) {
	id, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	target, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}
	p, err := api.Roster.Promote(c.Request.Context(), caller(c), id, target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Participant has been promoted", "data": p})
}

func (api *API) endSession(c *gin.Context) {
	api.sessionOp(c, "Session has been ended.", api.Sessions.End)
}

func (api *API) cancelSession(c *gin.Context) {
	api.sessionOp(c, "Session has been cancelled.", api.Sessions.Cancel)
}

func (api *API) startRecording(c *gin.Context) {
	api.sessionOp(c, "Session recording started", api.Sessions.StartRecording)
}

func (api *API) stopRecording(c *gin.Context) {
	api.sessionOp(c, "Session recording stopped and is available", api.Sessions.StopRecording)
}

func (api *API) startScreenShare(c *gin.Context) {
	api.participantOp(c, "Screen share started successfully", api.Roster.StartScreenShare)
}

func (api *API) stopScreenShare(c *gin.Context) {
	api.participantOp(c, "Screen share stopped successfully", api.Roster.StopScreenShare)
}

func (api *API) sessionOp(c *gin.Context, message string, op func(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Session, error)) {
	id, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	sess, err := op(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "data": sess})
}

func (api *API) participantOp(c *gin.Context, message string, op func(ctx context.Context, who domain.Identity, id uuid.UUID) (*domain.Participant, error)) {
	id, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	p, err := op(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "data": p})
}
