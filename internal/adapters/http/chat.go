package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Content string `json:"content" binding:"required"`
}

func (api *API) sendChat(c *gin.Context) {
	id, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	msg, err := api.Chat.Send(c.Request.Context(), caller(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (api *API) chatHistory(c *gin.Context) {
	id, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	list, err := api.Chat.History(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
