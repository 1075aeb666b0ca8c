package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	Name      string `json:"name" binding:"required"`
	IsPrivate bool   `json:"is_private"`
}

func (api *API) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	room, err := api.Rooms.Create(c.Request.Context(), caller(c), req.Name, req.IsPrivate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": room})
}

func (api *API) listRooms(c *gin.Context) {
	rooms, err := api.Rooms.ListMine(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

func (api *API) deleteRoom(c *gin.Context) {
	roomID, ok := uuidParam(c, "room_id")
	if !ok {
		return
	}
	if err := api.Rooms.Delete(c.Request.Context(), caller(c), roomID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}

func (api *API) joinInfo(c *gin.Context) {
	info, err := api.Rooms.JoinInfo(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
