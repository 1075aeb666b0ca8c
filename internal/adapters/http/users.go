package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (api *API) me(c *gin.Context) {
	c.JSON(http.StatusOK, caller(c))
}

func (api *API) myScheduled(c *gin.Context) {
	list, err := api.Sessions.ScheduledFor(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (api *API) webrtcConfig(c *gin.Context) {
	c.JSON(http.StatusOK, api.RTC)
}
