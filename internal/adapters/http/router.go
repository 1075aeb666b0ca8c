package http

import (
	"context"
	"net/http"

	"github.com/dkeye/OneVoice/internal/adapters/rtc"
	"github.com/dkeye/OneVoice/internal/adapters/signal"
	"github.com/dkeye/OneVoice/internal/app"
	"github.com/dkeye/OneVoice/internal/config"
	"github.com/dkeye/OneVoice/internal/identity"
	"github.com/dkeye/OneVoice/internal/metrics"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const sessionCookie = "OneVoiceSession"

// API bundles what the routes need.
type API struct {
	Rooms    *app.Rooms
	Sessions *app.Sessions
	Roster   *app.Roster
	Chat     *app.Chat
	Signal   *signal.SignalWSController
	Tokens   *identity.Verifier
	RTC      rtc.ClientConfig
	Metrics  *metrics.Metrics
	// Gauges refreshes gauge values before a scrape.
	Gauges func()
}

func SetupRouter(ctx context.Context, cfg *config.Config, api *API) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(metrics.RequestMiddleware(api.Metrics))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 24 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookie, store))
	r.Use(IdentityMiddleware(api.Tokens))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if api.Metrics != nil {
		r.GET("/metrics", gin.WrapH(api.Metrics.Handler(api.Gauges)))
	}
	r.GET("/ws/:room_id", func(c *gin.Context) {
		api.Signal.HandleSignal(ctx, c)
	})

	v1 := r.Group("/api/v1", RequireIdentity())

	rooms := v1.Group("/rooms")
	rooms.POST("", api.createRoom)
	rooms.GET("", api.listRooms)
	rooms.GET("/join/:code", api.joinInfo)
	rooms.DELETE("/:room_id", api.deleteRoom)
	rooms.POST("/:room_id/sessions/start", api.startSession)
	rooms.POST("/:room_id/sessions/schedule", api.scheduleSession)
	rooms.GET("/:room_id/sessions", api.sessionHistory)

	sess := v1.Group("/sessions")
	sess.POST("/start", api.startInstant)
	sess.GET("/:session_id", api.sessionDetail)
	sess.POST("/:session_id/participants", api.joinSession)
	sess.DELETE("/:session_id/participants/me", api.leaveSession)
	sess.POST("/:session_id/participants/:user_id/promote", api.promote)
	sess.POST("/:session_id/end", api.endSession)
	sess.POST("/:session_id/cancel", api.cancelSession)
	sess.POST("/:session_id/screenshare/start", api.startScreenShare)
	sess.POST("/:session_id/screenshare/stop", api.stopScreenShare)
	sess.POST("/:session_id/recording/start", api.startRecording)
	sess.POST("/:session_id/recording/stop", api.stopRecording)
	sess.POST("/:session_id/chat", api.sendChat)
	sess.GET("/:session_id/chat", api.chatHistory)

	v1.GET("/users/me", api.me)
	v1.GET("/users/me/sessions/scheduled", api.myScheduled)
	v1.GET("/webrtc/config", api.webrtcConfig)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
