package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/adapters/signal"
	"github.com/dkeye/Desk/internal/app/orch"
	"github.com/dkeye/Desk/internal/config"
)

const (
	sessionCookieName = "DeskSessions"
	userIDKey         = "user_id"
)

// IdentityMiddleware resolves the participant id from the cookie session, falling
// back to a plain user_id cookie. Requests without either pass through anonymous.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var pid string
		if v, ok := sessions.Default(c).Get(userIDKey).(string); ok {
			pid = v
		}
		if pid == "" {
			pid, _ = c.Cookie(userIDKey)
		}
		if pid != "" {
			c.Set(signal.IdentityKey, pid)
		}
		c.Next()
	}
}

func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	o *orch.Orchestrator,
	ctrl *signal.SignalWSController,
	metricsHandler http.Handler,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions(sessionCookieName, store))
	r.Use(IdentityMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("user", c.GetString(signal.IdentityKey)).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	h := &handlers{orch: o}
	api := r.Group("/api")
	api.GET("/health", h.health)
	api.GET("/sessions", h.listSessions)
	api.GET("/sessions/:id/members", h.sessionMembers)
	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:id/members", h.roomMembers)
	api.POST("/identity", h.issueIdentity)

	return r
}
