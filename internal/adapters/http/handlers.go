package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/app/orch"
	"github.com/dkeye/Desk/internal/domain"
)

type handlers struct {
	orch *orch.Orchestrator
}

type IdentityRequest struct {
	Username string `json:"username" binding:"required,max=36"`
}

type IdentityResponse struct {
	UserID   domain.ParticipantID `json:"userId"`
	Username string               `json:"username"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.orch.Registry.Count(),
		"sessions":    h.orch.Sessions.Count(),
		"rooms":       h.orch.Rooms.Count(),
	})
}

// Private sessions and rooms are never listed over HTTP.
func (h *handlers) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.orch.Sessions.List("")})
}

func (h *handlers) sessionMembers(c *gin.Context) {
	sid := domain.SessionID(c.Param("id"))
	sess, ok := h.orch.Sessions.Get(sid)
	if !ok || sess.IsPrivate {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	members, _ := h.orch.Sessions.Members(sid)
	c.JSON(http.StatusOK, gin.H{"sessionId": sid, "members": members})
}

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List("")})
}

func (h *handlers) roomMembers(c *gin.Context) {
	rid := domain.RoomID(c.Param("id"))
	room, ok := h.orch.Rooms.Get(rid)
	if !ok || room.IsPrivate {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	members, _ := h.orch.Rooms.Members(rid)
	c.JSON(http.StatusOK, gin.H{"roomId": rid, "members": members})
}

// issueIdentity stores a fresh guest participant id in the cookie session.
// An existing identity is kept.
func (h *handlers) issueIdentity(c *gin.Context) {
	var req IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid username"})
		return
	}

	sess := sessions.Default(c)
	pid, _ := sess.Get(userIDKey).(string)
	if pid == "" {
		pid = uuid.NewString()
		sess.Set(userIDKey, pid)
		if err := sess.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store identity"})
			return
		}
	}

	c.JSON(http.StatusOK, IdentityResponse{UserID: domain.ParticipantID(pid), Username: req.Username})
}
