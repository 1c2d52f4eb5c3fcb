package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	actorKey        = "actor"
	actorHeader     = "X-Actor-ID"
)

// requestIDMiddleware tags every request with an ID for log correlation,
// honoring one supplied by the caller.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// actorMiddleware resolves the acting identity from the X-Actor-ID header.
// Identity is never read from request payloads; upstream authentication is
// assumed to have already established who is calling.
func (s *Server) actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(actorHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing " + actorHeader + " header",
			})
			return
		}

		id, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "malformed " + actorHeader + " header",
			})
			return
		}

		actor, err := s.userRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			s.logger.Error("Failed to resolve actor", "actor_id", id, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to resolve acting identity",
			})
			return
		}
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "unknown actor",
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// currentActor returns the resolved acting identity for the request.
func currentActor(c *gin.Context) *entity.User {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(*entity.User); ok {
			return actor
		}
	}
	return nil
}
