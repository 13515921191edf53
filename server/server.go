// Package server exposes the webhook endpoint. It decodes wire payloads into
// turn activities, hands them to the processor, and returns the outbound
// activities as the response body.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"actubot/bot/turn"
	"actubot/core/buildinfo"
	"actubot/core/config"
	"actubot/core/logger"
)

// Processor handles one decoded inbound activity to completion.
type Processor interface {
	Process(ctx context.Context, a turn.Activity) ([]turn.Activity, error)
}

// Server is the HTTP front of the bot.
type Server struct {
	http *http.Server
}

// New builds the router and binds it to the configured address.
func New(cfg *config.Config, processor Processor) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": buildinfo.Version,
			"commit":  buildinfo.Commit,
		})
	})
	router.Static("/media", cfg.Server.MediaDir)
	router.POST("/api/messages", handleMessages(processor))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Listen, cfg.Server.Port)
	return &Server{http: &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	logger.Info(logger.Background(), "web", "listen",
		slog.String("addr", s.http.Addr),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func handleMessages(processor Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var activity turn.Activity
		if err := c.ShouldBindJSON(&activity); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity payload"})
			return
		}
		if activity.ConversationID == "" || activity.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId and userId are required"})
			return
		}
		if activity.Type == "" {
			activity.Type = turn.TypeMessage
		}

		replies, err := processor.Process(c.Request.Context(), activity)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "turn processing failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"activities": replies})
	}
}

// requestLog emits one structured line per request.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "web", "http.request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("code", c.Writer.Status()),
			slog.Duration("duration", logger.RoundMS(logger.Took(start))),
		)
	}
}
