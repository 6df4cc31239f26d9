// Package api provides the REST API server for launchkey2daw
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/james-see/launchkey2daw/pkg/config"
	"github.com/james-see/launchkey2daw/pkg/translator"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title launchkey2daw API
// @version 1.0
// @description Inspect and control a running Launchkey to DAW MIDI translator
// @host localhost:8080
// @BasePath /api/v1

// Server exposes a translator engine over HTTP
type Server struct {
	engine  *translator.Engine
	started time.Time
}

// New creates a server for engine
func New(engine *translator.Engine) *Server {
	return &Server{engine: engine, started: time.Now()}
}

// Router builds the gin router with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/status", s.status)
		v1.GET("/banks", s.listBanks)
		v1.GET("/banks/current", s.currentBank)
		v1.POST("/banks/select", s.selectBank)
		v1.GET("/mappings", s.listMappings)
		v1.PUT("/mappings", s.replaceMappings)
		v1.POST("/translate", s.translate)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// Serve runs the API on addr until ctx is cancelled
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		return nil
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "launchkey2daw",
	})
}

// status godoc
// @Summary Translator status
// @Description Returns counters, the active bank and the mapping size
// @Tags status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /status [get]
func (s *Server) status(c *gin.Context) {
	stats := s.engine.Stats()
	c.JSON(http.StatusOK, gin.H{
		"stats":        stats,
		"summary":      fmt.Sprintf("%s received, %s emitted", humanize.Comma(int64(stats.Received)), humanize.Comma(int64(stats.Emitted))),
		"bank":         s.engine.Banks().Current(),
		"mappings":     s.engine.Table().Len(),
		"unclassified": s.engine.Unclassified().String(),
		"started":      s.started.Format(time.RFC3339),
		"uptime":       strings.TrimSuffix(humanize.RelTime(s.started, time.Now(), "", ""), " "),
	})
}

// listBanks godoc
// @Summary List banks
// @Tags banks
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /banks [get]
func (s *Server) listBanks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"banks":   s.engine.Banks().Banks(),
		"current": s.engine.Banks().Current().ID,
	})
}

// currentBank godoc
// @Summary Active bank
// @Tags banks
// @Produce json
// @Success 200 {object} translator.Bank
// @Router /banks/current [get]
func (s *Server) currentBank(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Banks().Current())
}

type selectRequest struct {
	ID *int   `json:"id"`
	Op string `json:"op" binding:"omitempty,oneof=select next prev"`
}

// selectBank godoc
// @Summary Switch banks
// @Description Select a bank by id, or step with op next/prev
// @Tags banks
// @Accept json
// @Produce json
// @Param request body selectRequest true "Bank selection"
// @Success 200 {object} translator.Bank
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /banks/select [post]
func (s *Server) selectBank(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Op {
	case "next":
		c.JSON(http.StatusOK, s.engine.NextBank())
	case "prev":
		c.JSON(http.StatusOK, s.engine.PrevBank())
	default:
		if req.ID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}
		b, err := s.engine.SelectBank(*req.ID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// listMappings godoc
// @Summary Active mapping table
// @Tags mappings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /mappings [get]
func (s *Server) listMappings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mappings": config.FromTable(s.engine.Table().Entries()),
	})
}

type mappingsRequest struct {
	Mappings []config.MappingSpec `json:"mappings"`
}

// replaceMappings godoc
// @Summary Replace the mapping table
// @Description Validates and atomically installs a new table. The old table stays active on error.
// @Tags mappings
// @Accept json
// @Produce json
// @Param request body mappingsRequest true "New mappings"
// @Success 200 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Router /mappings [put]
func (s *Server) replaceMappings(c *gin.Context) {
	var req mappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := config.MappingEntries(req.Mappings)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.engine.Install(entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": s.engine.Table().Len()})
}

type translateRequest struct {
	Bytes string `json:"bytes" binding:"required"`
}

// translate godoc
// @Summary Translate one message
// @Description Runs hex bytes such as "B0 15 64" through the engine. Bank switches and counters are applied as for live input.
// @Tags translate
// @Accept json
// @Produce json
// @Param request body translateRequest true "Raw message"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /translate [post]
func (s *Server) translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raw, err := translator.ParseHex(req.Bytes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	act, err := s.engine.Handle(raw)
	resp := gin.H{
		"action": act.Type.String(),
		"output": translator.FormatHex(act.Bytes()),
		"bank":   s.engine.Banks().Current().ID,
	}
	if msg := act.Message(); msg != nil {
		resp["message"] = msg.String()
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
