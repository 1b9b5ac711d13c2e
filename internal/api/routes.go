package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/kyt-engine/internal/chains"
	"github.com/rawblock/kyt-engine/internal/kytres"
	"github.com/rawblock/kyt-engine/internal/providerclient"
	"github.com/rawblock/kyt-engine/internal/tracer"
)

// Handler exposes the Tracer as the KYT engine's thin HTTP surface:
// GET /v1/analyze/:chain/:txID, GET /v1/chains, GET /v1/health, and
// an optional GET /v1/stream websocket feed of finished reports.
type Handler struct {
	tracer   *tracer.Tracer
	provider providerclient.BlockchainProvider
	hub      *Hub
}

// SetupRouter wires CORS, the per-IP rate limiter, auth and the KYT
// routes onto a fresh gin.Engine, grounded on the teacher's
// SetupRouter (same CORS-via-ALLOWED_ORIGINS middleware shape, same
// route-group-under-one-prefix layout). hub may be nil to disable
// the dev-dashboard stream endpoint.
func SetupRouter(tr *tracer.Tracer, provider providerclient.BlockchainProvider, limiter *RateLimiter, hub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &Handler{tracer: tr, provider: provider, hub: hub}

	v1 := r.Group("/v1")
	if limiter != nil {
		v1.Use(limiter.Middleware())
	}
	v1.Use(AuthMiddleware())
	{
		v1.GET("/analyze/:chain/:txID", handler.handleAnalyze)
		v1.GET("/chains", handler.handleListChains)
		v1.GET("/health", handler.handleHealth)
		if hub != nil {
			v1.GET("/stream", hub.Subscribe)
		}
	}

	return r
}

// handleAnalyze runs the bounded upstream trace for the requested
// transaction and returns its RiskReport (spec.md §6's Analyze
// operation). depth is an optional ?depth= query parameter.
func (h *Handler) handleAnalyze(c *gin.Context) {
	chain := c.Param("chain")
	txID := c.Param("txID")

	depth := 0
	if raw := c.Query("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be an integer"})
			return
		}
		depth = d
	}

	report, err := h.tracer.Trace(c.Request.Context(), chain, txID, depth)
	if err != nil {
		c.JSON(statusForErr(err), gin.H{"error": err.Error()})
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(report)
	}
	c.JSON(http.StatusOK, report)
}

// handleListChains returns the Chain Registry's supported chains.
func (h *Handler) handleListChains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chains": chains.List()})
}

// handleHealth reports engine and upstream provider status.
func (h *Handler) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "operational"}
	if h.provider != nil {
		resp["provider"] = h.provider.Health(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}

// statusForErr maps a kytres error Kind onto the HTTP status code
// spec.md §6 documents for each failure category.
func statusForErr(err error) int {
	switch kytres.KindOf(err) {
	case kytres.KindChainUnsupported, kytres.KindInvalidInput:
		return http.StatusBadRequest
	case kytres.KindTxNotFound:
		return http.StatusNotFound
	case kytres.KindRateLimited:
		return http.StatusTooManyRequests
	case kytres.KindProviderDown:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
