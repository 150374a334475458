// Package api serves the snapshot files, live arbitrage scans and the
// user/discussion endpoints over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/auth"
	"openbet/backend/internal/models"
	"openbet/backend/internal/snapshot"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OddsFetcher fetches bookmaker odds for the configured sport.
type OddsFetcher interface {
	FetchOdds(ctx context.Context, markets []string) ([]models.Event, error)
}

// TokenVerifier checks a sign-in ID token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// UserStore persists user profiles.
type UserStore interface {
	FindOrCreate(ctx context.Context, u *models.User) (*models.User, bool, error)
	UpdateProfile(ctx context.Context, uid string, upd models.ProfileUpdate) (*models.User, error)
}

// DiscussionStore persists per-date discussion threads.
type DiscussionStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByDate(ctx context.Context, date string) ([]models.Message, error)
}

// HealthChecker reports backing-store health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps wires the server to its collaborators. Nil stores disable the
// endpoints that need them.
type Deps struct {
	BoxScoreDir string
	Snapshots   snapshot.Dir
	Models      *artifact.Store

	Odds        OddsFetcher
	Bankroll    float64
	Verifier    TokenVerifier
	Users       UserStore
	Discussions DiscussionStore
	Database    HealthChecker

	CORSOrigins string
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// NewServer creates the handler set.
func NewServer(deps Deps) *Server {
	if deps.Bankroll <= 0 {
		deps.Bankroll = 100
	}
	if deps.CORSOrigins == "" {
		deps.CORSOrigins = "*"
	}
	return &Server{deps: deps}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(corsMiddleware(s.deps.CORSOrigins))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/historical-data", s.historicalData)
		api.GET("/live-nba-odds", s.liveOdds)
		api.GET("/prediction-history", s.predictionHistory)
		api.GET("/player-props", s.playerProps)
		api.GET("/player-projections", s.playerProjections)
		api.GET("/arbitrage", s.arbitrage)

		api.POST("/auth/google", s.googleAuth)
		api.PUT("/user/update", s.updateUser)

		api.GET("/discussions", s.listDiscussions)
		api.POST("/discussions", s.createDiscussion)
	}

	return r, nil
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}

	if s.deps.Models != nil {
		body["team_model"] = s.deps.Models.Team() != nil
		body["player_models"] = s.deps.Models.Players() != nil
	}

	switch {
	case s.deps.Database == nil:
		body["database"] = "disabled"
	default:
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Database.Health(ctx); err != nil {
			body["database"] = "unhealthy"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			body["database"] = "ok"
		}
	}

	c.JSON(status, body)
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " unavailable"})
}
