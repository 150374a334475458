package api

import (
	"errors"
	"net/http"

	"openbet/backend/internal/models"
	"openbet/backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type googleAuthRequest struct {
	Token string `json:"token"`
}

func (s *Server) googleAuth(c *gin.Context) {
	if s.deps.Verifier == nil || s.deps.Users == nil {
		unavailable(c, "Sign-in")
		return
	}

	var req googleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	id, err := s.deps.Verifier.Verify(c.Request.Context(), req.Token)
	if err != nil {
		log.Warn().Err(err).Msg("Sign-in rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	user, created, err := s.deps.Users.FindOrCreate(c.Request.Context(), &models.User{
		UID:     id.Subject,
		Email:   id.Email,
		Name:    id.Name,
		Picture: id.Picture,
		Role:    models.DefaultRole,
	})
	if err != nil {
		log.Error().Err(err).Str("uid", id.Subject).Msg("Failed to load user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info().Str("uid", user.UID).Bool("created", created).Msg("User signed in")
	c.JSON(http.StatusOK, gin.H{"message": "Success", "user": user})
}

type updateUserRequest struct {
	UID          string   `json:"uid" binding:"required"`
	FavoriteTeam *string  `json:"favoriteTeam"`
	DisplayName  *string  `json:"displayName"`
	Favorites    []string `json:"favorites"`
}

func (s *Server) updateUser(c *gin.Context) {
	if s.deps.Users == nil {
		unavailable(c, "User store")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID required"})
		return
	}

	user, err := s.deps.Users.UpdateProfile(c.Request.Context(), req.UID, models.ProfileUpdate{
		FavoriteTeam: req.FavoriteTeam,
		DisplayName:  req.DisplayName,
		Favorites:    req.Favorites,
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("uid", req.UID).Msg("Failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

type discussionQuery struct {
	Date string `form:"date" binding:"required,isodate"`
}

func (s *Server) listDiscussions(c *gin.Context) {
	var q discussionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		msg := "Date required"
		if failedTag(err) == "isodate" {
			msg = "Invalid date, expected YYYY-MM-DD"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if s.deps.Discussions == nil {
		unavailable(c, "Discussion store")
		return
	}

	messages, err := s.deps.Discussions.ListByDate(c.Request.Context(), q.Date)
	if err != nil {
		log.Error().Err(err).Str("date", q.Date).Msg("Failed to list discussion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

type postRequest struct {
	Date string `json:"date" binding:"required,isodate"`
	Text string `json:"text" binding:"required"`
	UID  string `json:"uid"`
	Name string `json:"name"`
}

func (s *Server) createDiscussion(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := "Missing data"
		if failedTag(err) == "isodate" {
			msg = "Invalid date, expected YYYY-MM-DD"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if s.deps.Discussions == nil {
		unavailable(c, "Discussion store")
		return
	}

	msg := &models.Message{
		ThreadDate: req.Date,
		UID:        req.UID,
		Name:       req.Name,
		Text:       req.Text,
	}
	if err := s.deps.Discussions.Create(c.Request.Context(), msg); err != nil {
		log.Error().Err(err).Str("date", req.Date).Msg("Failed to post message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Posted!"})
}
