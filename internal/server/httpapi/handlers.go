package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type accountRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Username  string  `json:"username" binding:"required,min=3"`
	Password  string  `json:"password" binding:"required"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (r accountRequest) input() services.CreateUserInput {
	return services.CreateUserInput{
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

func profiles(users []*models.User) []models.UserProfile {
	out := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}

func (s *Server) register(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := s.auth.Register(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}

	auth.AttachCookie(c.Writer, res.Token, s.cookie)
	c.JSON(http.StatusCreated, res.User.Profile())
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := s.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		// A corrupt stored hash is logged as internal by the service but
		// looks like any other failed login to the client.
		if errors.Is(err, common.ErrorMalformedHash) {
			err = common.ErrorInvalidCredentials
		}
		writeError(c, err)
		return
	}

	auth.AttachCookie(c.Writer, res.Token, s.cookie)
	c.JSON(http.StatusOK, res.User.Profile())
}

func (s *Server) logout(c *gin.Context) {
	auth.ClearCookie(c.Writer, s.cookie)

	if token, ok := auth.ExtractToken(c.Request, s.cookie.Name); ok {
		if err := s.auth.Logout(c.Request.Context(), token); err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) getMe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	s.respondUser(c, id.Subject)
}

func (s *Server) updateMe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	s.applyUpdate(c, id.Subject)
}

// deleteMe removes the caller's account and ends the current session.
func (s *Server) deleteMe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := s.users.Delete(c.Request.Context(), id.Subject); err != nil {
		writeError(c, err)
		return
	}

	if token, ok := auth.ExtractToken(c.Request, s.cookie.Name); ok {
		if err := s.auth.Logout(c.Request.Context(), token); err != nil {
			s.logger.Warn(c.Request.Context(), "session not revoked after account deletion", "user_id", id.Subject, "error", err)
		}
	}
	auth.ClearCookie(c.Writer, s.cookie)
	c.Status(http.StatusNoContent)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles(users))
}

func (s *Server) createUser(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := s.users.Create(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user.Profile())
}

func (s *Server) getUser(c *gin.Context) {
	s.respondUser(c, c.Param("id"))
}

func (s *Server) updateUser(c *gin.Context) {
	s.applyUpdate(c, c.Param("id"))
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) respondUser(c *gin.Context, id string) {
	user, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

func (s *Server) applyUpdate(c *gin.Context, id string) {
	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		bindError(c, err)
		return
	}

	user, err := s.users.Update(c.Request.Context(), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}
