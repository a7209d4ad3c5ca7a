package http

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/gin-gonic/gin"
)

const defaultSearchLimit = 20

type credentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	token, err := s.authSvc.Register(req.Phone, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"token": token})
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	token, err := s.authSvc.Login(req.Phone, req.Password)
	if err != nil {
		// One answer for every failure mode, no user enumeration
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// handleLogout force-drops the caller's live connection. Tokens are
// stateless, so the client discards its copy; here we only evict the
// registry entry and announce the departure.
func (s *Server) handleLogout(c *gin.Context) {
	phone := domain.Identity(c.GetString(auth.PhoneKey))

	sink, online := s.connections.Lookup(phone)
	if !online {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not connected"})
		return
	}

	if s.connections.Unregister(phone, sink) {
		s.presence.AnnounceDisconnected(phone)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) handleConnectedUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connectedUsers": s.connections.AllIdentities()})
}

// callerOwns rejects requests reaching into someone else's data.
func callerOwns(c *gin.Context, phone string) bool {
	if c.GetString(auth.PhoneKey) != phone {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your data"})
		return false
	}
	return true
}

func (s *Server) handleMessageSend(c *gin.Context) {
	from, to := c.Param("from"), c.Param("to")
	if !callerOwns(c, from) {
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid message"})
		return
	}

	msg, err := s.messageSvc.SendPersisted(domain.Identity(from), domain.Identity(to), req.Message)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": msg})
	case stderrors.Is(err, errors.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case stderrors.Is(err, errors.ErrRecipientOffline):
		// An offline recipient reads as not found, like an unknown user
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleHistory(c *gin.Context) {
	phone := c.Param("phone")
	if !callerOwns(c, phone) {
		return
	}

	msgs, err := s.messageSvc.History(domain.Identity(phone))
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) handleConversation(c *gin.Context) {
	phone, partner := c.Param("phone"), c.Param("partner")
	if !callerOwns(c, phone) {
		return
	}

	msgs, err := s.messageSvc.Conversation(domain.Identity(phone), domain.Identity(partner))
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) handlePartners(c *gin.Context) {
	phone := c.Param("phone")
	if !callerOwns(c, phone) {
		return
	}

	partners, err := s.messageSvc.Partners(domain.Identity(phone))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": partners})
}

func (s *Server) handleSearch(c *gin.Context) {
	phone := c.Param("phone")
	if !callerOwns(c, phone) {
		return
	}

	terms := c.Query("q")
	if terms == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	hits, err := s.messageSvc.Search(c.Request.Context(), domain.Identity(phone), terms, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits})
}
