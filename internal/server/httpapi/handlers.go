package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/userkeeper/internal/common"
)

type handlers struct {
	users  UserService
	health Pinger
	now    func() time.Time
}

func (h *handlers) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// token accepts form or JSON credentials and returns a bearer token.
func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBadRequest(c, "username and password are required")
		return
	}

	u, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.users.IssueToken(c.Request.Context(), u, h.now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: common.BearerScheme})
}

func (h *handlers) listUsers(c *gin.Context) {
	list, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]userView, 0, len(list))
	for i := range list {
		out = append(out, toUserView(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "username and plain_password are required")
		return
	}

	u, err := h.users.CreateUser(c.Request.Context(), toNewUser(req))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserView(u))
}

func (h *handlers) testAuth(c *gin.Context) {
	p, _ := principal(c)
	c.JSON(http.StatusOK, testAuthResponse{Text: fmt.Sprintf("User with id %s authenticated :)", p.Subject)})
}
