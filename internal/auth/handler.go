package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nikhilkumar688/SamayBihar/internal/httpx"
)

// Signup は /api/auth/signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	var req SignupRequest
	if !httpx.BindJSON(c, &req) {
		m.fail(c, "signup", httpx.ErrInvalidBody)
		return
	}

	if _, err := m.svc.Signup(c.Request.Context(), req); err != nil {
		m.fail(c, "signup", err)
		return
	}

	m.metrics.ObserveAuth("signup", "success")
	c.JSON(http.StatusCreated, "SignUp Successful")
}

// Signin は /api/auth/signin のハンドラーです。
func (m *Manager) Signin(c *gin.Context) {
	var req SigninRequest
	if !httpx.BindJSON(c, &req) {
		m.fail(c, "signin", httpx.ErrInvalidBody)
		return
	}

	session, err := m.svc.Signin(c.Request.Context(), req)
	if err != nil {
		m.fail(c, "signin", err)
		return
	}

	m.metrics.ObserveAuth("signin", "success")
	m.SetSessionCookie(c, session.Token)
	c.JSON(http.StatusOK, session.User)
}

// Google は /api/auth/google のハンドラーです。
func (m *Manager) Google(c *gin.Context) {
	var req GoogleRequest
	if !httpx.BindJSON(c, &req) {
		m.fail(c, "google", httpx.ErrInvalidBody)
		return
	}

	session, err := m.svc.Google(c.Request.Context(), req)
	if err != nil {
		m.fail(c, "google", err)
		return
	}

	m.metrics.ObserveAuth("google", "success")
	m.SetSessionCookie(c, session.Token)
	c.JSON(http.StatusOK, session.User)
}

// Signout は /api/user/signout のハンドラーです。トークンは不要です。
func (m *Manager) Signout(c *gin.Context) {
	m.ClearSessionCookie(c)
	c.JSON(http.StatusOK, "User has been signed out successfully")
}
