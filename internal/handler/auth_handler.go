package handler

import (
	"errors"
	"net/http"

	"shoppingmall/internal/session"
	auth "shoppingmall/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	provider *auth.Provider
	sessions *session.Observer
}

// DI
func NewAuthHandler(provider *auth.Provider, sessions *session.Observer) *AuthHandler {
	return &AuthHandler{provider: provider, sessions: sessions}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/signup", h.signUp)
	e.POST("/auth/signin", h.signIn)
	e.POST("/auth/signout", h.signOut)
	e.GET("/auth/session", h.session)
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) signUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	user, err := h.provider.SignUp(c.Request().Context(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, map[string]string{
			"id":    user.ID,
			"email": user.Email,
		})
	case errors.Is(err, auth.ErrInvalidEmailFormat):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "올바른 이메일 형식이 아닙니다."})
	case errors.Is(err, auth.ErrPasswordTooShort):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "비밀번호는 8자 이상이어야 합니다."})
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "이미 가입된 이메일입니다."})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) signIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	sess, err := h.provider.SignIn(c.Request().Context(), req.Email, req.Password)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"access_token": sess.AccessToken,
			"user_id":      sess.UserID,
			"email":        sess.Email,
			"expires_at":   sess.ExpiresAt,
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		// 存在しないemailかパスワード不一致かは区別して返さない
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "이메일 또는 비밀번호가 올바르지 않습니다."})
	case errors.Is(err, auth.ErrEmailNotConfirmed):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "이메일 인증이 필요합니다. 이메일을 확인해주세요."})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// session はプロバイダの現在セッションのスナップショットを返す。
func (h *AuthHandler) session(c echo.Context) error {
	s := h.sessions.Current()
	if s == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AuthHandler) signOut(c echo.Context) error {
	if err := h.provider.SignOut(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
