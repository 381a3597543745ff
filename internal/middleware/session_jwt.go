package middleware

import (
	"errors"
	"net/http"
	"strings"

	"shoppingmall/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // string (uuid)
	CtxUserEmailKey = "user_email" // string
)

func errorJSON(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// SessionJWT はBearerトークンがあれば検証してユーザーをcontextへ載せる。
// ゲスト購入を許すため、トークンが無い/不正な場合も401にせず素通しする。
func SessionJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return next(c)
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return next(c)
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return next(c)
			}

			//JWTをパースして検証する
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return next(c)
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return next(c)
			}

			userID, _ := claims["sub"].(string)
			email, _ := claims["email"].(string)
			if userID == "" {
				return next(c)
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserEmailKey, email)

			return next(c)
		}
	}
}

// RequireSession はログイン必須のルート用。contextにユーザーが無ければ401。
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(CtxUserIDKey).(string); !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}
