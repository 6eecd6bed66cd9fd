package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminOnly は管理者ロールを要求するミドルウェア
// 認証基盤は上流のゲートウェイが担い、ここではヘッダーのロールだけを見る
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := c.Request().Header.Get("X-User-Role")
			if role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "管理者権限が必要です")
			}
			return next(c)
		}
	}
}
