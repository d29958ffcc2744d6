package middleware

import (
	"errors"
	"strconv"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // model.Role
	CtxTokenVersionKey = "token_version" // int
)

var errInvalidClaims = errors.New("invalid claims")

// アクセストークンから読み取った内容
type accessClaims struct {
	actor        model.Actor
	tokenVersion int
}

// AuthJWT はBearerトークン(HS256)を検証して操作者をcontextに入れる。
// sub/role/tvのどれかが読めなければ401。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	secret := []byte(cfg.JWTSecret)
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c)
			}

			mc := jwt.MapClaims{}
			if _, err := parser.ParseWithClaims(raw, mc, keyFunc); err != nil {
				return unauthorized(c)
			}

			ac, err := readClaims(mc)
			if err != nil {
				return unauthorized(c)
			}

			c.Set(CtxUserIDKey, ac.actor.UserID)
			c.Set(CtxUserRoleKey, ac.actor.Role)
			c.Set(CtxTokenVersionKey, ac.tokenVersion)

			return next(c)
		}
	}
}

// AuthJWTが入れた値から操作者を作る
func ActorFromContext(c echo.Context) (model.Actor, bool) {
	userID, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return model.Actor{}, false
	}
	role, _ := c.Get(CtxUserRoleKey).(model.Role)
	return model.Actor{UserID: userID, Role: role}, true
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func readClaims(mc jwt.MapClaims) (accessClaims, error) {
	userID, err := claimInt(mc["sub"], 64)
	if err != nil || userID <= 0 {
		return accessClaims{}, errInvalidClaims
	}

	role, _ := mc["role"].(string)
	switch model.Role(role) {
	case model.RoleUser, model.RoleAdmin:
	default:
		return accessClaims{}, errInvalidClaims
	}

	tv, err := claimInt(mc["tv"], 32)
	if err != nil || tv < 0 {
		return accessClaims{}, errInvalidClaims
	}

	return accessClaims{
		actor:        model.Actor{UserID: userID, Role: model.Role(role)},
		tokenVersion: int(tv),
	}, nil
}

// JSONの数値はfloat64で来る。文字列でも受ける。
func claimInt(v interface{}, bits int) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, bits)
	default:
		return 0, errInvalidClaims
	}
}
