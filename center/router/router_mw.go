package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/operis/vigil/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

type AccessDetails struct {
	AccessUuid   string
	UserIdentity string
}

func (rt *Router) handleProxyUser(c *gin.Context) *models.User {
	headerUserNameKey := rt.HTTP.ProxyAuth.HeaderUserNameKey
	username := c.GetHeader(headerUserNameKey)
	if username == "" {
		bomb(http.StatusUnauthorized, "unauthorized")
	}

	user, err := models.UserGetByUsername(rt.Ctx, username)
	if err != nil {
		bomb(http.StatusInternalServerError, "%s", err.Error())
	}

	if user == nil {
		now := time.Now().Unix()
		user = &models.User{
			Username:  username,
			Nickname:  username,
			CompanyId: 1,
			Roles:     strings.Join(rt.HTTP.ProxyAuth.DefaultRoles, " "),
			CreateAt:  now,
			UpdateAt:  now,
			CreateBy:  "system",
			UpdateBy:  "system",
		}
		if err := user.Add(rt.Ctx); err != nil {
			bomb(http.StatusInternalServerError, "%s", err.Error())
		}
	}
	return user
}

func (rt *Router) proxyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := rt.handleProxyUser(c)
		c.Set("userid", user.Id)
		c.Set("username", user.Username)
		c.Next()
	}
}

func (rt *Router) jwtAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		metadata, err := rt.extractTokenMetadata(c.Request)
		if err != nil {
			bomb(http.StatusUnauthorized, "unauthorized")
		}

		userIdentity, err := rt.fetchAuth(c.Request.Context(), metadata.AccessUuid)
		if err != nil {
			bomb(http.StatusUnauthorized, "unauthorized")
		}

		// ${userid}-${username}
		arr := strings.SplitN(userIdentity, "-", 2)
		if len(arr) != 2 {
			bomb(http.StatusUnauthorized, "unauthorized")
		}

		userid, err := strconv.ParseInt(arr[0], 10, 64)
		if err != nil {
			bomb(http.StatusUnauthorized, "unauthorized")
		}

		c.Set("userid", userid)
		c.Set("username", arr[1])

		c.Next()
	}
}

func (rt *Router) auth() gin.HandlerFunc {
	if rt.HTTP.ProxyAuth.Enable {
		return rt.proxyAuth()
	}
	return rt.jwtAuth()
}

// if proxy auth is enabled, mock jwt login/logout/refresh request
func (rt *Router) jwtMock() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rt.HTTP.ProxyAuth.Enable {
			c.Next()
			return
		}
		if strings.Contains(c.FullPath(), "logout") {
			bomb(http.StatusBadRequest, "logout is not supported when proxy auth is enabled")
		}
		user := rt.handleProxyUser(c)
		renderData(c, gin.H{
			"user":          user,
			"access_token":  "",
			"refresh_token": "",
		}, nil)
		c.Abort()
	}
}

func (rt *Router) user() gin.HandlerFunc {
	return func(c *gin.Context) {
		userid := c.MustGet("userid").(int64)

		user, err := models.UserGetById(rt.Ctx, userid)
		if err != nil {
			bomb(http.StatusUnauthorized, "unauthorized")
		}

		if user == nil {
			bomb(http.StatusUnauthorized, "unauthorized")
		}

		c.Set("user", user)
		c.Next()
	}
}

func loggedUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

func (rt *Router) extractTokenMetadata(r *http.Request) (*AccessDetails, error) {
	token, err := rt.verifyToken(rt.HTTP.JWTAuth.SigningKey, rt.extractToken(r))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		accessUuid, ok := claims["access_uuid"].(string)
		if !ok {
			return nil, errors.New("failed to parse access_uuid from jwt")
		}

		return &AccessDetails{
			AccessUuid:   accessUuid,
			UserIdentity: claims["user_identity"].(string),
		}, nil
	}

	return nil, err
}

func (rt *Router) extractToken(r *http.Request) string {
	tok := r.Header.Get("Authorization")

	if len(tok) > 6 && strings.ToUpper(tok[0:7]) == "BEARER " {
		return tok[7:]
	}

	return ""
}

func (rt *Router) createAuth(ctx context.Context, userIdentity string, td *TokenDetails) error {
	at := time.Unix(td.AtExpires, 0)
	rte := time.Unix(td.RtExpires, 0)
	now := time.Now()

	errAccess := rt.Redis.Set(ctx, rt.wrapJwtKey(td.AccessUuid), userIdentity, at.Sub(now)).Err()
	if errAccess != nil {
		return errAccess
	}

	errRefresh := rt.Redis.Set(ctx, rt.wrapJwtKey(td.RefreshUuid), userIdentity, rte.Sub(now)).Err()
	if errRefresh != nil {
		return errRefresh
	}

	return nil
}

func (rt *Router) fetchAuth(ctx context.Context, givenUuid string) (string, error) {
	return rt.Redis.Get(ctx, rt.wrapJwtKey(givenUuid)).Result()
}

func (rt *Router) deleteAuth(ctx context.Context, givenUuid string) error {
	return rt.Redis.Del(ctx, rt.wrapJwtKey(givenUuid)).Err()
}

func (rt *Router) deleteTokens(ctx context.Context, authD *AccessDetails) error {
	// the refresh uuid is derived from the access uuid
	refreshUuid := authD.AccessUuid + "++" + authD.UserIdentity

	err := rt.Redis.Del(ctx, rt.wrapJwtKey(authD.AccessUuid)).Err()
	if err != nil {
		return err
	}

	err = rt.Redis.Del(ctx, rt.wrapJwtKey(refreshUuid)).Err()
	if err != nil {
		return err
	}

	return nil
}

func (rt *Router) wrapJwtKey(key string) string {
	return rt.HTTP.JWTAuth.RedisKeyPrefix + key
}

type TokenDetails struct {
	AccessToken  string
	RefreshToken string
	AccessUuid   string
	RefreshUuid  string
	AtExpires    int64
	RtExpires    int64
}

func (rt *Router) createTokens(signingKey, userIdentity string) (*TokenDetails, error) {
	td := &TokenDetails{}
	td.AtExpires = time.Now().Add(time.Minute * time.Duration(rt.HTTP.JWTAuth.AccessExpired)).Unix()
	td.AccessUuid = uuid.NewString()

	td.RtExpires = time.Now().Add(time.Minute * time.Duration(rt.HTTP.JWTAuth.RefreshExpired)).Unix()
	td.RefreshUuid = td.AccessUuid + "++" + userIdentity

	var err error

	atClaims := jwt.MapClaims{}
	atClaims["authorized"] = true
	atClaims["access_uuid"] = td.AccessUuid
	atClaims["user_identity"] = userIdentity
	atClaims["exp"] = td.AtExpires
	at := jwt.NewWithClaims(jwt.SigningMethodHS256, atClaims)
	td.AccessToken, err = at.SignedString([]byte(signingKey))
	if err != nil {
		return nil, err
	}

	rtClaims := jwt.MapClaims{}
	rtClaims["refresh_uuid"] = td.RefreshUuid
	rtClaims["user_identity"] = userIdentity
	rtClaims["exp"] = td.RtExpires
	jrt := jwt.NewWithClaims(jwt.SigningMethodHS256, rtClaims)
	td.RefreshToken, err = jrt.SignedString([]byte(signingKey))
	if err != nil {
		return nil, err
	}

	return td, nil
}

func (rt *Router) verifyToken(signingKey, tokenString string) (*jwt.Token, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("bearer token not found")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected jwt signing method: %v", token.Header["alg"])
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}
