package router

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/operis/vigil/models"
	"github.com/operis/vigil/vigilance"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/toolkits/pkg/logger"
)

type loginForm struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshForm struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (rt *Router) loginPost(c *gin.Context) {
	var f loginForm
	bind(c, &f)
	logger.Infof("username:%s login from:%s", f.Username, c.ClientIP())

	user, err := models.PassLogin(rt.Ctx, f.Username, f.Password)
	dangerous(err, http.StatusUnauthorized)

	userIdentity := fmt.Sprintf("%d-%s", user.Id, user.Username)

	ts, err := rt.createTokens(rt.HTTP.JWTAuth.SigningKey, userIdentity)
	dangerous(err)
	dangerous(rt.createAuth(c.Request.Context(), userIdentity, ts))

	// every successful login moves the system login counter
	if _, err := rt.Engine.Track(vigilance.TrackInput{
		CompanyId: user.CompanyId,
		UserId:    user.Id,
		Module:    "system",
		KpiName:   "login_count",
		Unit:      models.UnitCount,
		Value:     1,
	}); err != nil {
		logger.Errorf("failed to track login_count for user %d: %v", user.Id, err)
	}

	renderData(c, gin.H{
		"user":          user,
		"access_token":  ts.AccessToken,
		"refresh_token": ts.RefreshToken,
	}, nil)
}

func (rt *Router) logoutPost(c *gin.Context) {
	logger.Infof("username:%s logout from:%s", c.GetString("username"), c.ClientIP())
	metadata, err := rt.extractTokenMetadata(c.Request)
	if err != nil {
		renderMessage(c, "failed to parse jwt token", http.StatusBadRequest)
		return
	}

	if err := rt.deleteTokens(c.Request.Context(), metadata); err != nil {
		renderMessage(c, http.StatusText(http.StatusInternalServerError))
		return
	}

	renderMessage(c, nil)
}

func (rt *Router) refreshPost(c *gin.Context) {
	var f refreshForm
	bind(c, &f)

	token, err := jwt.Parse(f.RefreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected jwt signing method: %v", token.Header["alg"])
		}
		return []byte(rt.HTTP.JWTAuth.SigningKey), nil
	})

	if err != nil {
		renderMessage(c, "refresh token expired", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		renderMessage(c, "refresh token invalid", http.StatusUnauthorized)
		return
	}

	refreshUuid, ok := claims["refresh_uuid"].(string)
	if !ok {
		renderMessage(c, "failed to parse refresh_uuid from jwt", http.StatusUnauthorized)
		return
	}

	userIdentity, ok := claims["user_identity"].(string)
	if !ok {
		renderMessage(c, "failed to parse user_identity from jwt", http.StatusUnauthorized)
		return
	}

	userid, err := strconv.ParseInt(strings.Split(userIdentity, "-")[0], 10, 64)
	if err != nil {
		renderMessage(c, "failed to parse user_identity from jwt", http.StatusUnauthorized)
		return
	}

	u, err := models.UserGetById(rt.Ctx, userid)
	if err != nil {
		renderMessage(c, "failed to query user by id", http.StatusInternalServerError)
		return
	}

	if u == nil {
		renderMessage(c, "user already deleted", http.StatusUnauthorized)
		return
	}

	// rotate both tokens
	if err := rt.deleteAuth(c.Request.Context(), refreshUuid); err != nil {
		renderMessage(c, http.StatusText(http.StatusInternalServerError), http.StatusUnauthorized)
		return
	}
	rt.deleteAuth(c.Request.Context(), strings.Split(refreshUuid, "++")[0])

	ts, err := rt.createTokens(rt.HTTP.JWTAuth.SigningKey, userIdentity)
	dangerous(err)
	dangerous(rt.createAuth(c.Request.Context(), userIdentity, ts))

	renderData(c, gin.H{
		"access_token":  ts.AccessToken,
		"refresh_token": ts.RefreshToken,
	}, nil)
}

func (rt *Router) selfGet(c *gin.Context) {
	renderData(c, loggedUser(c), nil)
}
