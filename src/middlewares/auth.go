package middlewares

import (
	"log"
	"os"
	"strconv"
	"strings"

	"dsb/src/db"
	"dsb/src/models"
	"dsb/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.AbortWithError(401, err)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(401)
		return
	}

	conn := db.GetDb()
	var admin models.AdminUser
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	conn.Model(&models.AdminUser{}).Where("id = ?", uint(uid)).Find(&admin)

	if uint(uid) != admin.ID || admin.ID < 1 {
		ctx.AbortWithStatus(401)
		return
	}
	ctx.Set("email", admin.Email)
	ctx.Set("id", admin.ID)
	ctx.Set("uid", admin.UID)
	ctx.Set("role", admin.Role)
}
