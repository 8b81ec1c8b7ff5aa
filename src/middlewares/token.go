package middlewares

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"dsb/src/lib"

	"github.com/gin-gonic/gin"
)

// VerifyIdToken authenticates admins signed in through the Firebase console
// widget, as an alternative to the password login flow.
func VerifyIdToken(ctx *gin.Context) {
	idToken := ctx.GetHeader("Authorization")
	if idToken == "" {
		err := errors.New("missing authorization header")
		log.Printf("Check failed: %s\n", err.Error())
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	fauth, err := lib.GetFirebaseAuth()
	if err != nil {
		log.Printf("Error retrieving Firebase Auth instance: %s\n", err.Error())
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	token, err := fauth.VerifyIDToken(ctx, idToken)
	if err != nil {
		msg := "Failed to verify ID token"
		log.Printf("%s: %s\n", msg, fmt.Sprintf("%v", err))
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}
	ctx.Set("uid", token.UID)
}
