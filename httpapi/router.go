// Package httpapi wires the HTTP and websocket surface of the backend.
package httpapi

import (
	"social-lab/auth"
	"social-lab/reputation"

	"github.com/gin-gonic/gin"
)

// NewRouter assembles the gin engine. The reputation annotator runs on every
// API route but only ever adds metadata; the session gate protects the
// messaging surface.
func NewRouter(authHandlers *AuthHandlers, chatHandlers *ChatHandlers,
	vpnHandlers *VPNHandlers, wsHandler *WSHandler,
	annotator *reputation.Annotator) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	api.Use(annotator.Middleware())

	user := api.Group("/user")
	{
		user.POST("/register", authHandlers.Register)
		user.POST("/verify-email", authHandlers.VerifyEmail)
		user.POST("/login", authHandlers.Login)
		user.POST("/verify-login-otp", authHandlers.VerifyLoginOTP)
		user.POST("/resend-login-otp", authHandlers.ResendLoginOTP)
		user.POST("/resend-signup-otp", authHandlers.ResendSignupOTP)
		user.GET("/logout", authHandlers.Logout)
	}

	message := api.Group("/message")
	message.Use(auth.SessionGate())
	{
		message.POST("/send/:id", chatHandlers.SendMessage)
		message.GET("/all/:id", chatHandlers.GetMessages)
	}

	vpn := api.Group("/vpn")
	{
		vpn.GET("/recent", vpnHandlers.Recent)
		vpn.GET("/stats", vpnHandlers.Stats)
		vpn.GET("/ip/:ip", vpnHandlers.ByIP)
	}

	router.GET("/ws", wsHandler.Connect)

	return router
}
