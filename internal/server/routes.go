// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"codeberg.org/treenza/storefront/internal/handlers"
	"codeberg.org/treenza/storefront/internal/middleware"
	"codeberg.org/treenza/storefront/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

func setupRoutes(e *echo.Echo, deps Deps) {
	h := handlers.New(deps.DB)
	e.GET("/health", h.Health)

	requireToken := middleware.RequireToken(deps.Verifier)

	// Code issuing sends mail and code checks are guessable, so both are throttled.
	var throttled []echo.MiddlewareFunc
	if deps.Limiter != nil {
		throttled = append(throttled, ratelimit.Middleware(deps.Limiter))
	}

	u := handlers.NewUser(deps.Auth)
	user := e.Group("/api/user")
	user.POST("/register", u.Register)
	user.POST("/login", u.Login)
	user.POST("/registerotp", u.RegisterOTP, throttled...)
	user.POST("/passwordotp", u.PasswordOTP, throttled...)
	user.POST("/resendotp", u.ResendOTP, throttled...)
	user.POST("/verifyotp", u.VerifyOTP, throttled...)
	user.POST("/forgot-password", u.ForgotPassword)
	user.GET("/me", u.Me, requireToken)

	if deps.Media == nil {
		return
	}

	v := handlers.NewVideo(deps.Media)
	videos := e.Group("/api/videos")
	videos.GET("", v.List)
	videos.POST("", v.Create, requireToken)
	videos.DELETE("/:id", v.Delete, requireToken)
}
