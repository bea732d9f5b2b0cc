package main

import (
	"log/slog"
	"os"

	"campusevents/internal/app"

	_ "campusevents/docs"
)

// @title Campus Events API
// @version 1.0
// @description Role-gated campus event management: sign-in per role, organizer approval, event approval and student registrations.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Optional. When present, must be "Bearer <access token>" issued to the signed-in identity.
func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		slog.Error("application failed", "err", err)
		os.Exit(1)
	}
}
