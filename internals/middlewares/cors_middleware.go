package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"admissionsdesk_backend/internals/configs"
)

// CorsMiddleware builds the CORS middleware from the env allow-list
func CorsMiddleware() fiber.Handler {
	origins := configs.GetEnv("CORS_ALLOW_ORIGINS",
		"http://localhost:5173, http://localhost:3000")

	return cors.New(cors.Config{
		AllowOrigins: strings.Join(
			splitAndTrim(origins), ", ",
		),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Razorpay-Signature",
		AllowCredentials: true,
	})
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
