package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/crm-ia/pkg/config"
)

var (
	defaultCORSMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}
	defaultCORSHeaders = []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization}
	// Content-Disposition carries the file name of synthesized audio.
	defaultCORSExpose = []string{fiber.HeaderContentLength, fiber.HeaderContentDisposition}
)

const defaultCORSMaxAge = 24 * 60 * 60

// NewCORS builds the CORS middleware from config; empty lists take the defaults.
// Credentials are dropped when any origin is allowed, browsers reject that pairing.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	origins := orDefault(cfg.AllowedOrigins, []string{"*"})
	credentials := cfg.Credentials
	if strings.Join(origins, ",") == "*" {
		credentials = false
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAge
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ","),
		AllowHeaders:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ","),
		ExposeHeaders:    strings.Join(orDefault(cfg.ExposeHeaders, defaultCORSExpose), ","),
		AllowCredentials: credentials,
		MaxAge:           maxAge,
	})
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
