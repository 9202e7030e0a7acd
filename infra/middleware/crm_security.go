package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SecurityHeaders adds security headers to all responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Prevent MIME type sniffing
		c.Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		c.Set("X-Frame-Options", "DENY")

		// Control referrer information
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Content Security Policy. The API serves JSON only.
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Strict Transport Security (enable HTTPS enforcement)
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		// Remove server header
		c.Set("Server", "")

		return c.Next()
	}
}

// ValidateContentType ensures requests with a body declare a supported content type.
// Meta delivers webhook payloads as application/json, so the whitelist stays small.
func ValidateContentType() fiber.Handler {
	allowedTypes := []string{
		"application/json",
		"application/x-www-form-urlencoded",
	}

	return func(c *fiber.Ctx) error {
		method := c.Method()

		if method == "POST" || method == "PUT" || method == "PATCH" {
			contentType := c.Get("Content-Type")

			if len(c.Body()) > 0 {
				if contentType == "" {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "content-type header required",
						"code":  "MISSING_CONTENT_TYPE",
					})
				}

				valid := false
				for _, t := range allowedTypes {
					if strings.HasPrefix(contentType, t) {
						valid = true
						break
					}
				}

				if !valid {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "unsupported content type",
						"code":  "UNSUPPORTED_MEDIA_TYPE",
					})
				}
			}
		}

		return c.Next()
	}
}
