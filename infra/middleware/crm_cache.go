package middleware

import (
	"crypto/md5"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ETag generates an ETag for successful GET responses and answers
// If-None-Match with 304. Client and insight listings change slowly
// enough between polls that dashboards benefit from conditional requests.
func ETag() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := c.Method()
		if method != "GET" && method != "HEAD" {
			return c.Next()
		}

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() >= 400 {
			return nil
		}

		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		hash := md5.Sum(body)
		etag := fmt.Sprintf(`"%x"`, hash)
		c.Set("ETag", etag)

		if c.Get("If-None-Match") == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().SetBody(nil)
		}

		return nil
	}
}

// NoCache sets no-cache headers for dynamic API responses.
func NoCache() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}

// PrivateCache sets private cache headers for user-specific data.
func PrivateCache(maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() < 400 {
			c.Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(maxAge.Seconds())))
		}

		return nil
	}
}
