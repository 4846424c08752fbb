package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"usersapi/internal/model"
	"usersapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; anything beyond decoding and status mapping lives in the service.
func RegisterRoutes(app *fiber.App, db *sql.DB, userSvc service.UserService) {
	// Serve OpenAPI spec and the embedded Swagger UI page
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/users", ListUsers(userSvc))
	app.Post("/users", CreateUser(userSvc))
	app.Get("/users/:id", GetUser(userSvc))
	app.Put("/users/:id", UpdateUser(userSvc))
	app.Delete("/users/:id", DeleteUser(userSvc))

	app.Put("/users/:id/avatar", UploadAvatar(userSvc))
	app.Get("/users/:id/avatar", GetAvatarURL(userSvc))
}

// HealthCheck verifies DB connectivity with a short timeout.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListUsers returns the whole collection. No pagination: the roster-backed
// client consumes the full list on every fetch.
func ListUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": users, "total": len(users)})
	}
}

// CreateUser writes a new user under a caller-assigned id (generated when omitted).
func CreateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := parseUserPayload(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		created, err := svc.Create(c.UserContext(), u)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// GetUser returns a single user by id.
func GetUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(u)
	}
}

// UpdateUser rewrites name and age of an existing user. The path id wins
// over any id present in the body.
func UpdateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := parseUserPayload(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		u.ID = c.Params("id")
		updated, err := svc.Update(c.UserContext(), u)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(updated)
	}
}

// DeleteUser removes a user by id.
func DeleteUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return mapServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadAvatar accepts a multipart form (field name: file) and stores the
// image under the user's avatar key.
func UploadAvatar(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		key, err := svc.UploadAvatar(c.UserContext(), c.Params("id"), f, fh.Filename, ct, fh.Size)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": key})
	}
}

// GetAvatarURL returns a presigned, time-limited download URL for the avatar.
func GetAvatarURL(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		url, err := svc.AvatarURL(c.UserContext(), c.Params("id"))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// mapServiceError translates service sentinel errors into HTTP statuses.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "user not found")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// parseUserPayload decodes a user from JSON or form bodies. Form bodies keep
// the cast-only contract of the text-field clients: a non-numeric age becomes 0.
func parseUserPayload(c *fiber.Ctx) (model.User, error) {
	ct := c.Get(fiber.HeaderContentType)
	if strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
		age, _ := strconv.Atoi(c.FormValue("age"))
		return model.User{
			ID:   c.FormValue("id"),
			Name: c.FormValue("name"),
			Age:  age,
		}, nil
	}

	var u model.User
	if err := c.BodyParser(&u); err != nil {
		return model.User{}, err
	}
	return u, nil
}
