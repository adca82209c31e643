package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/session"
	"github.com/gopass/dashboard/pkg/transit"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	CurrentPassword string `json:"currentPassword" validate:"required_with=NewPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6"`
}

// AuthRouter exposes login to everyone. Logout and the profile need the guard handlers.
func AuthRouter(router fiber.Router, operatorSession *session.Session, client *apiclient.Client, guard ...fiber.Handler) {
	guarded := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guard...), handler)
	}

	router.Post("/login", func(c *fiber.Ctx) error {
		var body loginRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		user, err := operatorSession.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"user":        user,
			"accessToken": operatorSession.AccessToken(),
		})
	})

	router.Post("/logout", guarded(func(c *fiber.Ctx) error {
		return noContent(c, operatorSession.Logout(c.UserContext()))
	})...)

	router.Get("/profile", guarded(func(c *fiber.Ctx) error {
		user, err := client.GetProfile(c.UserContext())
		if err != nil {
			return err
		}

		return c.JSON(user)
	})...)

	router.Patch("/profile", guarded(func(c *fiber.Ctx) error {
		var body profileRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		user, err := operatorSession.UpdateProfile(c.UserContext(), transit.ProfileUpdate{
			Name:            body.Name,
			Phone:           body.Phone,
			CurrentPassword: body.CurrentPassword,
			NewPassword:     body.NewPassword,
		})
		if err != nil {
			return err
		}

		return c.JSON(user)
	})...)
}
