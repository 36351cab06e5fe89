package server

import (
	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type formField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Required bool
}

func signupFields(form validation.SignupForm) []formField {
	return []formField{
		{Name: "first_name", Label: "First name", Type: "text", Value: form.FirstName},
		{Name: "last_name", Label: "Last name", Type: "text", Value: form.LastName},
		{Name: "username", Label: "Username", Type: "text", Value: form.Username, Required: true},
		{Name: "email", Label: "Email", Type: "email", Value: form.Email, Required: true},
		{Name: "password", Label: "Password", Type: "password", Required: true},
	}
}

func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.render(c, "users/signup", fiber.Map{
		"title":  "Sign up",
		"fields": signupFields(validation.SignupForm{}),
	})
}

// Signup creates the account and signs the new user in.
func (s *Server) Signup(c *fiber.Ctx) error {
	var form validation.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return s.respondError(c, models.NewValidationError("invalid form data"))
	}

	user, err := s.authService.Signup(c.UserContext(), form)
	if err != nil {
		return s.renderForm(c, "users/signup", fiber.Map{
			"title":  "Sign up",
			"fields": signupFields(form),
		}, err)
	}
	return s.startSession(c, user, "/", fiber.StatusCreated)
}

func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.render(c, "users/login", fiber.Map{
		"title": "Log in",
		"form":  validation.LoginForm{},
		"next":  safeNext(c.Query("next"), ""),
	})
}

// Login checks the credentials and redirects to a local next URL or home.
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return s.respondError(c, models.NewValidationError("invalid form data"))
	}
	next := c.FormValue("next")
	if next == "" {
		next = c.Query("next")
	}

	user, err := s.authService.Authenticate(c.UserContext(), form)
	if err != nil {
		return s.renderForm(c, "users/login", fiber.Map{
			"title": "Log in",
			"form":  validation.LoginForm{Username: form.Username},
			"next":  safeNext(next, ""),
		}, err)
	}
	return s.startSession(c, user, safeNext(next, "/"), fiber.StatusOK)
}

// Logout revokes the current token and clears the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	if raw := tokenFromRequest(c); raw != "" {
		if err := s.authService.Revoke(c.UserContext(), raw); err != nil {
			return s.respondError(c, err)
		}
	}
	s.clearSessionCookie(c)

	if wantsJSON(c) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User, redirect string, jsonStatus int) error {
	token, expires, err := s.authService.IssueToken(user)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, token, expires)

	if wantsJSON(c) {
		return c.Status(jsonStatus).JSON(fiber.Map{
			"token":      token,
			"expires_at": expires,
			"user":       user,
		})
	}
	return c.Redirect(redirect, fiber.StatusFound)
}
