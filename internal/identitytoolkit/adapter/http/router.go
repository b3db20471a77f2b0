// Package http exposes usecase.AuthService over the slice of the Identity
// Toolkit REST surface spec.md §6 requires, using the same gofiber/fiber
// router style as internal/auth/adapter/http's AuthHTTPHandler. Field
// validation here is done by hand rather than with go-playground/validator,
// since the wire shapes (idToken, localId, returnSecureToken) are Identity
// Toolkit's own and don't map cleanly onto struct tags the teacher used for
// its own register/login DTOs.
package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"firestore-emulator/internal/identitytoolkit/domain/model"
	"firestore-emulator/internal/identitytoolkit/security"
	"firestore-emulator/internal/identitytoolkit/usecase"
	"firestore-emulator/internal/shared/logger"
)

// Handler adapts usecase.AuthService to Identity Toolkit's JSON request
// shapes (accounts:signUp/signInWithPassword/lookup/delete/update).
type Handler struct {
	svc *usecase.AuthService
	log logger.Logger
}

func NewHandler(svc *usecase.AuthService, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log.WithComponent("identitytoolkit")}
}

// Register mounts the accounts endpoints under the given router, matching
// the path shape identitytoolkit.googleapis.com actually serves:
// /identitytoolkit.googleapis.com/v1/projects/:projectId/accounts[:op].
// The colon before each op is escaped so fiber matches it literally rather
// than as a route parameter.
func (h *Handler) Register(router fiber.Router) {
	accounts := "/identitytoolkit.googleapis.com/v1/projects/:projectId/accounts"
	router.Post(accounts, h.SignUp)
	router.Post(accounts+"\\:signUp", h.SignUp)
	router.Post(accounts+"\\:signInWithPassword", h.SignIn)
	router.Post(accounts+"\\:lookup", h.Lookup)
	router.Post(accounts+"\\:delete", h.Delete)
	router.Post(accounts+"\\:update", h.Update)
}

type signUpRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type deleteRequest struct {
	IDToken string `json:"idToken"`
}

type updateRequest struct {
	IDToken     string `json:"idToken"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type accountErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (h *Handler) sendError(c *fiber.Ctx, status int, message string) error {
	resp := accountErrorResponse{}
	resp.Error.Code = status
	resp.Error.Message = message
	return c.Status(status).JSON(resp)
}

func (h *Handler) mapUserError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, model.ErrEmailExists):
		return h.sendError(c, fiber.StatusBadRequest, "EMAIL_EXISTS")
	case errors.Is(err, model.ErrUserNotFound):
		return h.sendError(c, fiber.StatusUnauthorized, "USER_NOT_FOUND")
	case errors.Is(err, security.ErrTokenInvalid):
		return h.sendError(c, fiber.StatusUnauthorized, "INVALID_ID_TOKEN")
	case errors.Is(err, model.ErrInvalidEmail):
		return h.sendError(c, fiber.StatusBadRequest, "INVALID_EMAIL")
	case errors.Is(err, model.ErrInvalidPassword):
		return h.sendError(c, fiber.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
	default:
		h.log.Errorf("identitytoolkit: unexpected error: %v", err)
		return h.sendError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}
}

func userToJSON(localID, email, displayName, idToken string) fiber.Map {
	m := fiber.Map{
		"kind":         "identitytoolkit#SignupNewUserResponse",
		"localId":      localID,
		"email":        email,
		"displayName":  displayName,
		"idToken":      idToken,
		"refreshToken": idToken,
		"expiresIn":    "3600",
	}
	return m
}

func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, fiber.StatusBadRequest, "INVALID_REQUEST_BODY")
	}
	u, token, err := h.svc.SignUp(req.Email, req.Password)
	if err != nil {
		return h.mapUserError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(userToJSON(u.LocalID, u.Email, u.DisplayName, token))
}

func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, fiber.StatusBadRequest, "INVALID_REQUEST_BODY")
	}
	u, token, err := h.svc.SignIn(req.Email, req.Password)
	if err != nil {
		return h.mapUserError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(userToJSON(u.LocalID, u.Email, u.DisplayName, token))
}

func (h *Handler) Lookup(c *fiber.Ctx) error {
	var req lookupRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, fiber.StatusBadRequest, "INVALID_REQUEST_BODY")
	}
	u, err := h.svc.Lookup(req.IDToken)
	if err != nil {
		return h.mapUserError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"kind": "identitytoolkit#GetAccountInfoResponse",
		"users": []fiber.Map{{
			"localId":     u.LocalID,
			"email":       u.Email,
			"displayName": u.DisplayName,
			"createdAt":   u.CreatedAt.Unix(),
		}},
	})
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, fiber.StatusBadRequest, "INVALID_REQUEST_BODY")
	}
	if err := h.svc.Delete(req.IDToken); err != nil {
		return h.mapUserError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"kind": "identitytoolkit#DeleteAccountResponse"})
}

func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, fiber.StatusBadRequest, "INVALID_REQUEST_BODY")
	}
	u, err := h.svc.Update(req.IDToken, req.DisplayName, req.Password)
	if err != nil {
		return h.mapUserError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"kind":        "identitytoolkit#SetAccountInfoResponse",
		"localId":     u.LocalID,
		"email":       u.Email,
		"displayName": u.DisplayName,
	})
}
