package mockbank

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"contractcheck/internal/contract"
	"contractcheck/internal/core"
)

const homePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Mock Bank</title>
</head>
<body>
  <h1>Mock Bank</h1>
  <p>Sign in through <code>POST /api/login</code> to view your accounts.</p>
</body>
</html>
`

// Handler holds the HTTP handlers
type Handler struct {
	store *Store
}

// NewHandler creates a new handler backed by store
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Home handles GET /
func (h *Handler) Home(c echo.Context) error {
	return c.HTML(http.StatusOK, homePage)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/login
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body", err))
	}
	if req.Username == "" || req.Password == "" {
		return handleError(c, core.NewInvalidRequestError("username and password are required", nil))
	}

	sess, err := h.store.Login(req.Username, req.Password)
	if err != nil {
		return handleError(c, core.NewAuthenticationError(err.Error()))
	}
	return c.JSON(http.StatusOK, sess)
}

// Profile handles GET /api/profile
func (h *Handler) Profile(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

// Account handles GET /api/accounts/:id
func (h *Handler) Account(c echo.Context) error {
	account, err := h.store.Account(currentUser(c).ID, c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

// AddTransaction handles POST /api/accounts/:id/transactions. The body is
// checked against the transaction contract before it is stored.
func (h *Handler) AddTransaction(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return handleError(c, core.NewInvalidRequestError("failed to read request body", err))
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}
	if payload == nil {
		return handleError(c, core.NewInvalidRequestError("request body must be a JSON object", nil))
	}
	if _, ok := payload["id"]; !ok {
		// IDs are assigned by the bank.
		payload["id"] = ""
	}

	if err := contract.Validate(payload, contract.Transaction()); err != nil {
		return handleError(c, core.NewInvalidRequestErrorWithStatus(http.StatusUnprocessableEntity, err.Error(), err))
	}

	var tx Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	stored, err := h.store.AddTransaction(currentUser(c).ID, c.Param("id"), tx)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, stored)
}

// handleError converts store and API errors to JSON error responses
func handleError(c echo.Context, err error) error {
	if errors.Is(err, ErrAccountNotFound) {
		err = core.NewNotFoundError(err.Error())
	}

	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		return c.JSON(apiErr.HTTPStatusCode(), apiErr.ToJSON())
	}

	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
