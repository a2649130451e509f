package api

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"storefront-service/internal/service"
)

type CustomerHandler struct {
	customers CustomerService
}

func NewCustomerHandler(customers CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PostCustomers handles ?action=register and ?action=login.
func (h *CustomerHandler) PostCustomers(c echo.Context) error {
	const op = "api.PostCustomers"
	ctx := c.Request().Context()

	switch c.QueryParam("action") {
	case "register":
		req := service.RegisterRequest{}
		if err := c.Bind(&req); err != nil {
			return invalidJSON(op, err)
		}
		customer, err := h.customers.Register(ctx, req)
		if err != nil {
			return err
		}
		return respond(c, http.StatusCreated, "Registration successful", customer)
	case "login":
		req := loginRequest{}
		if err := c.Bind(&req); err != nil {
			return invalidJSON(op, err)
		}
		customer, err := h.customers.Login(ctx, req.Email, req.Password)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, "Login successful", customer)
	default:
		return invalidAction(op)
	}
}
