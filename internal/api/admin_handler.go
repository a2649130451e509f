package api

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"storefront-service/internal/entity"
	"storefront-service/internal/service"
	"strings"
)

// AdminHandler serves /api/admin. Every route except Login sits behind the JWT guard.
type AdminHandler struct {
	auth      AuthService
	dashboard DashboardService
	catalog   CatalogService
	orders    OrderService
	customers CustomerService
}

func NewAdminHandler(svc Services) *AdminHandler {
	return &AdminHandler{
		auth:      svc.Auth,
		dashboard: svc.Dashboard,
		catalog:   svc.Catalog,
		orders:    svc.Orders,
		customers: svc.Customers,
	}
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) Login(c echo.Context) error {
	req := adminLoginRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidJSON("api.AdminLogin", err)
	}

	token, err := h.auth.AdminLogin(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Login successful", map[string]string{"token": token})
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	dashboard, err := h.dashboard.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", dashboard)
}

// GetProducts returns one product for ?id=N, otherwise a filtered page.
func (h *AdminHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("id") != "" {
		id, err := queryID(c)
		if err != nil {
			return err
		}
		product, err := h.catalog.GetAdminProduct(ctx, id)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, "", product)
	}

	page, err := queryPage(c)
	if err != nil {
		return err
	}
	filter := entity.ProductFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
	}

	products, pagination, err := h.catalog.ListAdminProducts(ctx, filter, page)
	if err != nil {
		return err
	}
	if products == nil {
		products = []entity.Product{}
	}
	return respondPage(c, products, pagination)
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	product := entity.Product{}
	if err := c.Bind(&product); err != nil {
		return invalidJSON("api.CreateProduct", err)
	}
	product.ID = 0

	created, err := h.catalog.CreateProduct(c.Request().Context(), &product)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Product created successfully", created)
}

func (h *AdminHandler) UpdateProduct(c echo.Context) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}

	product := entity.Product{}
	if err := c.Bind(&product); err != nil {
		return invalidJSON("api.UpdateProduct", err)
	}
	product.ID = id

	updated, err := h.catalog.UpdateProduct(c.Request().Context(), &product)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Product updated successfully", updated)
}

func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}

	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Product deleted successfully", nil)
}

// GetOrders returns the nested view for ?id=N, otherwise a filtered page.
func (h *AdminHandler) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("id") != "" {
		id, err := queryID(c)
		if err != nil {
			return err
		}
		order, err := h.orders.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, "", newOrderView(order))
	}

	page, err := queryPage(c)
	if err != nil {
		return err
	}
	filter := entity.OrderFilter{
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
		Search:        c.QueryParam("search"),
	}

	orders, pagination, err := h.orders.ListOrders(ctx, filter, page)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return respondPage(c, orders, pagination)
}

// CreateOrder enters an order on behalf of a customer; customer_id may link it to an account.
func (h *AdminHandler) CreateOrder(c echo.Context) error {
	req := service.CreateOrderRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidJSON("api.AdminCreateOrder", err)
	}

	receipt, err := h.orders.CreateOrder(c.Request().Context(), req, "", "")
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Order created successfully", receipt)
}

func (h *AdminHandler) UpdateOrder(c echo.Context) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}

	req := statusRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidJSON("api.UpdateOrder", err)
	}

	if err := h.orders.UpdateStatus(c.Request().Context(), id, req.Status, req.Type); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order updated successfully", nil)
}

func (h *AdminHandler) DeleteOrder(c echo.Context) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}

	if err := h.orders.DeleteOrder(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order deleted successfully", nil)
}

func (h *AdminHandler) GetCustomers(c echo.Context) error {
	page, err := queryPage(c)
	if err != nil {
		return err
	}

	customers, pagination, err := h.customers.ListCustomers(c.Request().Context(), entity.CustomerFilter{Search: c.QueryParam("search")}, page)
	if err != nil {
		return err
	}
	if customers == nil {
		customers = []entity.Customer{}
	}
	return respondPage(c, customers, pagination)
}

func (h *AdminHandler) CreateCustomer(c echo.Context) error {
	customer := entity.Customer{}
	if err := c.Bind(&customer); err != nil {
		return invalidJSON("api.CreateCustomer", err)
	}
	customer.ID = 0

	created, err := h.customers.CreateCustomer(c.Request().Context(), &customer)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Customer created successfully", created)
}

func (h *AdminHandler) UpdateCustomer(c echo.Context) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}

	customer := entity.Customer{}
	if err := c.Bind(&customer); err != nil {
		return invalidJSON("api.UpdateCustomer", err)
	}
	customer.ID = id

	updated, err := h.customers.UpdateCustomer(c.Request().Context(), &customer)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Customer updated successfully", updated)
}

func (h *AdminHandler) DeleteCustomer(c echo.Context) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}

	if err := h.customers.DeleteCustomer(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Customer deleted successfully", nil)
}
