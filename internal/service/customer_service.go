package service

import (
	"context"
	"golang.org/x/crypto/bcrypt"
	"net/mail"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/query"
	"strings"
)

const minPasswordLength = 6

type CustomerService struct {
	repo CustomerStore
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(repo CustomerStore) *CustomerService {
	return &CustomerService{repo: repo}
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Password  string `json:"password"`
}

// Register creates a customer account with a bcrypt password hash.
func (s *CustomerService) Register(ctx context.Context, req RegisterRequest) (*entity.Customer, error) {
	const op = "service.Register"

	customer := &entity.Customer{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
	}
	if customer.FirstName == "" || customer.LastName == "" || customer.Email == "" || req.Password == "" {
		return nil, apperror.Validation(op, "firstName, lastName, email and password are required")
	}
	if _, err := mail.ParseAddress(customer.Email); err != nil {
		return nil, apperror.Validation(op, "email is not valid")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperror.Validation(op, "password must be at least 6 characters")
	}
	if err := s.checkEmail(ctx, op, customer.Email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, op, err, "could not register customer")
	}
	customer.PasswordHash = string(hash)

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		logger.Error().Err(err).Msg("Error registering customer")
		return nil, err
	}
	return created, nil
}

// Login verifies the password against the stored hash.
func (s *CustomerService) Login(ctx context.Context, email, password string) (*entity.Customer, error) {
	const op = "service.CustomerLogin"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.Validation(op, "email and password are required")
	}

	customer, err := s.repo.GetCustomerByEmail(ctx, email)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Unauthorized(op, "invalid email or password")
		}
		logger.Error().Err(err).Msg("Error loading customer for login")
		return nil, err
	}

	if customer.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)) != nil {
		return nil, apperror.Unauthorized(op, "invalid email or password")
	}

	customer.PasswordHash = ""
	return customer, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, f entity.CustomerFilter, page query.Page) ([]entity.Customer, query.Pagination, error) {
	customers, total, err := s.repo.ListCustomers(ctx, f, page)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing customers")
		return nil, query.Pagination{}, err
	}
	return customers, query.NewPagination(page, total), nil
}

// CreateCustomer is the admin path; the customer has no password until they register.
func (s *CustomerService) CreateCustomer(ctx context.Context, customer *entity.Customer) (*entity.Customer, error) {
	const op = "service.CreateCustomer"

	if err := normalizeCustomer(op, customer); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, op, customer.Email, 0); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating customer")
		return nil, err
	}
	return created, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, customer *entity.Customer) (*entity.Customer, error) {
	const op = "service.UpdateCustomer"

	if customer.ID <= 0 {
		return nil, apperror.Validation(op, "customer id is required")
	}
	if err := normalizeCustomer(op, customer); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, op, customer.Email, customer.ID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateCustomer(ctx, customer)
	if err != nil {
		if !apperror.Is(err, apperror.KindNotFound) {
			logger.Error().Err(err).Msgf("Error updating customer %d", customer.ID)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteCustomer fails with a dependency error while orders still reference the customer.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int) error {
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		if apperror.KindOf(err) == apperror.KindInternal || apperror.KindOf(err) == apperror.KindConnection {
			logger.Error().Err(err).Msgf("Error deleting customer %d", id)
		}
		return err
	}
	return nil
}

func (s *CustomerService) checkEmail(ctx context.Context, op, email string, excludeID int) error {
	exists, err := s.repo.EmailExists(ctx, email, excludeID)
	if err != nil {
		logger.Error().Err(err).Msg("Error checking customer email")
		return err
	}
	if exists {
		return apperror.Conflict(op, "email already exists")
	}
	return nil
}

func normalizeCustomer(op string, customer *entity.Customer) error {
	customer.FirstName = strings.TrimSpace(customer.FirstName)
	customer.LastName = strings.TrimSpace(customer.LastName)
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Address = strings.TrimSpace(customer.Address)

	if customer.FirstName == "" || customer.Email == "" {
		return apperror.Validation(op, "first_name and email are required")
	}
	if _, err := mail.ParseAddress(customer.Email); err != nil {
		return apperror.Validation(op, "email is not valid")
	}
	return nil
}
