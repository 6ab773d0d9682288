package service

import (
	"context"
	"errors"
	"strings"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past this length.
const maxPasswordBytes = 72

type AccountService struct {
	store  repository.Store
	cost   int
	logger *log.Entry
}

func NewAccountService(store repository.Store, bcryptCost int) *AccountService {
	return &AccountService{
		store:  store,
		cost:   bcryptCost,
		logger: log.WithField("component", "account-service"),
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type ProfilePatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AccountView, error) {
	return s.create(ctx, in, models.RoleCustomer)
}

// CreateAdmin is only reachable from the command line.
func (s *AccountService) CreateAdmin(ctx context.Context, in RegisterInput) (*AccountView, error) {
	return s.create(ctx, in, models.RoleAdmin)
}

func (s *AccountService) create(ctx context.Context, in RegisterInput, role models.Role) (*AccountView, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, database.Validationf("username is required")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, database.Persist("hash password", err)
	}

	account := &models.Account{
		Username:     username,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Role:         role,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		return nil, database.Persist("create account", err)
	}

	s.logger.WithFields(log.Fields{
		"account_id": account.ID,
		"role":       role,
	}).Info("account created")

	return toAccountView(account), nil
}

func checkPassword(password string) error {
	if password == "" {
		return database.Validationf("password is required")
	}
	if len(password) > maxPasswordBytes {
		return database.Validationf("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// Login reports the same error for an unknown username and a wrong password.
func (s *AccountService) Login(ctx context.Context, username, password string) (*AccountView, error) {
	account, err := s.store.Accounts().GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, database.ErrBadCredentials
		}
		return nil, database.Persist("login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, database.ErrBadCredentials
	}

	return toAccountView(account), nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*AccountView, error) {
	account, err := s.store.Accounts().Get(ctx, id)
	if err != nil {
		return nil, database.Persist("get account", err)
	}
	return toAccountView(account), nil
}

// RequireAdmin fails with ErrForbidden unless id belongs to an administrator.
func (s *AccountService) RequireAdmin(ctx context.Context, id int64) error {
	account, err := s.store.Accounts().Get(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.ErrAdminOnly
		}
		return database.Persist("get account", err)
	}
	if !account.IsAdmin() {
		return database.ErrAdminOnly
	}
	return nil
}

func (s *AccountService) ListAccounts(ctx context.Context, page, pageSize int) (*repository.OffsetPage[AccountView], error) {
	if err := repository.CheckPage(page, pageSize); err != nil {
		return nil, err
	}

	result, err := s.store.Accounts().List(ctx, page, pageSize)
	if err != nil {
		return nil, database.Persist("list accounts", err)
	}

	views := make([]AccountView, 0, len(result.Items))
	for i := range result.Items {
		views = append(views, *toAccountView(&result.Items[i]))
	}
	return &repository.OffsetPage[AccountView]{
		Items:      views,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (*AccountView, error) {
	var account *models.Account
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		var err error
		account, err = tx.Accounts().Get(ctx, id)
		if err != nil {
			return err
		}

		applyString(&account.Name, patch.Name)
		applyString(&account.Email, patch.Email)
		applyString(&account.Phone, patch.Phone)
		applyString(&account.Address, patch.Address)

		return tx.Accounts().UpdateProfile(ctx, account)
	})
	if err != nil {
		return nil, database.Persist("update profile", err)
	}
	return toAccountView(account), nil
}

func (s *AccountService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	if err := checkPassword(next); err != nil {
		return err
	}

	account, err := s.store.Accounts().Get(ctx, id)
	if err != nil {
		return database.Persist("get account", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(current)); err != nil {
		return database.ErrBadCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return database.Persist("hash password", err)
	}
	if err := s.store.Accounts().UpdatePassword(ctx, id, string(hash)); err != nil {
		return database.Persist("update password", err)
	}

	s.logger.WithField("account_id", id).Info("password changed")
	return nil
}

func applyString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
