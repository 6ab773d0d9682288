package memory

import (
	"context"
	"sort"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
)

type accountRepo struct {
	v *view
}

func (r *accountRepo) Create(ctx context.Context, account *models.Account) error {
	return r.v.write(ctx, func(st *state) error {
		for _, other := range st.accounts {
			if other.Username == account.Username {
				return database.ErrUsernameTaken
			}
		}
		account.ID = st.nextID()
		account.CreatedAt = r.v.now()
		st.accounts[account.ID] = *account
		return nil
	})
}

func (r *accountRepo) Get(ctx context.Context, id int64) (*models.Account, error) {
	return r.find(ctx, func(a models.Account) bool { return a.ID == id })
}

func (r *accountRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.find(ctx, func(a models.Account) bool { return a.Username == username })
}

func (r *accountRepo) find(ctx context.Context, match func(models.Account) bool) (*models.Account, error) {
	var account *models.Account
	err := r.v.do(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if match(a) {
				found := a
				account = &found
				return nil
			}
		}
		return database.ErrAccountNotFound
	})
	return account, err
}

func (r *accountRepo) List(ctx context.Context, page, pageSize int) (*repository.OffsetPage[models.Account], error) {
	var accounts []models.Account
	err := r.v.do(ctx, func(st *state) error {
		for _, a := range st.accounts {
			accounts = append(accounts, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
		}
		return accounts[i].ID > accounts[j].ID
	})
	return paginate(accounts, page, pageSize), nil
}

func (r *accountRepo) UpdateProfile(ctx context.Context, account *models.Account) error {
	return r.v.write(ctx, func(st *state) error {
		current, ok := st.accounts[account.ID]
		if !ok {
			return database.ErrAccountNotFound
		}
		current.Name = account.Name
		current.Email = account.Email
		current.Phone = account.Phone
		current.Address = account.Address
		st.accounts[account.ID] = current
		return nil
	})
}

func (r *accountRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.v.write(ctx, func(st *state) error {
		current, ok := st.accounts[id]
		if !ok {
			return database.ErrAccountNotFound
		}
		current.PasswordHash = passwordHash
		st.accounts[id] = current
		return nil
	})
}
