package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"userhub/internal/domain/user"
	repo "userhub/internal/repo/mongo"
)

// UsersRepo is an in-memory stand-in for the mongo-backed store, matching
// its behavior (unique email, not-found sentinels) so handler and router
// tests run without a database.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{items: make(map[string]user.User)}
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, fullName, role string) (user.User, error) {
	normalized := user.NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == normalized {
			return user.User{}, repo.ErrEmailAlreadyUsed
		}
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        normalized,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Role:         role,
		Status:       user.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	normalized := user.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == normalized {
			return u, nil
		}
	}

	return user.User{}, repo.ErrUserNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, repo.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, fullName, email *string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, repo.ErrUserNotFound
	}

	if email != nil {
		normalized := user.NormalizeEmail(*email)

		for otherID, other := range r.items {
			if otherID != id && other.Email == normalized {
				return user.User{}, repo.ErrEmailAlreadyUsed
			}
		}

		u.Email = normalized
	}

	if fullName != nil {
		u.FullName = *fullName
	}

	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) (user.User, error) {
	return r.patch(id, func(u *user.User) { u.PasswordHash = passwordHash })
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id, role string) (user.User, error) {
	return r.patch(id, func(u *user.User) { u.Role = role })
}

func (r *UsersRepo) UpdateStatus(ctx context.Context, id, status string) (user.User, error) {
	return r.patch(id, func(u *user.User) { u.Status = status })
}

func (r *UsersRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.patch(id, func(u *user.User) { u.LastLogin = &at })

	return err
}

func (r *UsersRepo) patch(id string, apply func(*user.User)) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, repo.ErrUserNotFound
	}

	apply(&u)
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, page, limit int, search string) ([]user.User, int64, error) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = 10
	}

	needle := strings.ToLower(search)

	r.mu.RLock()

	matched := make([]user.User, 0, len(r.items))

	for _, u := range r.items {
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Email), needle) ||
			strings.Contains(strings.ToLower(u.FullName), needle) {
			matched = append(matched, u)
		}
	}

	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	start := (page - 1) * limit

	if start >= len(matched) {
		return []user.User{}, total, nil
	}

	end := start + limit

	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}
