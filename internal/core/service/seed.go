package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/ports"
)

type demoAccount struct {
	user     domain.User
	password string
}

func demoAccounts() []demoAccount {
	day := func(y int, m time.Month, d, h, min int) time.Time { return time.Date(y, m, d, h, min, 0, 0, time.UTC) }
	owner := func(first, last, email, phone string, created time.Time) demoAccount {
		return demoAccount{
			user:     domain.User{FirstName: first, LastName: last, Email: email, Phone: phone, Role: domain.RoleTheaterOwner, Active: true, CreatedAt: created},
			password: "theater123",
		}
	}

	return []demoAccount{
		{
			user:     domain.User{FirstName: "Super", LastName: "Admin", Email: "superadmin@moviehub.com", Phone: "+1-555-0100", Role: domain.RoleSuperAdmin, Active: true, CreatedAt: day(2024, 1, 1, 0, 0)},
			password: "superadmin123",
		},
		{
			user:     domain.User{FirstName: "Admin", LastName: "User", Email: "admin@moviehub.com", Phone: "+1-555-0123", Role: domain.RoleAdmin, Active: true, CreatedAt: day(2024, 1, 1, 0, 0)},
			password: "admin123",
		},
		owner("John", "Smith", "john.smith@example.com", "+1-555-0124", day(2024, 1, 5, 10, 30)),
		owner("Jane", "Doe", "jane.doe@example.com", "+1-555-0125", day(2024, 1, 6, 14, 20)),
		owner("Mike", "Johnson", "mike.johnson@example.com", "+1-555-0126", day(2024, 1, 7, 9, 15)),
		{
			user:     domain.User{FirstName: "Sarah", LastName: "Wilson", Email: "sarah.wilson@example.com", Phone: "+1-555-0127", Role: domain.RoleCustomer, Active: true, CreatedAt: day(2024, 1, 10, 16, 45)},
			password: "password123",
		},
		{
			user:     domain.User{FirstName: "Sajid", LastName: "Shaikh", Email: "ss2728303@gmail.com", Phone: "+1-555-0128", Role: domain.RoleCustomer, Active: true, CreatedAt: day(2025, 8, 28, 20, 8)},
			password: "sajidsai",
		},
	}
}

// SeedDemoUsers creates the demo accounts that are not in repo yet and
// returns how many were added. Existing accounts are left untouched.
func SeedDemoUsers(ctx context.Context, repo ports.UserRepository, cost int) (int, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	added := 0
	for _, acc := range demoAccounts() {
		if _, err := repo.FindByEmail(ctx, acc.user.Email); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return added, fmt.Errorf("seed %s: %w", acc.user.Email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(acc.password), cost)
		if err != nil {
			return added, fmt.Errorf("seed %s: hash password: %w", acc.user.Email, err)
		}
		u := acc.user
		u.PasswordHash = string(hash)

		if _, err := repo.Create(ctx, &u); err != nil {
			if errors.Is(err, domain.ErrUserExists) {
				continue
			}
			return added, fmt.Errorf("seed %s: %w", acc.user.Email, err)
		}
		added++
	}
	return added, nil
}
