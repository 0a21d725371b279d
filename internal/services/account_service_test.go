package services

import (
	"context"
	"errors"
	"testing"

	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/models"
)

func TestEnsureAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		identity *models.Identity
		wantRole models.UserRole
	}{
		{"regular user starts free", &models.Identity{ID: "u1", Name: "Ana"}, models.RoleFree},
		{"provider admin", &models.Identity{ID: "root", Name: "Root", IsAdmin: true}, models.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := env.accounts.EnsureAccount(ctx, tt.identity)
			if err != nil {
				t.Fatalf("EnsureAccount() error = %v", err)
			}
			if user.Role != tt.wantRole {
				t.Errorf("Role = %s, want %s", user.Role, tt.wantRole)
			}
		})
	}

	if _, err := env.accounts.GetGenerationStatus(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetGenerationStatus(ghost) error = %v, want ErrUserNotFound", err)
	}

	status, err := env.accounts.GetGenerationStatus(ctx, "root")
	if err != nil {
		t.Fatalf("GetGenerationStatus() error = %v", err)
	}
	if !status.Unlimited || status.Remaining != credits.Unlimited {
		t.Errorf("admin status = %+v, want unlimited", status)
	}
}

func TestUpdateRole(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.user(t, "admin", models.RoleAdmin)
	env.user(t, "u1", models.RoleFree)

	user, err := env.accounts.UpdateRole(ctx, "admin", "u1", &UpdateRoleRequest{Role: models.RolePro})
	if err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	if user.Role != models.RolePro {
		t.Errorf("Role = %s, want pro", user.Role)
	}

	tests := []struct {
		name    string
		target  string
		role    models.UserRole
		wantErr func(error) bool
	}{
		{"self demotion", "admin", models.RoleFree, func(err error) bool { return errors.Is(err, ErrCannotDemoteSelf) }},
		{"unknown user", "ghost", models.RolePro, func(err error) bool { return errors.Is(err, ErrUserNotFound) }},
		{"unknown role", "u1", models.UserRole("owner"), func(err error) bool {
			var verrs ValidationErrors
			return errors.As(err, &verrs)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.accounts.UpdateRole(ctx, "admin", tt.target, &UpdateRoleRequest{Role: tt.role})
			if !tt.wantErr(err) {
				t.Errorf("UpdateRole() error = %v", err)
			}
		})
	}
}

func TestUpdateCredits(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.user(t, "u1", models.RoleFree)
	if err := env.repo.User().UpdateGenerationCounters(ctx, nil, "u1", credits.Counters{CreditsUsed: 2}); err != nil {
		t.Fatalf("UpdateGenerationCounters() error = %v", err)
	}

	if _, err := env.accounts.UpdateCredits(ctx, "u1", &UpdateCreditsRequest{CreditsGranted: intPtr(5)}); err != nil {
		t.Fatalf("UpdateCredits() error = %v", err)
	}
	status, err := env.accounts.GetGenerationStatus(ctx, "u1")
	if err != nil {
		t.Fatalf("GetGenerationStatus() error = %v", err)
	}
	if status.Limit != 5 || status.Remaining != 3 {
		t.Errorf("after grant status = %+v, want limit 5 remaining 3", status)
	}

	user, err := env.accounts.UpdateCredits(ctx, "u1", &UpdateCreditsRequest{ResetUsage: true})
	if err != nil {
		t.Fatalf("UpdateCredits() error = %v", err)
	}
	if user.CreditsGranted != nil || user.CreditsUsed != 0 {
		t.Errorf("after reset user = %+v, want default grant and zero usage", user)
	}

	if _, err := env.accounts.UpdateCredits(ctx, "ghost", &UpdateCreditsRequest{}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateCredits(ghost) error = %v, want ErrUserNotFound", err)
	}
}

func TestAdminChangesProvisionKnownIdentities(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.user(t, "admin", models.RoleAdmin)
	env.identity.known["newcomer"] = &models.Identity{ID: "newcomer", Name: "newcomer", Email: "newcomer@example.com"}
	env.identity.known["granted"] = &models.Identity{ID: "granted", Name: "granted"}

	user, err := env.accounts.UpdateRole(ctx, "admin", "newcomer", &UpdateRoleRequest{Role: models.RolePro})
	if err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	if user.Role != models.RolePro || user.Email != "newcomer@example.com" {
		t.Errorf("provisioned user = %+v, want pro with identity email", user)
	}

	user, err = env.accounts.UpdateCredits(ctx, "granted", &UpdateCreditsRequest{CreditsGranted: intPtr(9)})
	if err != nil {
		t.Fatalf("UpdateCredits() error = %v", err)
	}
	if user.CreditsGranted == nil || *user.CreditsGranted != 9 {
		t.Errorf("CreditsGranted = %v, want 9", user.CreditsGranted)
	}

	// Signing in later keeps what the admin set
	user, err = env.accounts.EnsureAccount(ctx, env.identity.known["newcomer"])
	if err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}
	if user.Role != models.RolePro {
		t.Errorf("Role after sign-in = %s, want pro", user.Role)
	}
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t, nil)
	env.user(t, "ana", models.RoleFree)
	env.user(t, "bruno", models.RolePro)

	pro := models.RolePro
	resp, err := env.accounts.ListUsers(context.Background(), &UserListQuery{Role: &pro})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if resp.Total != 1 || resp.Users[0].ID != "bruno" {
		t.Errorf("ListUsers(pro) = %+v", resp)
	}
	if resp.Limit != 50 {
		t.Errorf("Limit = %d, want default 50", resp.Limit)
	}
}
