package services_test

import (
	"context"
	"testing"

	"aicruit/internal/config"
	"aicruit/internal/models"
	"aicruit/internal/services"
	"aicruit/internal/store"
	"aicruit/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvalConfig() config.EvaluationConfig {
	return config.EvaluationConfig{
		PlaceholderDomain: "example.com",
		InternalRoles:     []string{"recruiter"},
	}
}

func TestIdentityService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("renames placeholder user to extracted email", func(t *testing.T) {
		st := memory.New()
		svc := services.NewIdentityService(st, testEvalConfig())
		require.NoError(t, svc.EnsureCandidateUser(ctx, "job-1", "ca1@example.com"))

		got, err := svc.Reconcile(ctx, "job-1", "ca1@example.com", "Jane Doe", "jane@corp.io")
		require.NoError(t, err)
		assert.Equal(t, "jane@corp.io", got)

		u, err := st.GetUserByEmail(ctx, "jane@corp.io")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", u.FullName)
		assert.Equal(t, []string{"job-1"}, u.Jobs)

		_, err = st.GetUserByEmail(ctx, "ca1@example.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("merges into existing user", func(t *testing.T) {
		st := memory.New()
		svc := services.NewIdentityService(st, testEvalConfig())
		require.NoError(t, st.CreateUser(ctx, &models.User{Email: "jane@corp.io", Role: models.RoleCandidate, Jobs: []string{"job-0"}}))
		require.NoError(t, svc.EnsureCandidateUser(ctx, "job-1", "ca1@example.com"))

		got, err := svc.Reconcile(ctx, "job-1", "ca1@example.com", "Jane Doe", "jane@corp.io")
		require.NoError(t, err)
		assert.Equal(t, "jane@corp.io", got)

		u, err := st.GetUserByEmail(ctx, "jane@corp.io")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"job-0", "job-1"}, u.Jobs)
		assert.Equal(t, "Jane Doe", u.FullName)

		_, err = st.GetUserByEmail(ctx, "ca1@example.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("creates user when none exists", func(t *testing.T) {
		st := memory.New()
		svc := services.NewIdentityService(st, testEvalConfig())

		got, err := svc.Reconcile(ctx, "job-1", "ca1@example.com", "Jane Doe", "jane@corp.io")
		require.NoError(t, err)
		assert.Equal(t, "jane@corp.io", got)

		u, err := st.GetUserByEmail(ctx, "jane@corp.io")
		require.NoError(t, err)
		assert.Equal(t, models.RoleCandidate, u.Role)
	})

	t.Run("keeps email when extraction is unusable", func(t *testing.T) {
		st := memory.New()
		svc := services.NewIdentityService(st, testEvalConfig())
		require.NoError(t, svc.EnsureCandidateUser(ctx, "job-1", "ca1@example.com"))

		for _, email := range []string{"", "ca9@example.com", "CA1@example.com"} {
			got, err := svc.Reconcile(ctx, "job-1", "ca1@example.com", "Jane Doe", email)
			require.NoError(t, err)
			assert.Empty(t, got, "email %q", email)
		}

		u, err := st.GetUserByEmail(ctx, "ca1@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", u.FullName)
	})
}

// preemptedUsers lets another writer create the target account right before
// each create or rename, the way a concurrent reconciliation would.
type preemptedUsers struct {
	*memory.Store
	email string
}

func (p *preemptedUsers) preempt(ctx context.Context) {
	_ = p.Store.CreateUser(ctx, &models.User{Email: p.email, Role: models.RoleCandidate, Jobs: []string{"job-0"}})
}

func (p *preemptedUsers) CreateUser(ctx context.Context, u *models.User) error {
	p.preempt(ctx)
	return p.Store.CreateUser(ctx, u)
}

func (p *preemptedUsers) UpdateUser(ctx context.Context, u *models.User) error {
	if u.Email == p.email {
		p.preempt(ctx)
	}
	return p.Store.UpdateUser(ctx, u)
}

func TestIdentityService_ReconcileLosesAccountRace(t *testing.T) {
	ctx := context.Background()

	for name, seeded := range map[string]bool{"create": false, "rename": true} {
		t.Run(name, func(t *testing.T) {
			st := memory.New()
			if seeded {
				require.NoError(t, st.CreateUser(ctx, &models.User{Email: "ca1@example.com", Role: models.RoleCandidate}))
			}
			svc := services.NewIdentityService(&preemptedUsers{Store: st, email: "jane@corp.io"}, testEvalConfig())

			got, err := svc.Reconcile(ctx, "job-1", "ca1@example.com", "Jane Doe", "jane@corp.io")
			require.NoError(t, err)
			assert.Equal(t, "jane@corp.io", got)

			u, err := st.GetUserByEmail(ctx, "jane@corp.io")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"job-0", "job-1"}, u.Jobs)
			assert.Equal(t, "Jane Doe", u.FullName)

			_, err = st.GetUserByEmail(ctx, "ca1@example.com")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestIdentityService_EnsureCandidateUser(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := services.NewIdentityService(st, testEvalConfig())

	require.NoError(t, svc.EnsureCandidateUser(ctx, "job-1", "jane.doe@corp.io"))
	require.NoError(t, svc.EnsureCandidateUser(ctx, "job-2", "jane.doe@corp.io"))
	require.NoError(t, svc.EnsureCandidateUser(ctx, "job-2", "jane.doe@corp.io"))

	u, err := st.GetUserByEmail(ctx, "jane.doe@corp.io")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.FullName)
	assert.Equal(t, []string{"job-1", "job-2"}, u.Jobs)
}

func TestNameFromEmail(t *testing.T) {
	tests := map[string]string{
		"jane_doe@corp.io":   "Jane Doe",
		"JOHN.SMITH@corp.io": "John Smith",
		"x-y@corp.io":        "X Y",
		"émile.zola@corp.io": "Émile Zola",
		"":                   "Candidate",
		"@corp.io":           "Candidate",
	}
	for in, want := range tests {
		assert.Equal(t, want, services.NameFromEmail(in), in)
	}
}
