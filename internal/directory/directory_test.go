package directory

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/finance"
)

type DirectoryTestSuite struct {
	suite.Suite
	cfg *config.Config
	dir *Directory
	ctx context.Context
}

func (s *DirectoryTestSuite) SetupTest() {
	s.cfg = &config.Config{
		DataDir:         s.T().TempDir(),
		DirectoryDBFile: "accounts.db",
		BusyTimeout:     5 * time.Second,
	}
	dir, err := Open(s.cfg)
	require.NoError(s.T(), err, "failed to open test directory")
	s.dir = dir
	s.ctx = context.Background()
}

func (s *DirectoryTestSuite) TearDownTest() {
	if s.dir != nil {
		s.dir.Close()
	}
}

// register creates an account and returns it, failing the test on any
// unexpected outcome.
func (s *DirectoryTestSuite) register(name, email, password string) core.Account {
	res := s.dir.Register(s.ctx, name, email, password)
	require.True(s.T(), res.OK, "register %s: %s", email, res.Message)

	acc, ok := s.dir.Authenticate(s.ctx, email, password)
	require.True(s.T(), ok, "authenticate freshly registered %s", email)
	return acc
}

func (s *DirectoryTestSuite) TestRegisterAndAuthenticate() {
	res := s.dir.Register(s.ctx, "Ana", "ana@example.com", "secret1")
	require.True(s.T(), res.OK)
	assert.Equal(s.T(), "account registered successfully", res.Message)

	acc, ok := s.dir.Authenticate(s.ctx, "ana@example.com", "secret1")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "Ana", acc.Name)
	assert.Equal(s.T(), "ana@example.com", acc.Email)
	assert.Equal(s.T(), core.RoleStandard, acc.Role)
	assert.True(s.T(), acc.Active)
	assert.False(s.T(), acc.RegisteredAt.IsZero())
	require.NotNil(s.T(), acc.LastAccessAt, "login must stamp last access")

	_, ok = s.dir.Authenticate(s.ctx, "ana@example.com", "wrong")
	assert.False(s.T(), ok)
	_, ok = s.dir.Authenticate(s.ctx, "nobody@example.com", "secret1")
	assert.False(s.T(), ok)
}

func (s *DirectoryTestSuite) TestDuplicateEmailIsRejected() {
	s.register("Ana", "ana@example.com", "secret1")

	res := s.dir.Register(s.ctx, "Other Ana", "ana@example.com", "different")
	require.False(s.T(), res.OK)
	assert.Equal(s.T(), "email is already registered", res.Message)

	// The original credentials still work.
	_, ok := s.dir.Authenticate(s.ctx, "ana@example.com", "secret1")
	assert.True(s.T(), ok)
}

func (s *DirectoryTestSuite) TestRegisterProvisionsFinanceStore() {
	acc := s.register("Ana", "ana@example.com", "secret1")

	_, err := os.Stat(s.cfg.StorePath(acc.ID))
	require.NoError(s.T(), err, "finance store must exist after registration")

	store, err := finance.Open(s.cfg, acc.ID)
	require.NoError(s.T(), err)
	defer store.Close()

	cats, err := store.Categories(s.ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), cats, len(finance.DefaultCategories))
}

func (s *DirectoryTestSuite) TestDeactivateBlocksLogin() {
	acc := s.register("Ana", "ana@example.com", "secret1")

	res := s.dir.SetActive(s.ctx, core.RoleAdmin, acc.ID, false)
	require.True(s.T(), res.OK)
	assert.Equal(s.T(), "account deactivated successfully", res.Message)

	_, ok := s.dir.Authenticate(s.ctx, "ana@example.com", "secret1")
	assert.False(s.T(), ok, "inactive account must not authenticate")

	res = s.dir.SetActive(s.ctx, core.RoleAdmin, acc.ID, true)
	require.True(s.T(), res.OK)
	_, ok = s.dir.Authenticate(s.ctx, "ana@example.com", "secret1")
	assert.True(s.T(), ok, "reactivated account must authenticate again")
}

func (s *DirectoryTestSuite) TestChangePassword() {
	acc := s.register("Ana", "ana@example.com", "secret1")

	res := s.dir.ChangePassword(s.ctx, acc.ID, "wrong", "newpass")
	require.False(s.T(), res.OK)
	assert.Equal(s.T(), "current password is incorrect", res.Message)

	res = s.dir.ChangePassword(s.ctx, acc.ID, "secret1", "newpass")
	require.True(s.T(), res.OK)
	assert.Equal(s.T(), "password changed successfully", res.Message)

	_, ok := s.dir.Authenticate(s.ctx, "ana@example.com", "secret1")
	assert.False(s.T(), ok, "old password must stop working")
	_, ok = s.dir.Authenticate(s.ctx, "ana@example.com", "newpass")
	assert.True(s.T(), ok)
}

func (s *DirectoryTestSuite) TestChangePasswordUnknownAccount() {
	res := s.dir.ChangePassword(s.ctx, 404, "old", "new")
	require.False(s.T(), res.OK)
	assert.Equal(s.T(), "account not found", res.Message)
}

func (s *DirectoryTestSuite) TestRolePromotion() {
	acc := s.register("Ana", "ana@example.com", "secret1")
	assert.Equal(s.T(), core.RoleStandard, acc.Role)

	res := s.dir.SetRole(s.ctx, core.RoleAdmin, acc.ID, core.RoleAdmin)
	require.True(s.T(), res.OK)
	assert.Equal(s.T(), "role changed to 'admin' successfully", res.Message)

	acc, ok := s.dir.Authenticate(s.ctx, "ana@example.com", "secret1")
	require.True(s.T(), ok)
	assert.Equal(s.T(), core.RoleAdmin, acc.Role)
}

func (s *DirectoryTestSuite) TestSetRoleRejectsUnknownRole() {
	acc := s.register("Ana", "ana@example.com", "secret1")

	res := s.dir.SetRole(s.ctx, core.RoleAdmin, acc.ID, core.Role("superuser"))
	require.False(s.T(), res.OK)
	assert.Equal(s.T(), "invalid role: must be 'standard' or 'admin'", res.Message)

	got, ok := s.dir.GetAccount(s.ctx, acc.ID)
	require.True(s.T(), ok)
	assert.Equal(s.T(), core.RoleStandard, got.Role, "failed change must not alter the role")
}

func (s *DirectoryTestSuite) TestAdminOperationsRequireAdminActor() {
	acc := s.register("Ana", "ana@example.com", "secret1")

	for _, res := range []Result{
		s.dir.SetRole(s.ctx, core.RoleStandard, acc.ID, core.RoleAdmin),
		s.dir.SetActive(s.ctx, core.RoleStandard, acc.ID, false),
		s.dir.DeleteAccount(s.ctx, core.RoleStandard, acc.ID),
	} {
		assert.False(s.T(), res.OK)
		assert.Equal(s.T(), ErrNotAuthorized.Error(), res.Message)
	}

	_, err := s.dir.ListAccounts(s.ctx, core.RoleStandard)
	assert.ErrorIs(s.T(), err, ErrNotAuthorized)
	_, err = s.dir.AdminStats(s.ctx, core.RoleStandard)
	assert.ErrorIs(s.T(), err, ErrNotAuthorized)
	_, err = s.dir.CheckStores(s.ctx, core.RoleStandard)
	assert.ErrorIs(s.T(), err, ErrNotAuthorized)

	// The account is untouched.
	_, ok := s.dir.Authenticate(s.ctx, "ana@example.com", "secret1")
	assert.True(s.T(), ok)
}

func (s *DirectoryTestSuite) TestDeleteAccountRemovesRowAndStore() {
	acc := s.register("Ana", "ana@example.com", "secret1")

	res := s.dir.DeleteAccount(s.ctx, core.RoleAdmin, acc.ID)
	require.True(s.T(), res.OK)
	assert.Equal(s.T(), "account and its data deleted successfully", res.Message)

	_, ok := s.dir.GetAccount(s.ctx, acc.ID)
	assert.False(s.T(), ok)
	_, err := os.Stat(s.cfg.StorePath(acc.ID))
	assert.True(s.T(), os.IsNotExist(err), "finance store file must be gone")

	res = s.dir.DeleteAccount(s.ctx, core.RoleAdmin, acc.ID)
	require.False(s.T(), res.OK)
	assert.Equal(s.T(), "account not found", res.Message)
}

func (s *DirectoryTestSuite) TestListAccountsNewestFirst() {
	s.register("Ana", "ana@example.com", "secret1")
	s.register("Ben", "ben@example.com", "secret2")
	s.register("Cleo", "cleo@example.com", "secret3")

	accounts, err := s.dir.ListAccounts(s.ctx, core.RoleAdmin)
	require.NoError(s.T(), err)
	require.Len(s.T(), accounts, 3)
	assert.Equal(s.T(), "cleo@example.com", accounts[0].Email)
	assert.Equal(s.T(), "ben@example.com", accounts[1].Email)
	assert.Equal(s.T(), "ana@example.com", accounts[2].Email)
}

func (s *DirectoryTestSuite) TestAdminStats() {
	ana := s.register("Ana", "ana@example.com", "secret1")
	ben := s.register("Ben", "ben@example.com", "secret2")
	s.register("Cleo", "cleo@example.com", "secret3")

	require.True(s.T(), s.dir.SetRole(s.ctx, core.RoleAdmin, ana.ID, core.RoleAdmin).OK)
	require.True(s.T(), s.dir.SetActive(s.ctx, core.RoleAdmin, ben.ID, false).OK)

	stats, err := s.dir.AdminStats(s.ctx, core.RoleAdmin)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, stats.TotalAccounts)
	assert.Equal(s.T(), 2, stats.ActiveAccounts)
	assert.Equal(s.T(), 1, stats.InactiveAccounts)
	assert.Equal(s.T(), 1, stats.AdminAccounts)
	assert.Equal(s.T(), 3, stats.RecentAccounts, "all registrations happened just now")
}

func (s *DirectoryTestSuite) TestGetAccount() {
	acc := s.register("Ana", "ana@example.com", "secret1")

	got, ok := s.dir.GetAccount(s.ctx, acc.ID)
	require.True(s.T(), ok)
	assert.Equal(s.T(), acc.ID, got.ID)
	assert.Equal(s.T(), "Ana", got.Name)
	assert.Equal(s.T(), "ana@example.com", got.Email)

	_, ok = s.dir.GetAccount(s.ctx, 404)
	assert.False(s.T(), ok)
}

func (s *DirectoryTestSuite) TestCheckStores() {
	ana := s.register("Ana", "ana@example.com", "secret1")
	ben := s.register("Ben", "ben@example.com", "secret2")

	// One store missing from disk still passes; it will be recreated on
	// the next open.
	require.NoError(s.T(), os.Remove(s.cfg.StorePath(ben.ID)))

	checks, err := s.dir.CheckStores(s.ctx, core.RoleAdmin)
	require.NoError(s.T(), err)
	require.Len(s.T(), checks, 2)

	byID := make(map[int64]StoreCheck, len(checks))
	for _, c := range checks {
		byID[c.AccountID] = c
	}
	assert.True(s.T(), byID[ana.ID].OK)
	assert.Equal(s.T(), "ok", byID[ana.ID].Detail)
	assert.True(s.T(), byID[ben.ID].OK)
	assert.Equal(s.T(), "store not created yet", byID[ben.ID].Detail)
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectoryTestSuite))
}
