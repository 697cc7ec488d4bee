// dao/user_dao_test.go
package dao_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/dao"
	"github.com/aegis-admin/aegis/db"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache database keeps every pooled connection on the
	// same in-memory store while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func seedUser(t *testing.T, userDAO *dao.UserDAO, username, nickname, email string) *model.User {
	t.Helper()
	user := &model.User{
		UUID:     "uuid-" + username,
		Username: username,
		Nickname: nickname,
		Email:    email,
		Password: "hashed",
		Status:   model.StatusEnabled,
	}
	require.NoError(t, userDAO.Create(context.Background(), user))
	return user
}

func TestUserDAOCreateAndLookup(t *testing.T) {
	userDAO := dao.NewUserDAO(newTestDB(t))
	ctx := context.Background()

	created := seedUser(t, userDAO, "alice", "Alice", "alice@example.com")

	byID, err := userDAO.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)

	byName, err := userDAO.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)

	missing, err := userDAO.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing, "a missing row is (nil, nil), not an error")
}

func TestUserDAOFieldTaken(t *testing.T) {
	userDAO := dao.NewUserDAO(newTestDB(t))
	ctx := context.Background()

	alice := seedUser(t, userDAO, "alice", "Alice", "alice@example.com")
	bob := seedUser(t, userDAO, "bob", "Bob", "bob@example.com")

	taken, err := userDAO.FieldTaken(ctx, "username", "alice", bob.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	// A user never collides with itself
	taken, err = userDAO.FieldTaken(ctx, "username", "alice", alice.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = userDAO.FieldTaken(ctx, "email", "carol@example.com", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserDAOGetUserWithRelations(t *testing.T) {
	gdb := newTestDB(t)
	userDAO := dao.NewUserDAO(gdb)
	ctx := context.Background()

	dept := &model.Dept{Name: "Engineering", Status: model.StatusEnabled}
	require.NoError(t, gdb.Create(dept).Error)

	role := &model.Role{
		Name:   "ops",
		Status: model.StatusEnabled,
		Menus:  []model.Menu{{Title: "Users", Perms: "sys:user:list", Status: model.StatusEnabled}},
		Rules: []model.DataRule{{
			Name: "own dept", Model: "User", Column: "dept_id",
			Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "1",
		}},
	}
	require.NoError(t, gdb.Create(role).Error)

	user := &model.User{
		UUID: "u-1", Username: "alice", Nickname: "Alice", Email: "alice@example.com",
		Status: model.StatusEnabled, DeptID: &dept.ID, Roles: []model.Role{*role},
	}
	require.NoError(t, gdb.Create(user).Error)

	loaded, err := userDAO.GetUserWithRelations(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.NotNil(t, loaded.Dept)
	assert.Equal(t, "Engineering", loaded.Dept.Name)
	require.Len(t, loaded.Roles, 1)
	require.Len(t, loaded.Roles[0].Menus, 1)
	assert.Equal(t, "sys:user:list", loaded.Roles[0].Menus[0].Perms)
	require.Len(t, loaded.Roles[0].Rules, 1)
	assert.Equal(t, "dept_id", loaded.Roles[0].Rules[0].Column)
}

func TestUserDAOListAppliesPredicate(t *testing.T) {
	gdb := newTestDB(t)
	userDAO := dao.NewUserDAO(gdb)
	ctx := context.Background()

	deptA := &model.Dept{Name: "A", Status: model.StatusEnabled}
	deptB := &model.Dept{Name: "B", Status: model.StatusEnabled}
	require.NoError(t, gdb.Create(deptA).Error)
	require.NoError(t, gdb.Create(deptB).Error)

	alice := seedUser(t, userDAO, "alice", "Alice", "alice@example.com")
	bob := seedUser(t, userDAO, "bob", "Bob", "bob@example.com")
	require.NoError(t, gdb.Model(alice).Update("dept_id", deptA.ID).Error)
	require.NoError(t, gdb.Model(bob).Update("dept_id", deptB.ID).Error)

	pred := authz.Predicate{SQL: "dept_id = ?", Args: []any{deptA.ID}}
	users, total, err := userDAO.List(ctx, pred, nil, "", nil, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	// Universal predicate sees everyone
	users, total, err = userDAO.List(ctx, authz.Universal, nil, "", nil, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)
}

func TestUserDAOListFilters(t *testing.T) {
	gdb := newTestDB(t)
	userDAO := dao.NewUserDAO(gdb)
	ctx := context.Background()

	seedUser(t, userDAO, "alice", "Alice", "alice@example.com")
	bob := seedUser(t, userDAO, "bob", "Bob", "bob@example.com")
	require.NoError(t, userDAO.SetStatus(ctx, bob.ID, model.StatusDisabled))

	users, total, err := userDAO.List(ctx, authz.Universal, nil, "ali", nil, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	disabled := model.StatusDisabled
	users, total, err = userDAO.List(ctx, authz.Universal, nil, "", &disabled, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
}

func TestUserDAOSetFieldReportsMissingUser(t *testing.T) {
	userDAO := dao.NewUserDAO(newTestDB(t))
	ctx := context.Background()

	err := userDAO.SetStatus(ctx, 12345, model.StatusDisabled)
	assert.ErrorIs(t, err, aegis_errors.ErrUserNotFound)

	err = userDAO.Delete(ctx, 12345)
	assert.ErrorIs(t, err, aegis_errors.ErrUserNotFound)
}

func TestUserDAODelete(t *testing.T) {
	userDAO := dao.NewUserDAO(newTestDB(t))
	ctx := context.Background()

	alice := seedUser(t, userDAO, "alice", "Alice", "alice@example.com")
	require.NoError(t, userDAO.Delete(ctx, alice.ID))

	gone, err := userDAO.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
