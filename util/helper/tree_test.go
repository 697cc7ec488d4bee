package helper_util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis/model"
	helper_util "github.com/aegis-admin/aegis/util/helper"
)

func ptr(v int64) *int64 { return &v }

func TestBuildMenuTreeLinksGrandchildren(t *testing.T) {
	menus := []*model.Menu{
		{ID: 1, Title: "System"},
		{ID: 2, Title: "Users", ParentID: ptr(1)},
		{ID: 3, Title: "Add User", ParentID: ptr(2)},
		{ID: 4, Title: "Dashboard"},
	}

	roots := helper_util.BuildMenuTree(menus)
	require.Len(t, roots, 2)
	assert.Equal(t, int64(1), roots[0].ID)
	assert.Equal(t, int64(4), roots[1].ID)

	require.Len(t, roots[0].Children, 1)
	users := roots[0].Children[0]
	assert.Equal(t, int64(2), users.ID)
	require.Len(t, users.Children, 1)
	assert.Equal(t, int64(3), users.Children[0].ID)
}

func TestBuildMenuTreeOrphansBecomeRoots(t *testing.T) {
	menus := []*model.Menu{
		{ID: 2, Title: "Users", ParentID: ptr(1)}, // parent not loaded
	}

	roots := helper_util.BuildMenuTree(menus)
	require.Len(t, roots, 1)
	assert.Equal(t, int64(2), roots[0].ID)
}

func TestBuildDeptTree(t *testing.T) {
	depts := []*model.Dept{
		{ID: 1, Name: "HQ"},
		{ID: 2, Name: "Engineering", ParentID: ptr(1)},
		{ID: 3, Name: "Platform", ParentID: ptr(2)},
	}

	roots := helper_util.BuildDeptTree(depts)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "Platform", roots[0].Children[0].Children[0].Name)
}
