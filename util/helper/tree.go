package helper_util

import "github.com/aegis-admin/aegis/model"

// BuildMenuTree links flat menu rows into a forest. Rows must already be
// sorted; children keep the input order. Orphans (parent not in the input)
// surface as roots rather than vanishing.
func BuildMenuTree(menus []*model.Menu) []*model.Menu {
	byID := make(map[int64]*model.Menu, len(menus))
	for _, menu := range menus {
		menu.Children = nil
		byID[menu.ID] = menu
	}

	var roots []*model.Menu
	for _, menu := range menus {
		if menu.ParentID == nil {
			roots = append(roots, menu)
			continue
		}
		parent, ok := byID[*menu.ParentID]
		if !ok {
			roots = append(roots, menu)
			continue
		}
		parent.Children = append(parent.Children, menu)
	}
	return roots
}

// BuildDeptTree links flat department rows into a forest, same contract as
// BuildMenuTree.
func BuildDeptTree(depts []*model.Dept) []*model.Dept {
	byID := make(map[int64]*model.Dept, len(depts))
	for _, dept := range depts {
		dept.Children = nil
		byID[dept.ID] = dept
	}

	var roots []*model.Dept
	for _, dept := range depts {
		if dept.ParentID == nil {
			roots = append(roots, dept)
			continue
		}
		parent, ok := byID[*dept.ParentID]
		if !ok {
			roots = append(roots, dept)
			continue
		}
		parent.Children = append(parent.Children, dept)
	}
	return roots
}
