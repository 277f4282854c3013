// Package tree rebuilds nested structures from flat adjacency rows: the
// category forest and the comment threads of reviews.
//
// Both builders index children by parent id and assemble depth first,
// removing each bucket as it is attached. A bucket still present afterwards
// was never reached from a root, which means a dangling reference or a cycle.
package tree

import (
	"cmp"
	"slices"

	"catalog-engine-go/internal/domain"
)

// CategoryRow is one row of the categories table.
type CategoryRow struct {
	ID     domain.CategoryID  `json:"id"`
	Parent *domain.CategoryID `json:"parent"`
	Name   string             `json:"name"`
}

// CategoryTree is a category with its subcategories sorted by name.
type CategoryTree struct {
	ID            domain.CategoryID `json:"id"`
	Name          string            `json:"name"`
	Subcategories []CategoryTree    `json:"subcategories"`
}

// BuildCategoryForest assembles rows into a forest. Roots and every list of
// subcategories are sorted by name, then id. Input order does not matter.
func BuildCategoryForest(rows []CategoryRow) ([]CategoryTree, error) {
	seen := make(map[domain.CategoryID]struct{}, len(rows))
	var roots []CategoryRow
	byParent := make(map[domain.CategoryID][]CategoryRow)

	for _, row := range rows {
		if _, dup := seen[row.ID]; dup {
			return nil, &ConsistencyError{Source: "category", ID: int32(row.ID), Err: ErrDuplicateID}
		}
		seen[row.ID] = struct{}{}

		if row.Parent == nil {
			roots = append(roots, row)
			continue
		}
		byParent[*row.Parent] = append(byParent[*row.Parent], row)
	}

	forest := attachCategories(roots, byParent)

	if len(byParent) > 0 {
		return nil, danglingCategory(byParent)
	}
	return forest, nil
}

func attachCategories(rows []CategoryRow, byParent map[domain.CategoryID][]CategoryRow) []CategoryTree {
	out := make([]CategoryTree, 0, len(rows))
	for _, row := range rows {
		children := byParent[row.ID]
		delete(byParent, row.ID)
		out = append(out, CategoryTree{
			ID:            row.ID,
			Name:          row.Name,
			Subcategories: attachCategories(children, byParent),
		})
	}
	slices.SortFunc(out, func(a, b CategoryTree) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// danglingCategory picks the lowest unreached parent so the error is stable.
func danglingCategory(byParent map[domain.CategoryID][]CategoryRow) error {
	var worst *CategoryRow
	for _, bucket := range byParent {
		for i := range bucket {
			if worst == nil || bucket[i].ID < worst.ID {
				worst = &bucket[i]
			}
		}
	}
	return &ConsistencyError{
		Source: "category",
		ID:     int32(worst.ID),
		Parent: int32(*worst.Parent),
		Err:    ErrDanglingParent,
	}
}

// CategorySegment is one step of a category path.
type CategorySegment struct {
	ID   domain.CategoryID `json:"id"`
	Name string            `json:"name"`
}

// BuildCategoryPath returns the categories from the root down to leaf.
func BuildCategoryPath(rows []CategoryRow, leaf domain.CategoryID) ([]CategorySegment, error) {
	byID := make(map[domain.CategoryID]CategoryRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var path []CategorySegment
	visited := make(map[domain.CategoryID]struct{})
	id := leaf
	for {
		row, ok := byID[id]
		if !ok {
			if id == leaf {
				return nil, &ConsistencyError{Source: "category", ID: int32(id), Err: ErrUnknownID}
			}
			return nil, &ConsistencyError{Source: "category", ID: int32(path[len(path)-1].ID), Parent: int32(id), Err: ErrDanglingParent}
		}
		if _, loop := visited[id]; loop {
			return nil, &ConsistencyError{Source: "category", ID: int32(id), Err: ErrDanglingParent}
		}
		visited[id] = struct{}{}
		path = append(path, CategorySegment{ID: row.ID, Name: row.Name})
		if row.Parent == nil {
			break
		}
		id = *row.Parent
	}

	slices.Reverse(path)
	return path, nil
}
