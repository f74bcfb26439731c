package services

import (
	"sort"

	"github.com/yeremiapane/restaurant-seating/models"
)

// MergeInfo is the derived merge membership of one table.
type MergeInfo struct {
	IsPartOfMergedOrder bool
	// MergedWith holds the table numbers of the other tables in the group.
	MergedWith []string
}

// TableView is a table as staff see it: the stored row plus the display
// status after merge reconciliation.
type TableView struct {
	models.Table
	DisplayStatus       models.TableStatus `json:"display_status"`
	IsPartOfMergedOrder bool               `json:"is_part_of_merged_order"`
	MergedWith          []string           `json:"merged_with"`
}

// DeriveMergeGroups groups tables that co-occur on the same open order,
// transitively. Only tables in a group of two or more appear in the result.
func DeriveMergeGroups(tables []models.Table, orders []models.Order) map[uint]MergeInfo {
	numbers := make(map[uint]string, len(tables))
	for _, t := range tables {
		numbers[t.ID] = t.TableNumber
	}

	parent := make(map[uint]uint)
	var find func(uint) uint
	find = func(id uint) uint {
		p, ok := parent[id]
		if !ok {
			parent[id] = id
			return id
		}
		if p == id {
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}
	union := func(a, b uint) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	for _, o := range orders {
		if !o.IsOpen() {
			continue
		}
		var first uint
		for _, t := range o.Tables {
			if _, known := numbers[t.ID]; !known {
				continue
			}
			if first == 0 {
				first = t.ID
				find(first)
				continue
			}
			union(first, t.ID)
		}
	}

	groups := make(map[uint][]uint)
	for id := range parent {
		root := find(id)
		groups[root] = append(groups[root], id)
	}

	out := make(map[uint]MergeInfo)
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return numbers[members[i]] < numbers[members[j]] })
		for _, id := range members {
			others := make([]string, 0, len(members)-1)
			for _, other := range members {
				if other != id {
					others = append(others, numbers[other])
				}
			}
			out[id] = MergeInfo{IsPartOfMergedOrder: true, MergedWith: others}
		}
	}
	return out
}

// BuildTableViews applies merge info to the stored tables. A merged table
// never displays as available or reserved.
func BuildTableViews(tables []models.Table, merges map[uint]MergeInfo) []TableView {
	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		v := TableView{Table: t, DisplayStatus: t.Status, MergedWith: []string{}}
		if info, ok := merges[t.ID]; ok {
			v.IsPartOfMergedOrder = true
			v.MergedWith = info.MergedWith
			if t.Status == models.TableAvailable || t.Status == models.TableReserved {
				v.DisplayStatus = models.TableOccupied
			}
		}
		views = append(views, v)
	}
	return views
}
