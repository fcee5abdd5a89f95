package cli

import (
	"sort"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByKey  SortOrder = "key"
	SortBySize SortOrder = "size"
)

// sortObjects sorts a listing based on the specified sort order
func sortObjects(objects []ObjectInfo, sortOrder SortOrder) {
	switch sortOrder {
	case SortByKey:
		sort.Slice(objects, func(i, j int) bool {
			return objects[i].Key < objects[j].Key
		})
	case SortBySize:
		sort.Slice(objects, func(i, j int) bool {
			if objects[i].Size != objects[j].Size {
				// Largest first
				return objects[i].Size > objects[j].Size
			}
			// If sizes are equal, sort by key
			return objects[i].Key < objects[j].Key
		})
	}
}
