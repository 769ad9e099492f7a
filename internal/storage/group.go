package storage

import (
	"sort"
	"time"
)

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	Members   []int64   `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func (g Group) Validate() error {
	if g.Name == "" {
		return ErrEmptyGroupName
	}
	return nil
}

// NormalizeMembers returns a sorted member set with the owner always included.
func NormalizeMembers(ownerID int64, members []int64) []int64 {
	set := map[int64]struct{}{ownerID: {}}
	for _, m := range members {
		set[m] = struct{}{}
	}
	result := make([]int64, 0, len(set))
	for m := range set {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
