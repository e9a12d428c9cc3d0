package models

type DiffResult struct {
	Added         []FollowerRecord `json:"new_followers"`
	Removed       []FollowerRecord `json:"unfollowers"`
	CurrentTotal  int              `json:"total_current"`
	PreviousTotal int              `json:"total_previous"`
}

// ComputeDiff compares two follower lists by handle. Added keeps the order of
// current, Removed keeps the order of previous. Handles are compared as exact
// strings. Each list is expected to hold unique handles.
func ComputeDiff(current, previous []FollowerRecord) DiffResult {
	currentSet := handleSet(current)
	previousSet := handleSet(previous)

	added := make([]FollowerRecord, 0)
	for _, f := range current {
		if _, ok := previousSet[f.Handle]; !ok {
			added = append(added, f)
		}
	}

	removed := make([]FollowerRecord, 0)
	for _, f := range previous {
		if _, ok := currentSet[f.Handle]; !ok {
			removed = append(removed, f)
		}
	}

	return DiffResult{
		Added:         added,
		Removed:       removed,
		CurrentTotal:  len(current),
		PreviousTotal: len(previous),
	}
}

func handleSet(list []FollowerRecord) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, f := range list {
		set[f.Handle] = struct{}{}
	}
	return set
}
