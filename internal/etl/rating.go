package etl

import "hash/fnv"

// RatingFor maps a provider identifier to a stable pseudo-random rating in
// [1, 10]. The same identifier always yields the same value, which keeps
// re-runs from shuffling ratings around. Real quality data would replace
// this wholesale.
func RatingFor(providerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(providerID))
	return int(h.Sum32()%10) + 1
}
