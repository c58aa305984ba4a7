package domain

import "github.com/cespare/xxhash/v2"

// Bucket maps a player and game to a stable point in [0, 100).
func Bucket(playerID, gameID string) float64 {
	return float64(xxhash.Sum64String(playerID+gameID)%10000) / 100
}

// Pick walks the variants accumulating normalized weight until the bucket is
// covered. The last weighted variant absorbs rounding.
func Pick(variants []Variant, bucket float64) (Variant, bool) {
	if len(variants) == 0 {
		return Variant{}, false
	}
	total := 0.0
	for _, v := range variants {
		total += v.Weight
	}
	if total <= 0 {
		return Variant{}, false
	}
	acc := 0.0
	last := Variant{}
	for _, v := range variants {
		if v.Weight <= 0 {
			continue
		}
		acc += v.Weight / total * 100
		if bucket < acc {
			return v, true
		}
		last = v
	}
	return last, true
}
