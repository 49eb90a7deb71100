package memory

import (
	"encoding/json"
	"fmt"
)

// Bucket names used by durable adapters that store one JSON payload per bucket.
const (
	BucketSpecies     = "species"
	BucketCreatures   = "creatures"
	BucketHabitats    = "habitats"
	BucketMemberships = "memberships"
)

// Buckets lists every bucket in load order. Memberships come last so occupant
// sets are rebuilt only after the records they reference.
func Buckets() []string {
	return []string{BucketSpecies, BucketCreatures, BucketHabitats, BucketMemberships}
}

// EncodeBuckets marshals each snapshot bucket to JSON.
func (s Snapshot) EncodeBuckets() (map[string][]byte, error) {
	out := make(map[string][]byte, 4)
	for _, bucket := range Buckets() {
		var (
			data []byte
			err  error
		)
		switch bucket {
		case BucketSpecies:
			data, err = json.Marshal(s.Species)
		case BucketCreatures:
			data, err = json.Marshal(s.Creatures)
		case BucketHabitats:
			data, err = json.Marshal(s.Habitats)
		case BucketMemberships:
			data, err = json.Marshal(s.Memberships)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBucket unmarshals payload into the matching snapshot field. Unknown
// buckets are ignored so older databases with extra rows still load.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var target any
	switch bucket {
	case BucketSpecies:
		target = &s.Species
	case BucketCreatures:
		target = &s.Creatures
	case BucketHabitats:
		target = &s.Habitats
	case BucketMemberships:
		target = &s.Memberships
	default:
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
