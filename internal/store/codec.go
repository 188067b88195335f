package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/serroba/fuselink/internal/policy"
)

// encodePolicy returns the stored JSON form of p and the deadline that
// backs the expires_at column.
func encodePolicy(p policy.Policy) ([]byte, *time.Time, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, nil, fmt.Errorf("encode policy: %w", err)
	}

	deadline, ok := policy.Deadline(p)
	if !ok {
		return data, nil, nil
	}

	return data, &deadline, nil
}

// decodePolicy does not wrap the decode error: a stored policy that fails to
// parse is corrupt data, not caller input.
func decodePolicy(data []byte) (policy.Policy, error) {
	var p policy.Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return policy.Policy{}, fmt.Errorf("decode stored policy: %v", err)
	}

	return p, nil
}
