// Package audience provides audience membership oracles.
package audience

import (
	"context"
	"strings"
)

// Static answers membership from a fixed group list. Group ids compare case-insensitively.
type Static struct {
	groups map[string]struct{}
}

// NewStatic creates an oracle for the given membership.
func NewStatic(groups []string) *Static {
	m := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			m[g] = struct{}{}
		}
	}
	return &Static{groups: m}
}

// IsMember reports whether the principal belongs to groupID.
func (s *Static) IsMember(ctx context.Context, groupID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := s.groups[strings.ToLower(strings.TrimSpace(groupID))]
	return ok, nil
}
