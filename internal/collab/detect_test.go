package collab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/lanes/internal/collab"
)

func TestOverlappingFields(t *testing.T) {
	t.Parallel()

	local := collab.Change{"title": "a", "description": "b", "position": 1}
	remote := collab.Change{"title": "x", "position": 2, "labels": []any{"bug"}}

	assert.Equal(t, []string{"position", "title"}, collab.OverlappingFields(local, remote))
	assert.Empty(t, collab.OverlappingFields(local, collab.Change{}))
	assert.Empty(t, collab.OverlappingFields(collab.Change{}, remote))
}

func TestConflicts_DisjointFieldsNeverConflict(t *testing.T) {
	t.Parallel()

	local := collab.Change{"title": "new title"}
	remote := collab.Change{"description": "new description"}

	assert.False(t, collab.Conflicts(local, remote))
}

func TestConflicts_SharedFieldConflicts(t *testing.T) {
	t.Parallel()

	local := collab.Change{"title": "local title"}
	remote := collab.Change{"title": "remote title"}

	assert.True(t, collab.Conflicts(local, remote))

	// Without a baseline, even identical values are flagged: conservative
	// by construction.
	assert.True(t, collab.Conflicts(
		collab.Change{"title": "same"},
		collab.Change{"title": "same"},
	))
}

func TestConflictsWithBase(t *testing.T) {
	t.Parallel()

	base := collab.Change{"title": "original", "position": 0}

	tests := []struct {
		name   string
		local  collab.Change
		remote collab.Change
		want   bool
	}{
		{
			name:   "both diverged differently",
			local:  collab.Change{"title": "local"},
			remote: collab.Change{"title": "remote"},
			want:   true,
		},
		{
			name:   "both converged on same value",
			local:  collab.Change{"title": "agreed"},
			remote: collab.Change{"title": "agreed"},
			want:   false,
		},
		{
			name:   "only remote diverged",
			local:  collab.Change{"title": "original"},
			remote: collab.Change{"title": "remote"},
			want:   false,
		},
		{
			name:   "only local diverged",
			local:  collab.Change{"title": "local"},
			remote: collab.Change{"title": "original"},
			want:   false,
		},
		{
			name:   "disjoint fields",
			local:  collab.Change{"title": "local"},
			remote: collab.Change{"position": 3},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, collab.ConflictsWithBase(base, tt.local, tt.remote))
		})
	}
}
