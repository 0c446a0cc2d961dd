package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nyapix/internal/models"
	"nyapix/internal/relindex"
)

type mapSource map[int64]models.Ownership

func (m mapSource) AccessInfo(_ context.Context, ids []int64) (map[int64]models.Ownership, error) {
	out := make(map[int64]models.Ownership, len(ids))
	for _, id := range ids {
		if o, ok := m[id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

func TestCanAccess(t *testing.T) {
	private := models.Ownership{OwnerID: 7, Visibility: models.VisibilityPrivate}
	public := models.Ownership{OwnerID: 7, Visibility: models.VisibilityPublic}

	tests := []struct {
		name   string
		viewer int64
		o      models.Ownership
		want   bool
	}{
		{"owner sees private", 7, private, true},
		{"owner sees public", 7, public, true},
		{"stranger sees public", 8, public, true},
		{"stranger blocked from private", 8, private, false},
		{"anonymous sees public", Anonymous, public, true},
		{"anonymous blocked from private", Anonymous, private, false},
		{"anonymous never owns", Anonymous, models.Ownership{OwnerID: 0, Visibility: models.VisibilityPrivate}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.viewer, tt.o))
		})
	}
}

func TestFilter(t *testing.T) {
	src := mapSource{
		1: {ID: 1, OwnerID: 7, Visibility: models.VisibilityPrivate},
		2: {ID: 2, OwnerID: 8, Visibility: models.VisibilityPublic},
		3: {ID: 3, OwnerID: 8, Visibility: models.VisibilityPrivate},
	}
	candidates := relindex.NewSet(1, 2, 3, 4)

	got, err := Filter(context.Background(), src, 7, candidates)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got.IDs())

	got, err = Filter(context.Background(), src, 8, candidates)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, got.IDs())
}

func TestFilterEmptyCandidates(t *testing.T) {
	got, err := Filter(context.Background(), nil, 1, relindex.Set{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

type brokenSource struct{}

func (brokenSource) AccessInfo(context.Context, []int64) (map[int64]models.Ownership, error) {
	return nil, errors.New("connection reset")
}

func TestFilterPropagatesErrors(t *testing.T) {
	_, err := Filter(context.Background(), brokenSource{}, 1, relindex.NewSet(1))
	assert.ErrorContains(t, err, "connection reset")
}
