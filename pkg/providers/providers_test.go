package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	t.Run("valid order", func(t *testing.T) {
		r, err := NewRegistry([]ID{NFS, MQL})
		require.NoError(t, err)
		assert.Equal(t, []ID{NFS, MQL}, r.Order())
	})

	t.Run("empty order", func(t *testing.T) {
		_, err := NewRegistry(nil)
		assert.Error(t, err)
	})

	t.Run("duplicate provider", func(t *testing.T) {
		_, err := NewRegistry([]ID{NFS, MQL, NFS})
		assert.ErrorContains(t, err, "listed twice")
	})

	t.Run("empty ID", func(t *testing.T) {
		_, err := NewRegistry([]ID{NFS, ""})
		assert.Error(t, err)
	})
}

func TestRegistryRank(t *testing.T) {
	r := Default()

	assert.Equal(t, 0, r.Rank(NFS))
	assert.Equal(t, 1, r.Rank(MQL))
	assert.Less(t, r.Rank(MQL), r.Rank(Generated), "real providers outrank the synthetic feed")

	// Unlisted providers rank below everything listed.
	unlisted := r.Rank(ID("newswire"))
	for _, id := range r.Order() {
		assert.Less(t, r.Rank(id), unlisted)
	}
}

func TestRegistryValidate(t *testing.T) {
	r := Default()

	assert.NoError(t, r.Validate(NFS, MQL, FXStreet))

	err := r.Validate(NFS, ID("zzz"), ID("aaa"))
	require.Error(t, err)
	// Missing providers are reported sorted for stable error text.
	assert.ErrorContains(t, err, "[aaa zzz]")
}

func TestRegistryScanOrder(t *testing.T) {
	r := Default()

	t.Run("no unlisted present", func(t *testing.T) {
		assert.Equal(t, r.Order(), r.ScanOrder([]ID{MQL, NFS}))
	})

	t.Run("unlisted appended lexically", func(t *testing.T) {
		got := r.ScanOrder([]ID{ID("zeta"), MQL, ID("alpha")})
		want := append(r.Order(), ID("alpha"), ID("zeta"))
		assert.Equal(t, want, got)
	})
}

func TestOrderReturnsCopy(t *testing.T) {
	r := Default()
	order := r.Order()
	order[0] = ID("mutated")
	assert.Equal(t, NFS, r.Order()[0])
}
