package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
)

func mustStar(t *testing.T, name string, x float64) Body {
	t.Helper()
	b, err := NewSceneBody(name, core.NewVec3(x, 0, 0), SolarMass, 1e10, core.NewVec3(1, 1, 1))
	require.NoError(t, err)
	return b
}

func TestNewCatalog(t *testing.T) {
	bh, err := NewBlackHole(SagittariusAMass)
	require.NoError(t, err)

	cat, err := NewCatalog(bh, mustStar(t, "a", 4e11), mustStar(t, "b", -4e11))
	require.NoError(t, err)

	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, bh, cat.BlackHole())

	all := cat.All()
	require.Len(t, all, 3)
	assert.Equal(t, KindBlackHole, all[0].Kind)
	assert.Equal(t, "a", all[1].Name)
	assert.Equal(t, "b", all[2].Name)
}

func TestNewCatalog_Rejects(t *testing.T) {
	bh, err := NewBlackHole(SagittariusAMass)
	require.NoError(t, err)
	star := mustStar(t, "a", 4e11)

	t.Run("scene body in hole slot", func(t *testing.T) {
		_, err := NewCatalog(star)
		assert.ErrorIs(t, err, ErrInvalidBody)
	})
	t.Run("zero value hole", func(t *testing.T) {
		_, err := NewCatalog(Body{})
		assert.ErrorIs(t, err, ErrInvalidBody)
	})
	t.Run("second black hole", func(t *testing.T) {
		_, err := NewCatalog(bh, bh)
		assert.ErrorIs(t, err, ErrInvalidBody)
	})
	t.Run("hand built body", func(t *testing.T) {
		_, err := NewCatalog(bh, Body{Kind: KindSceneBody, Name: "x", Mass: 1})
		assert.ErrorIs(t, err, ErrInvalidBody)
	})
	t.Run("duplicate names", func(t *testing.T) {
		_, err := NewCatalog(bh, star, mustStar(t, "a", -4e11))
		assert.ErrorIs(t, err, ErrInvalidBody)
	})
}

func TestCatalog_BodiesIsACopy(t *testing.T) {
	bh, err := NewBlackHole(SagittariusAMass)
	require.NoError(t, err)
	cat, err := NewCatalog(bh, mustStar(t, "a", 4e11))
	require.NoError(t, err)

	bodies := cat.Bodies()
	bodies[0].Name = "mutated"

	assert.Equal(t, "a", cat.Bodies()[0].Name)
}

func TestCatalog_WithBody(t *testing.T) {
	bh, err := NewBlackHole(SagittariusAMass)
	require.NoError(t, err)
	cat, err := NewCatalog(bh, mustStar(t, "a", 4e11))
	require.NoError(t, err)

	grown, err := cat.WithBody(mustStar(t, "b", -4e11))
	require.NoError(t, err)

	assert.Equal(t, 2, cat.Len(), "original catalog is unchanged")
	assert.Equal(t, 3, grown.Len())

	_, err = grown.WithBody(mustStar(t, "b", 1e11))
	assert.ErrorIs(t, err, ErrInvalidBody)
}
