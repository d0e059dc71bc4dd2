package permission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelToMatrix(t *testing.T) {
	tests := []struct {
		level Level
		want  CapabilityVector
	}{
		{Pull, CapabilityVector{Pull: true}},
		{Push, CapabilityVector{Pull: true, Push: true}},
		{Admin, CapabilityVector{Pull: true, Push: true, Admin: true}},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			got, err := LevelToMatrix(tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.False(t, got.Triage)
			assert.False(t, got.Maintain)
		})
	}
}

func TestLevelToMatrix_RejectsUnknownLevels(t *testing.T) {
	for _, l := range []Level{"", "write", "maintain", "PUSH"} {
		_, err := LevelToMatrix(l)
		require.Error(t, err, "level %q", l)
		assert.True(t, errors.Is(err, ErrInvalidLevel))
	}
}

func TestMatrixMonotonicity(t *testing.T) {
	levels := Levels()
	for i := range levels {
		for j := 0; j <= i; j++ {
			hi, err := LevelToMatrix(levels[i])
			require.NoError(t, err)
			lo, err := LevelToMatrix(levels[j])
			require.NoError(t, err)
			assert.True(t, hi.Dominates(lo), "%s should dominate %s", levels[i], levels[j])
			if i != j {
				assert.False(t, lo.Dominates(hi), "%s should not dominate %s", levels[j], levels[i])
			}
		}
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" Push ")
	require.NoError(t, err)
	assert.Equal(t, Push, l)

	_, err = ParseLevel("owner")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestCollaboratorView(t *testing.T) {
	observed := CapabilityVector{Pull: true, Push: true, Admin: true, Triage: true, Maintain: true}
	want, err := LevelToMatrix(Admin)
	require.NoError(t, err)

	assert.NotEqual(t, want, observed)
	assert.Equal(t, want, observed.Collaborator())
}

func TestVectorString(t *testing.T) {
	assert.Equal(t, "none", CapabilityVector{}.String())
	assert.Equal(t, "pull,push", CapabilityVector{Pull: true, Push: true}.String())
	assert.Equal(t, "none", Describe(nil))
}
