package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitebase/deployctl/internal/core/domain"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const pinnedManifest = `# production dependencies
fastapi==0.110.0
uvicorn==0.29.0

requests==2.31.0  # http client
`

const mixedManifest = `
fastapi>=0.110
pydantic~=2.6
httpx
`

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_PinnedManifest(t *testing.T) {
	set, err := Parse("requirements.txt", pinnedManifest)
	require.NoError(t, err)

	require.Len(t, set.Dependencies, 3)
	assert.Equal(t, "requirements.txt", set.ManifestPath)
	assert.True(t, set.Pinned())

	assert.Equal(t, domain.Dependency{Name: "fastapi", Operator: "==", Version: "0.110.0"}, set.Dependencies[0])
	assert.Equal(t, domain.Dependency{Name: "requests", Operator: "==", Version: "2.31.0"}, set.Dependencies[2])
}

func TestParse_PreservesManifestOrder(t *testing.T) {
	set, err := Parse("requirements.txt", mixedManifest)
	require.NoError(t, err)

	names := make([]string, 0, len(set.Dependencies))
	for _, d := range set.Dependencies {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"fastapi", "pydantic", "httpx"}, names)
	assert.False(t, set.Pinned())
}

func TestParse_OperatorVariants(t *testing.T) {
	tests := []struct {
		line     string
		operator string
		version  string
	}{
		{"pkg==1.0.0", "==", "1.0.0"},
		{"pkg===1.0.0", "===", "1.0.0"},
		{"pkg>=1.0", ">=", "1.0"},
		{"pkg<=2.0", "<=", "2.0"},
		{"pkg!=1.5", "!=", "1.5"},
		{"pkg~=1.4", "~=", "1.4"},
		{"pkg>1.0", ">", "1.0"},
		{"pkg<2.0", "<", "2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			set, err := Parse("requirements.txt", tt.line)
			require.NoError(t, err)
			require.Len(t, set.Dependencies, 1)
			assert.Equal(t, "pkg", set.Dependencies[0].Name)
			assert.Equal(t, tt.operator, set.Dependencies[0].Operator)
			assert.Equal(t, tt.version, set.Dependencies[0].Version)
		})
	}
}

func TestParse_EmptyManifest(t *testing.T) {
	_, err := Parse("requirements.txt", "# nothing here\n\n")
	assert.ErrorIs(t, err, ErrEmptyManifest)
}

func TestParse_MalformedLine(t *testing.T) {
	_, err := Parse("requirements.txt", "requests==\n")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)
	assert.ErrorIs(t, err, domain.ErrDependencyVersionEmpty)
	assert.Contains(t, parseErr.Error(), "requirements.txt:1")
}

func TestParse_WhitespaceAroundConstraint(t *testing.T) {
	set, err := Parse("requirements.txt", "  requests == 2.31.0  \n")
	require.NoError(t, err)
	require.Len(t, set.Dependencies, 1)
	assert.Equal(t, "requests", set.Dependencies[0].Name)
	assert.Equal(t, "2.31.0", set.Dependencies[0].Version)
}
