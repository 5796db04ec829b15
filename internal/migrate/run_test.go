package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions_Ordered(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_users", "0002_restaurants"}, versions)
}
