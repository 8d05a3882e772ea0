package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	require.NoError(t, ValidateUsername("alice"))
	require.NoError(t, ValidateUsername("alice_99"))
	require.Error(t, ValidateUsername("al"))
	require.Error(t, ValidateUsername("alice smith"))
	require.Error(t, ValidateUsername("alice@home"))
	require.Error(t, ValidateUsername(""))
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, ValidateEmail("alice@example.com"))
	require.Error(t, ValidateEmail("not-an-email"))
	require.Error(t, ValidateEmail(""))
}

func TestValidatePassword(t *testing.T) {
	require.NoError(t, ValidatePassword("longenough"))
	require.Error(t, ValidatePassword("short"))
}

func TestValidateColor(t *testing.T) {
	require.NoError(t, ValidateColor("#3b82f6"))
	require.NoError(t, ValidateColor("#FFAA00"))
	require.Error(t, ValidateColor("3b82f6"))
	require.Error(t, ValidateColor("#fff"))
	require.Error(t, ValidateColor("#gggggg"))
}
