package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	b := Get()
	require.NotEmpty(t, b.Version)
	require.NotEmpty(t, b.Commit)
	require.NotEmpty(t, b.Date)
}

func TestBuildFormatting(t *testing.T) {
	b := Build{Version: "1.2.0", Commit: "abc123", Date: "2025-06-01"}

	require.Equal(t, "version=1.2.0 commit=abc123 date=2025-06-01", b.String())
	fields := b.Fields()
	require.Equal(t, "1.2.0", fields["version"])
	require.Equal(t, "abc123", fields["commit"])
	require.Equal(t, "2025-06-01", fields["build_date"])
}
