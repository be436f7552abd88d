package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString_IncludesAllFields(t *testing.T) {
	orig := [3]string{Version, GitCommit, BuildTime}
	t.Cleanup(func() { Version, GitCommit, BuildTime = orig[0], orig[1], orig[2] })

	Version, GitCommit, BuildTime = "v1.2.3", "abc123", "2024-03-01"
	require.Equal(t, "blogbuilder v1.2.3 (commit abc123, built 2024-03-01)", String())
}

func TestDefaults_NotEmpty(t *testing.T) {
	require.NotEmpty(t, Version)
	require.NotEmpty(t, GitCommit)
	require.NotEmpty(t, BuildTime)
}
