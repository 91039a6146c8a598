package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestFull(t *testing.T) {
	require.Contains(t, Full(), Version)
	require.Contains(t, Full(), Commit)
}

func TestVersionCommand(t *testing.T) {
	root := &cobra.Command{Use: "kit-booth"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	require.Equal(t, Full(), strings.TrimSpace(out.String()))
}
