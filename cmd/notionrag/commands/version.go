// ABOUTME: Build metadata for the binary and the command that prints it
// ABOUTME: The same version string is reported by /version and the MCP server
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo is stamped at link time by goreleaser
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

var versionInfo = VersionInfo{Version: "dev", Commit: "none", Date: "unknown", GoVersion: runtime.Version()}

// SetVersion records the link-time build metadata
func SetVersion(version, commit, date string) {
	versionInfo.Version, versionInfo.Commit, versionInfo.Date = version, commit, date
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("notionrag %s (commit %s, built %s, %s)", v.Version, v.Commit, v.Date, v.GoVersion)
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Long:  `Print the release, commit, build date and Go toolchain of this notionrag binary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantJSON() {
				return writeJSON(cmd.OutOrStdout(), versionInfo)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), versionInfo)
			return err
		},
	}
}
