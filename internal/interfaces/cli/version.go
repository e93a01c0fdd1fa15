package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo is what the version command prints.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func (v VersionInfo) String() string {
	return "patentdesk " + v.Version + " (commit: " + v.Commit + ", built: " + v.BuildDate + ", " + v.GoVersion + ")"
}

// NewVersionCommand prints build information. It needs no configuration.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Overrides the root hook so no config is loaded.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("output")
			return PrintResult(cmd.OutOrStdout(), format, VersionInfo{
				Version:   info.Version,
				Commit:    info.Commit,
				BuildDate: info.BuildDate,
				GoVersion: runtime.Version(),
			})
		},
	}
}
