package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/penwyp/ClawDeck/output"
)

var (
	versionOutput string
	versionShort  bool
)

// Version information set by linker during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Compiler  string `json:"compiler"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for ClawDeck including build details and the Go runtime.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		versionInfo := VersionInfo{
			Version:   Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			Compiler:  runtime.Compiler,
		}

		out := cmd.OutOrStdout()
		if versionShort {
			return outputVersionShort(out, versionInfo)
		}
		switch versionOutput {
		case "json":
			return outputVersionJSON(out, versionInfo)
		case "short":
			return outputVersionShort(out, versionInfo)
		default:
			return outputVersionDefault(out, versionInfo)
		}
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "default", "output format (default, json, short)")
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "show only version number")

	rootCmd.AddCommand(versionCmd)
}

func outputVersionDefault(w io.Writer, info VersionInfo) error {
	fmt.Fprintln(w, "ClawDeck - gateway dashboard")
	fmt.Fprintf(w, "Version:     %s\n", info.Version)
	if info.GitCommit != "unknown" {
		fmt.Fprintf(w, "Git Commit:  %s\n", info.GitCommit)
	}
	if info.BuildTime != "unknown" {
		fmt.Fprintf(w, "Build Time:  %s\n", info.BuildTime)
	}
	fmt.Fprintf(w, "Go Version:  %s\n", info.GoVersion)
	fmt.Fprintf(w, "OS/Arch:     %s/%s\n", info.OS, info.Arch)
	fmt.Fprintf(w, "Compiler:    %s\n", info.Compiler)
	return nil
}

func outputVersionJSON(w io.Writer, info VersionInfo) error {
	return output.WriteJSON(w, info)
}

func outputVersionShort(w io.Writer, info VersionInfo) error {
	fmt.Fprintln(w, info.Version)
	return nil
}
