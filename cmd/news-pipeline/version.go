// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/pdiddy/news-pipeline/internal/tokenize"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of news-pipeline",
	Long: `Version prints the build version, the Go toolchain and platform, the VCS
revision when the binary was built from a checkout, and the stopword
languages the normalizer supports.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		printVersion(os.Stdout, short)
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, version)
		return
	}
	fmt.Fprintf(w, "news-pipeline %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if rev := vcsRevision(); rev != "" {
		fmt.Fprintf(w, "revision:  %s\n", rev)
	}
	fmt.Fprintf(w, "languages: %v\n", tokenize.Languages())
}

// vcsRevision returns the commit the binary was built from, if recorded.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
