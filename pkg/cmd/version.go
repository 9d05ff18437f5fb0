package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yeisme/fileuploader/pkg/configs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fileuploader %s (commit %s, built %s, %s %s/%s)\n",
			configs.AppVersion, configs.GitCommit, configs.BuildTime,
			runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// registerVersionCommands 注册 version 命令.
func registerVersionCommands() {
	rootCmd.AddCommand(versionCmd)
}
