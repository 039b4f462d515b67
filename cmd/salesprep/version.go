package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"salesprep/internal/config"
)

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(c.stdout, "%s %s (%s, %s/%s)\n",
				config.AppName, config.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
