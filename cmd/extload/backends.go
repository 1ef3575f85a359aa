package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/extload/extload/loader"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List available loader backends on this build",
	Run: func(cmd *cobra.Command, args []string) {
		names := loader.ListRegisteredBackends()
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
	},
}
