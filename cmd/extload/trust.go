package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/extload/extload/trust"
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Manage pinned module image digests",
}

var trustPinCmd = &cobra.Command{
	Use:   "pin <module-name> <module-path>",
	Short: "Pin the current digest of a module image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTrustStore()
		if err != nil {
			return err
		}
		digest, err := store.Pin(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("pinned %s sha256:%s\n", args[0], digest)
		return nil
	},
}

var trustVerifyCmd = &cobra.Command{
	Use:   "verify <module-name> <module-path>",
	Short: "Verify a module image against its pinned digest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTrustStore()
		if err != nil {
			return err
		}
		if err := store.Verify(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s matches pinned digest\n", args[0])
		return nil
	},
}

func init() {
	trustCmd.AddCommand(trustPinCmd)
	trustCmd.AddCommand(trustVerifyCmd)
}

func openTrustStore() (*trust.Store, error) {
	return trust.Open(viper.GetString("trust.service"))
}
