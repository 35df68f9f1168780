package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func check(e error) {
	if e != nil {
		fmt.Printf("%v\n", e.Error())
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "rollcall",
	Short:   "Rollcall is a location and device-key bound attendance service",
	Long:    `Rollcall verifies cryptographically signed attendance proofs: a device-held Ed25519 key signs the session token, timestamp and location, and the server checks the signature against the registered key inside the session's geofence and time window.`,
	Version: "0.1.0",
	Run: func(cmd *cobra.Command, args []string) {
		// empty
	},
}

func main() {
	Execute()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
