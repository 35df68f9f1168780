package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rollcall/go-rollcall-server/device"
	"github.com/spf13/cobra"
)

var (
	deviceServerURL  string
	deviceUserID     string
	deviceDir        string
	devicePassphrase string
	deviceAssumeYes  bool

	checkinToken string
	checkinLat   float64
	checkinLng   float64
)

func init() {
	home, _ := os.UserHomeDir()
	defaultDir := filepath.Join(home, ".rollcall")

	deviceCmd.PersistentFlags().StringVar(&deviceServerURL, "server", "http://localhost:8080", "attendance server base URL")
	deviceCmd.PersistentFlags().StringVar(&deviceUserID, "user", "", "user id")
	deviceCmd.PersistentFlags().StringVar(&deviceDir, "dir", defaultDir, "keystore directory")
	deviceCmd.PersistentFlags().StringVar(&devicePassphrase, "passphrase", "", "keystore passphrase")
	deviceCmd.PersistentFlags().BoolVar(&deviceAssumeYes, "yes", false, "skip the confirmation prompt")

	checkinCmd.Flags().StringVar(&checkinToken, "token", "", "session token")
	checkinCmd.Flags().Float64Var(&checkinLat, "lat", 0, "device latitude")
	checkinCmd.Flags().Float64Var(&checkinLng, "lng", 0, "device longitude")
	checkinCmd.MarkFlagRequired("token")
	checkinCmd.MarkFlagRequired("lat")
	checkinCmd.MarkFlagRequired("lng")

	deviceCmd.AddCommand(identityCmd)
	deviceCmd.AddCommand(registerCmd)
	deviceCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(deviceCmd)
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Device-side client commands",
	Long:  "Manage the device signing key and submit signed attendance proofs",
}

// newDeviceIdentity wires the file keystore and the confirmation gate
func newDeviceIdentity() (*device.Identity, error) {
	if deviceUserID == "" {
		return nil, fmt.Errorf("--user is required")
	}
	if devicePassphrase == "" {
		return nil, fmt.Errorf("--passphrase is required")
	}
	store, err := device.NewFileKeyStore(deviceDir)
	if err != nil {
		return nil, err
	}
	deviceID, dErr := store.DeviceID()
	if dErr != nil {
		return nil, dErr
	}
	var gate device.BiometricGate = device.NewTerminalGate(os.Stdin, os.Stdout)
	if deviceAssumeYes {
		gate = device.NewStubGate()
	}
	return device.NewIdentity(store, gate, deviceServerURL, deviceUserID, deviceID), nil
}

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Create or show the device signing key",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := newDeviceIdentity()
		check(err)
		publicKey, pErr := id.EnsureIdentity(devicePassphrase)
		check(pErr)
		fmt.Printf("public key (base64): %s\n", publicKey)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the device key with the server",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := newDeviceIdentity()
		check(err)
		_, eErr := id.EnsureIdentity(devicePassphrase)
		check(eErr)
		check(id.Login(devicePassphrase))
		saved, rErr := id.RegisterPublicKey()
		check(rErr)
		fmt.Printf("registered key for %s (device %s)\n", saved.UserID, saved.DeviceID)
	},
}

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Sign and submit an attendance proof",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := newDeviceIdentity()
		check(err)
		check(id.Login(devicePassphrase))
		verified, cErr := id.CheckIn(devicePassphrase, checkinToken, checkinLat, checkinLng)
		check(cErr)
		fmt.Printf("attendance recorded: %s (%dm from session center)\n", verified.RecordID, verified.DistanceMeters)
	},
}
