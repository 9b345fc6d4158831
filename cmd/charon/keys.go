package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var keysFlags struct {
	length int
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage admin API keys",
	Long: `Generate keys for the admin API.

Mutating admin endpoints (unblock, reload, config) require the key in
the X-Admin-Key header once one is configured; without a key the admin
listener relies on its bind address for protection.

Subcommands:
  generate - Generate a new admin API key

Examples:
  # Generate a key
  charon keys generate`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new admin API key",
	Long: `Generate a cryptographically random admin API key.

The key is printed once, together with a SHA-256 fingerprint for telling
keys apart later and a ready-to-paste configuration snippet.

Examples:
  # Generate a key
  charon keys generate

  # Longer key
  charon keys generate --length 48`,
	RunE: generateKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().IntVar(&keysFlags.length, "length", 32, "key length in bytes before encoding")
}

func generateKey(cmd *cobra.Command, args []string) error {
	key, fingerprint, err := newAdminKey(keysFlags.length)
	if err != nil {
		return err
	}

	fmt.Println("Generating admin API key...")
	fmt.Println()
	fmt.Printf("Key:         %s\n", key)
	fmt.Printf("Fingerprint: %s\n", fingerprint)
	fmt.Println()
	fmt.Println("⚠️  Warning: the key is shown once; store it securely")
	fmt.Println()
	fmt.Println("Configuration snippet:")
	fmt.Println("admin:")
	fmt.Printf("  api_key: \"%s\"\n", key)

	return nil
}

// newAdminKey returns a random URL-safe key and its SHA-256 fingerprint.
func newAdminKey(length int) (string, string, error) {
	if length < 16 {
		return "", "", fmt.Errorf("key length must be at least 16 bytes")
	}

	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}

	key := base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(key))

	return key, "sha256:" + hex.EncodeToString(sum[:8]), nil
}
