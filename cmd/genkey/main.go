package main

import (
	"flag"
	"fmt"
	"os"

	"creditgate/internal/storage"
)

// genkey prints a fresh base64 vault master key for the
// VAULT_MASTER_KEY environment variable.
func main() {
	size := flag.Int("size", 32, "key size in bytes (16, 24, or 32)")
	flag.Parse()

	key, err := storage.GenerateVaultKey(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(key)
}
