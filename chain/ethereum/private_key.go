package ethereum

import (
	"fmt"
	"os"
	"strings"

	"github.com/snowfork/root-relayer/crypto/secp256k1"
)

func ResolvePrivateKey(privateKey, privateKeyFile string) (*secp256k1.Keypair, error) {
	var cleanedKey string

	if privateKey == "" {
		if privateKeyFile == "" {
			return nil, fmt.Errorf("private key not supplied")
		}
		contentBytes, err := os.ReadFile(privateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		cleanedKey = strings.TrimPrefix(strings.TrimSpace(string(contentBytes)), "0x")
	} else {
		cleanedKey = strings.TrimPrefix(privateKey, "0x")
	}

	keypair, err := secp256k1.NewKeypairFromString(cleanedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return keypair, nil
}

// ResolveSecret returns value, or the trimmed contents of file when value is
// empty. Used for relay API keys.
func ResolveSecret(value, file string) (string, error) {
	if value != "" {
		return value, nil
	}
	if file == "" {
		return "", nil
	}
	contentBytes, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to load secret: %w", err)
	}
	return strings.TrimSpace(string(contentBytes)), nil
}
