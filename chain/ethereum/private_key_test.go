package ethereum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/root-relayer/crypto/secp256k1"
)

func TestResolvePrivateKeyFromFile(t *testing.T) {
	alice := secp256k1.Alice()
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte(hexutil.Encode(alice.Encode())+"\n"), 0o600))

	kp, err := ResolvePrivateKey("", path)
	require.NoError(t, err)
	assert.Equal(t, alice.CommonAddress(), kp.CommonAddress())
}

func TestResolvePrivateKeyPrefersFlag(t *testing.T) {
	bob := secp256k1.Bob()

	kp, err := ResolvePrivateKey(hexutil.Encode(bob.Encode()), "/does/not/exist")
	require.NoError(t, err)
	assert.Equal(t, bob.CommonAddress(), kp.CommonAddress())
}

func TestResolvePrivateKeyMissing(t *testing.T) {
	_, err := ResolvePrivateKey("", "")
	assert.Error(t, err)
}

func TestResolveSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api-key")
	require.NoError(t, os.WriteFile(path, []byte("  sponsor-key \n"), 0o600))

	v, err := ResolveSecret("", path)
	require.NoError(t, err)
	assert.Equal(t, "sponsor-key", v)

	v, err = ResolveSecret("inline", path)
	require.NoError(t, err)
	assert.Equal(t, "inline", v)

	v, err = ResolveSecret("", "")
	require.NoError(t, err)
	assert.Empty(t, v)
}
