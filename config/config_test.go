package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressHookFunc(t *testing.T) {
	var out struct {
		Target common.Address `mapstructure:"target"`
		Name   string         `mapstructure:"name"`
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: AddressHookFunc(),
		Result:     &out,
	})
	require.NoError(t, err)

	err = decoder.Decode(map[string]interface{}{
		"target": "0x00000000000000000000000000000000000000aa",
		"name":   "hub",
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xaa"), out.Target)
	assert.Equal(t, "hub", out.Name)
}

func TestAddressHookFuncRejectsGarbage(t *testing.T) {
	var out struct {
		Target common.Address `mapstructure:"target"`
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: AddressHookFunc(),
		Result:     &out,
	})
	require.NoError(t, err)

	assert.Error(t, decoder.Decode(map[string]interface{}{"target": "0xnope"}))
}

func TestHexDecodeString(t *testing.T) {
	b, err := HexDecodeString("0xabc")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0xbc}, b)
}

func TestDecodeHook(t *testing.T) {
	var out struct {
		Timeout time.Duration  `mapstructure:"timeout"`
		Oracle  common.Address `mapstructure:"oracle"`
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &out,
	})
	require.NoError(t, err)

	err = decoder.Decode(map[string]interface{}{
		"timeout": "45s",
		"oracle":  "0xdfe97868233d1aa22e815a266982f2cf17685a27",
	})
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, out.Timeout)
	assert.Equal(t, common.HexToAddress("0xdfe97868233d1aa22e815a266982f2cf17685a27"), out.Oracle)
}
