package connectors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/root-relayer/chain"
)

func TestPolygonBuildArgs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exit-payload/"+sendTx.Hex(), r.URL.Path)
		assert.Equal(t, messageSentSignature.Hex(), r.URL.Query().Get("eventSignature"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"0xf90c2bb90298"}`))
	}))
	defer server.Close()

	args, err := NewPolygon(server.URL, 0).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{common.FromHex("0xf90c2bb90298")}, args)
}

func TestPolygonNotCheckpointed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":true,"message":"Burn transaction has not been checkpointed as yet"}`))
	}))
	defer server.Close()

	_, err := NewPolygon(server.URL, 0).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	assert.True(t, errors.Is(err, ErrNotProvable))
	assert.Contains(t, err.Error(), "checkpointed")
}

func TestPolygonBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":true,"message":"Invalid event signature"}`))
	}))
	defer server.Close()

	_, err := NewPolygon(server.URL, 0).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotProvable))
}

func TestPolygonEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewPolygon(server.URL, 0).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	assert.Error(t, err)
}
