package tonwallet

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/kevinburke/nacl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectLink(t *testing.T) {
	dappKey := nacl.NewKey()
	connreq := ConnectRequest{
		ManifestURL: "https://dapp.example.org/manifest.json",
		Items:       []ConnectItem{{Name: "ton_addr"}, {Name: "ton_proof", Payload: "nonce"}},
	}
	data, err := json.Marshal(connreq)
	require.NoError(t, err)

	q := url.Values{}
	q.Set("v", "2")
	q.Set("id", hex.EncodeToString(dappKey[:]))
	q.Set("r", string(data))

	clientID, parsed, err := ParseConnectLink("tc://?" + q.Encode())
	require.NoError(t, err)
	assert.Equal(t, dappKey[:], clientID[:])
	assert.Equal(t, connreq.ManifestURL, parsed.ManifestURL)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "ton_proof", parsed.Items[1].Name)
}

func TestParseConnectLinkRejectsBadInput(t *testing.T) {
	_, _, err := ParseConnectLink("tc://?v=1&id=00&r={}")
	require.Error(t, err, "unsupported version")

	_, _, err = ParseConnectLink("tc://?v=2&id=zz&r={}")
	require.Error(t, err, "bad client id")

	dappKey := nacl.NewKey()
	_, _, err = ParseConnectLink("tc://?v=2&id=" + hex.EncodeToString(dappKey[:]) + "&r=not-json")
	require.Error(t, err, "bad request payload")
}

func TestGenerateSignerDeeplink(t *testing.T) {
	cell := []byte("pending payload")
	link, err := GenerateSignerDeeplink("pk1", cell)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, signerScheme+"://"), "got %q", link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "1", q.Get("v"))
	assert.Equal(t, "pk1", q.Get("pk"))
	assert.Equal(t, "back", q.Get("ret"))

	body, err := base64.URLEncoding.DecodeString(q.Get("body"))
	require.NoError(t, err)
	assert.Equal(t, cell, body)
}

func TestGenerateSignerDeeplinkReturnStrategies(t *testing.T) {
	link, err := GenerateSignerDeeplink("pk1", []byte{1}, WithNoneReturnStrategy())
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "none", u.Query().Get("ret"))

	link, err = GenerateSignerDeeplink("pk1", []byte{1}, WithURLReturnStrategy("https://wallet.example.org/back"))
	require.NoError(t, err)
	u, err = url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https://wallet.example.org/back", u.Query().Get("ret"))
}

func TestDedupeBridgeURLs(t *testing.T) {
	urls := dedupeBridgeURLs(
		"https://bridge.tonapi.io/bridge",
		"https://connect.tonhubapi.com/tonconnect",
		"https://bridge.tonapi.io/bridge",
	)
	assert.Len(t, urls, 2)
}
