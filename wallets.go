package tonwallet

import (
	"slices"
)

// SignerApp is an external signer application reachable by deep link or QR.
type SignerApp struct {
	Name         string `json:"name"`
	UniversalURL string `json:"universal_url"`
	Scheme       string `json:"scheme"`
}

var SignerApps = map[string]SignerApp{
	"tonkeeper-signer": {
		Name:         "Signer",
		UniversalURL: "https://signer.tonkeeper.com",
		Scheme:       signerScheme,
	},
}

// Bridges the wallet listens on by default.
var DefaultBridgeURLs = []string{
	"https://bridge.tonapi.io/bridge",
	"https://tonconnectbridge.mytonwallet.org/bridge",
	"https://connect.tonhubapi.com/tonconnect",
}

func dedupeBridgeURLs(urls ...string) []string {
	bridges := append([]string(nil), urls...)
	slices.Sort(bridges)

	return slices.Compact(bridges)
}
