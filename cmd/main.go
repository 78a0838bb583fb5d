package main

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/cameo-engineering/tonwallet"
	"github.com/kevinburke/nacl"
	"github.com/tonkeeper/tongo"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/exp/maps"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		log.Fatal(err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		log.Fatal(err)
	}

	words := strings.Fields(mnemonic)

	pub, _, err := tonwallet.DeriveKeyPair(words)
	if err != nil {
		log.Fatal(err)
	}
	pubkey := hex.EncodeToString(pub)

	storage := tonwallet.NewMemoryStorage()
	storage.SetAuth(pubkey, tonwallet.AuthState{Kind: tonwallet.AuthPassword, PublicKey: pubkey})
	encrypted, err := tonwallet.EncryptMnemonic(words, "hunter2")
	if err != nil {
		log.Fatal(err)
	}
	storage.SetEncryptedMnemonic(pubkey, encrypted)

	bus := tonwallet.NewBus()
	channel := tonwallet.NewPairedChannel(bus)

	// Stand-in for the UI password prompt.
	unsub := bus.Subscribe(tonwallet.TopicGetPassword, func(msg tonwallet.BusMessage) {
		go channel.Respond(msg.ID, "hunter2")
	})
	defer unsub()

	secrets := tonwallet.NewSecretProvider(storage, channel)
	factory := tonwallet.NewSignerFactory(storage, channel, secrets)

	signer, err := factory.CreateSigner(ctx, pubkey)
	if err != nil {
		log.Fatal(err)
	}

	cell := []byte("demo payload")
	switch s := signer.(type) {
	case *tonwallet.CellSigner:
		sig, err := s.SignCell(ctx, cell)
		if err != nil {
			log.Fatal(err)
		}
		hash := sha256.Sum256(cell)
		fmt.Printf("Signature valid: %t\n\n", ed25519.Verify(pub, hash[:], sig))
	case *tonwallet.LedgerSigner:
		log.Fatal("unexpected ledger signer for a password wallet")
	}

	wallet := tonwallet.Wallet{
		ID:        pubkey,
		PublicKey: pubkey,
		Address:   tongo.MustParseAccountID("0:0000000000000000000000000000000000000000000000000000000000000000"),
		Network:   -239,
	}

	dappKey := nacl.NewKey()
	link := demoConnectLink(dappKey)
	clientID, connreq, err := tonwallet.ParseConnectLink(link)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("dApp %s requests %d items\n\n", hex.EncodeToString(clientID[:]), len(connreq.Items))

	replies, err := tonwallet.BuildConnectReplies(ctx, wallet, connreq, signer, "demo.example.org")
	if err != nil {
		log.Fatal(err)
	}
	for _, reply := range replies {
		fmt.Printf("reply item: %s\n", reply.Name)
	}

	manager := tonwallet.NewConnectionManager(storage)
	err = manager.SaveConnection(ctx, wallet.ID, tonwallet.AccountConnection{
		ClientSessionID: hex.EncodeToString(clientID[:]),
		WalletID:        wallet.ID,
		ManifestURL:     connreq.ManifestURL,
		ConnectedAt:     time.Now(),
	})
	if err != nil {
		log.Fatal(err)
	}

	listed, err := manager.ListConnections(ctx, wallet.ID)
	if err != nil {
		log.Fatal(err)
	}
	for _, walletID := range maps.Keys(listed) {
		fmt.Printf("wallet %s has %d connection(s)\n", walletID, len(listed[walletID]))
	}

	deeplink, err := tonwallet.GenerateSignerDeeplink(pubkey, cell)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nSigner deeplink: %s\n\n", deeplink)
	if err := tonwallet.RenderPairingQR(deeplink); err != nil {
		log.Fatal(err)
	}

	removed, err := manager.DisconnectAll(ctx, wallet.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nDisconnected %d connection(s)\n", len(removed))
}

func demoConnectLink(dappKey nacl.Key) string {
	connreq := map[string]any{
		"manifestUrl": "https://demo.example.org/tonconnect-manifest.json",
		"items": []map[string]string{
			{"name": "ton_addr"},
			{"name": "ton_proof", "payload": "demo-nonce"},
		},
	}
	data, _ := json.Marshal(connreq)

	q := url.Values{}
	q.Set("v", "2")
	q.Set("id", hex.EncodeToString(dappKey[:]))
	q.Set("r", string(data))

	return "tc://?" + q.Encode()
}
