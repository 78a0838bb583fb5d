package tonwallet

import (
	"context"
	"fmt"

	"github.com/tonkeeper/tongo"
)

// ConnectRequest enumerates the items a dApp asks for when pairing.
type ConnectRequest struct {
	ManifestURL string        `json:"manifestUrl"`
	Items       []ConnectItem `json:"items"`
}

type ConnectItem struct {
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
}

const (
	tonAddrName  string = "ton_addr"
	tonProofName string = "ton_proof"
)

// Wallet is the identity the connect replies are issued for.
type Wallet struct {
	ID        string
	PublicKey string
	Address   tongo.AccountID
	Network   int64
	StateInit []byte
}

// BuildConnectReplies answers every requested connect item. ton_addr comes
// straight from the wallet state; ton_proof is signed through the Signer.
// Items the wallet cannot serve carry an item-level error instead of failing
// the whole connect.
func BuildConnectReplies(ctx context.Context, w Wallet, req *ConnectRequest, signer Signer, domain string) ([]ConnectItemReply, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, fmt.Errorf("tonwallet: connect request carries no items")
	}

	replies := make([]ConnectItemReply, 0, len(req.Items))
	for _, item := range req.Items {
		switch item.Name {
		case tonAddrName:
			replies = append(replies, ConnectItemReply{
				Name:            tonAddrName,
				Address:         w.Address.ToRaw(),
				Network:         w.Network,
				PublicKey:       w.PublicKey,
				WalletStateInit: w.StateInit,
			})

		case tonProofName:
			cs, ok := signer.(*CellSigner)
			if !ok {
				replies = append(replies, ConnectItemReply{
					Name:  tonProofName,
					Error: &ItemError{Code: codeMethodNotSupported, Message: "proof signing is not supported by this signer"},
				})
				continue
			}
			proof, err := BuildProof(ctx, w, cs, domain, item.Payload)
			if err != nil {
				return nil, err
			}
			replies = append(replies, ConnectItemReply{Name: tonProofName, Proof: proof})

		default:
			replies = append(replies, ConnectItemReply{
				Name:  item.Name,
				Error: &ItemError{Code: codeBadRequest, Message: fmt.Sprintf("unknown connect item %q", item.Name)},
			})
		}
	}

	return replies, nil
}

// NewConnectEvent wraps connect replies into the event pushed back to the
// dApp.
func NewConnectEvent(id uint64, device *DeviceInfo, items []ConnectItemReply) *WalletEvent {
	return &WalletEvent{
		ID:      id,
		Event:   "connect",
		Payload: WalletEventPayload{Device: device, Items: items},
	}
}

// NewConnectErrorEvent reports a declined or failed pairing.
func NewConnectErrorEvent(id, code uint64, message string) *WalletEvent {
	return &WalletEvent{
		ID:      id,
		Event:   "connect_error",
		Payload: WalletEventPayload{Code: code, Message: message},
	}
}
