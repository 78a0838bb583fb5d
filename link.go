package tonwallet

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/kevinburke/nacl"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/terminal"
)

type linkOptions struct {
	ReturnStrategy string
}

type linkOption = func(*linkOptions)

const (
	versionKey     string = "v"
	versionVal     string = "2"
	idKey          string = "id"
	connReqKey     string = "r"
	retStrategyKey string = "ret"

	backRetStrategyID string = "back"
	noneRetStrategyID string = "none"

	urlScheme    string = "tc"
	signerScheme string = "tonsign"

	signerVersionVal string = "1"
	signerPkKey      string = "pk"
	signerBodyKey    string = "body"
)

// ParseConnectLink extracts the dApp client id and connect request from a
// tc:// or universal connect link scanned or opened by the wallet.
func ParseConnectLink(link string) (nacl.Key, *ConnectRequest, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, nil, fmt.Errorf("tonwallet: failed to parse connect link: %w", err)
	}

	q := u.Query()
	if q.Get(versionKey) != versionVal {
		return nil, nil, fmt.Errorf("tonwallet: unsupported connect link version %q", q.Get(versionKey))
	}

	clientID, err := nacl.Load(q.Get(idKey))
	if err != nil {
		return nil, nil, fmt.Errorf("tonwallet: failed to load dApp client ID: %w", err)
	}

	var connreq ConnectRequest
	if err := json.Unmarshal([]byte(q.Get(connReqKey)), &connreq); err != nil {
		return nil, nil, fmt.Errorf("tonwallet: failed to unmarshal connection request: %w", err)
	}

	return clientID, &connreq, nil
}

// GenerateSignerDeeplink builds the tonsign:// URI that hands a pending
// payload to the external signer application.
func GenerateSignerDeeplink(pubkey string, cell []byte, options ...linkOption) (string, error) {
	opts := &linkOptions{ReturnStrategy: backRetStrategyID}
	for _, opt := range options {
		opt(opts)
	}

	u, err := url.Parse(signerScheme + "://")
	if err != nil {
		return "", fmt.Errorf("tonwallet: failed to build signer deep link: %w", err)
	}

	q := u.Query()
	q.Set(versionKey, signerVersionVal)
	q.Set(signerPkKey, pubkey)
	q.Set(signerBodyKey, base64.URLEncoding.EncodeToString(cell))
	q.Set(retStrategyKey, opts.ReturnStrategy)
	u.RawQuery = q.Encode()

	link := u.String()
	// HACK:
	if strings.Contains(link, ":?") {
		link = strings.Replace(link, ":?", "://?", 1)
	}

	return link, nil
}

// RenderPairingQR draws a deep link as a terminal QR code for the signer
// device to scan.
func RenderPairingQR(link string) error {
	qrc, err := qrcode.New(link)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to build QR code: %w", err)
	}
	if err := qrc.Save(terminal.New()); err != nil {
		return fmt.Errorf("tonwallet: failed to render QR code: %w", err)
	}

	return nil
}

func WithBackReturnStrategy() linkOption {
	return func(opts *linkOptions) {
		opts.ReturnStrategy = backRetStrategyID
	}
}

func WithNoneReturnStrategy() linkOption {
	return func(opts *linkOptions) {
		opts.ReturnStrategy = noneRetStrategyID
	}
}

func WithURLReturnStrategy(url string) linkOption {
	return func(opts *linkOptions) {
		opts.ReturnStrategy = url
	}
}
