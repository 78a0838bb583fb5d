package tonwallet

// Wire shapes exchanged with dApps over the bridge.

// Methods a dApp may invoke on the wallet.
const (
	methodSendTransaction string = "sendTransaction"
	methodDisconnect      string = "disconnect"
)

// AppRequest is a decrypted request from a connected dApp.
type AppRequest struct {
	ID     string   `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
}

// AppResponse is the wallet's reply to one AppRequest.
type AppResponse struct {
	ID     string     `json:"id"`
	Result string     `json:"result,omitempty"`
	Error  *ItemError `json:"error,omitempty"`
}

// ItemError carries a protocol error code and message.
type ItemError struct {
	Code    uint64 `json:"code"`
	Message string `json:"message"`
}

// Protocol error codes shared by replies and item errors.
const (
	codeBadRequest         uint64 = 1
	codeUserDeclined       uint64 = 300
	codeMethodNotSupported uint64 = 400
)

// WalletEvent is an event pushed from the wallet to a dApp (connect result,
// disconnect notice).
type WalletEvent struct {
	ID      uint64             `json:"id,omitempty"`
	Event   string             `json:"event,omitempty"`
	Payload WalletEventPayload `json:"payload,omitempty"`
}

type WalletEventPayload struct {
	Code    uint64             `json:"code,omitempty"`
	Message string             `json:"message,omitempty"`
	Device  *DeviceInfo        `json:"device,omitempty"`
	Items   []ConnectItemReply `json:"items,omitempty"`
}

// DeviceInfo describes the wallet application in a connect event.
type DeviceInfo struct {
	Platform           string    `json:"platform"`
	AppName            string    `json:"appName"`
	AppVersion         string    `json:"appVersion"`
	MaxProtocolVersion uint64    `json:"maxProtocolVersion"`
	Features           []Feature `json:"features"`
}

type Feature struct {
	Name        string `json:"name"`
	MaxMessages uint64 `json:"maxMessages,omitempty"`
}

// ConnectItemReply answers one requested connect item.
type ConnectItemReply struct {
	Name            string     `json:"name"`
	Address         string     `json:"address,omitempty"`
	Network         int64      `json:"network,string,omitempty"`
	PublicKey       string     `json:"publicKey,omitempty"`
	WalletStateInit []byte     `json:"walletStateInit,omitempty"`
	Proof           *Proof     `json:"proof,omitempty"`
	Error           *ItemError `json:"error,omitempty"`
}
