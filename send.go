package tonwallet

import (
	"encoding/json"
	"fmt"
	"time"
)

// Transaction is the structured payload a dApp submits for signing.
type Transaction struct {
	ValidUntil uint64    `json:"valid_until,omitempty"`
	Network    string    `json:"network,omitempty"`
	From       string    `json:"from,omitempty"`
	Messages   []Message `json:"messages"`
}

type Message struct {
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	Payload   []byte `json:"payload,omitempty"`
	StateInit []byte `json:"stateInit,omitempty"`
}

type txOpt = func(*Transaction)

type msgOpt = func(*Message)

// ParseTransactionRequest decodes the transaction carried by a
// sendTransaction request.
func ParseTransactionRequest(req *AppRequest) (*Transaction, error) {
	if req.Method != methodSendTransaction {
		return nil, fmt.Errorf("tonwallet: expected %q request, got %q", methodSendTransaction, req.Method)
	}
	if len(req.Params) == 0 {
		return nil, fmt.Errorf("tonwallet: %q request carries no params", methodSendTransaction)
	}

	var tx Transaction
	if err := json.Unmarshal([]byte(req.Params[0]), &tx); err != nil {
		return nil, fmt.Errorf("tonwallet: failed to unmarshal transaction: %w", err)
	}
	if len(tx.Messages) == 0 {
		return nil, fmt.Errorf("tonwallet: transaction carries no messages")
	}

	return &tx, nil
}

// Expired reports whether the transaction's validity window has passed.
func (tx *Transaction) Expired(now time.Time) bool {
	return tx.ValidUntil > 0 && uint64(now.Unix()) > tx.ValidUntil
}

func NewTransaction(options ...txOpt) (*Transaction, error) {
	tx := &Transaction{}
	for _, opt := range options {
		opt(tx)
	}

	return tx, nil
}

func NewMessage(address string, amount string, options ...msgOpt) (*Message, error) {
	msg := &Message{Address: address, Amount: amount}
	for _, opt := range options {
		opt(msg)
	}

	return msg, nil
}

func WithTimeout(timeout time.Duration) txOpt {
	return func(tx *Transaction) {
		tx.ValidUntil = uint64(time.Now().Add(timeout).Unix())
	}
}

func WithMainnet() txOpt {
	return func(tx *Transaction) {
		tx.Network = "-239"
	}
}

func WithTestnet() txOpt {
	return func(tx *Transaction) {
		tx.Network = "-3"
	}
}

func WithFrom(from string) txOpt {
	return func(tx *Transaction) {
		tx.From = from
	}
}

func WithMessage(msg Message) txOpt {
	return func(tx *Transaction) {
		tx.Messages = append(tx.Messages, msg)
	}
}

func WithPayload(payload []byte) msgOpt {
	return func(msg *Message) {
		msg.Payload = payload
	}
}

func WithStateInit(stateInit []byte) msgOpt {
	return func(msg *Message) {
		msg.StateInit = stateInit
	}
}
