// Package netsync implements the gossip protocol: the wire message sum
// type, the peer/server collaborator boundary, and the worker dispatcher
// that drives block and transaction propagation, orphan reconciliation,
// and signature verification (spec.md §4.5/§6).
package netsync

import (
	"github.com/pkg/errors"

	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/dusktypes"
	"github.com/duskchain/duskchain/internal/nodeerrors"
	"github.com/duskchain/duskchain/internal/wire"
)

// Kind tags which of the eight message variants a Message carries.
type Kind byte

const (
	KindPing Kind = iota
	KindPong
	KindNewBlockHashes
	KindGetBlocks
	KindBlocks
	KindNewTransactionHashes
	KindGetTransactions
	KindTransactions
)

// Message is the gossip protocol's sum type (spec.md §6). Exactly one of
// the fields relevant to Kind is populated; constructors below keep this
// from the caller's perspective.
type Message struct {
	Kind Kind

	Nonce        string                      // Ping, Pong
	Hashes       []duskcrypto.H256           // NewBlockHashes, GetBlocks, NewTransactionHashes, GetTransactions
	Blocks       []dusktypes.Block           // Blocks
	Transactions []dusktypes.SignedTransaction // Transactions
}

func Ping(nonce string) Message { return Message{Kind: KindPing, Nonce: nonce} }
func Pong(nonce string) Message { return Message{Kind: KindPong, Nonce: nonce} }

func NewBlockHashes(hs []duskcrypto.H256) Message {
	return Message{Kind: KindNewBlockHashes, Hashes: hs}
}

func GetBlocks(hs []duskcrypto.H256) Message {
	return Message{Kind: KindGetBlocks, Hashes: hs}
}

func Blocks(bs []dusktypes.Block) Message {
	return Message{Kind: KindBlocks, Blocks: bs}
}

func NewTransactionHashes(hs []duskcrypto.H256) Message {
	return Message{Kind: KindNewTransactionHashes, Hashes: hs}
}

func GetTransactions(hs []duskcrypto.H256) Message {
	return Message{Kind: KindGetTransactions, Hashes: hs}
}

func Transactions(txs []dusktypes.SignedTransaction) Message {
	return Message{Kind: KindTransactions, Transactions: txs}
}

// Encode serializes m using the node's canonical wire codec: a one-byte
// kind tag followed by the kind-specific payload.
func (m Message) Encode() []byte {
	e := wire.NewEncoder()
	e.Fixed([]byte{byte(m.Kind)})

	switch m.Kind {
	case KindPing, KindPong:
		e.String(m.Nonce)
	case KindNewBlockHashes, KindGetBlocks, KindNewTransactionHashes, KindGetTransactions:
		e.Len(len(m.Hashes))
		for _, h := range m.Hashes {
			e.Fixed(h[:])
		}
	case KindBlocks:
		e.Len(len(m.Blocks))
		for _, b := range m.Blocks {
			e.LenPrefixedBytes(b.Encode())
		}
	case KindTransactions:
		e.Len(len(m.Transactions))
		for _, tx := range m.Transactions {
			e.LenPrefixedBytes(tx.Encode())
		}
	}
	return e.Bytes()
}

// DecodeMessage parses the wire encoding produced by Message.Encode.
func DecodeMessage(b []byte) (Message, error) {
	d := wire.NewDecoder(b)
	kind := Kind(d.Fixed(1)[0])

	var m Message
	m.Kind = kind

	switch kind {
	case KindPing, KindPong:
		m.Nonce = d.String()
	case KindNewBlockHashes, KindGetBlocks, KindNewTransactionHashes, KindGetTransactions:
		n := d.Len()
		m.Hashes = make([]duskcrypto.H256, n)
		for i := range m.Hashes {
			m.Hashes[i] = duskcrypto.BytesToH256(d.Fixed(duskcrypto.H256Size))
		}
	case KindBlocks:
		n := d.Len()
		m.Blocks = make([]dusktypes.Block, n)
		for i := range m.Blocks {
			blockBytes := d.LenPrefixedBytes()
			b, err := decodeBlock(blockBytes)
			if err != nil {
				return Message{}, err
			}
			m.Blocks[i] = b
		}
	case KindTransactions:
		n := d.Len()
		m.Transactions = make([]dusktypes.SignedTransaction, n)
		for i := range m.Transactions {
			txBytes := d.LenPrefixedBytes()
			tx, err := decodeSignedTransaction(txBytes)
			if err != nil {
				return Message{}, err
			}
			m.Transactions[i] = tx
		}
	default:
		return Message{}, errors.Wrapf(nodeerrors.ErrUnknownMessageKind, "kind %d", kind)
	}

	if d.Err() != nil {
		return Message{}, errors.Wrap(nodeerrors.ErrMalformedMessage, d.Err().Error())
	}
	return m, nil
}

func decodeBlock(b []byte) (dusktypes.Block, error) {
	d := wire.NewDecoder(b)
	var header dusktypes.Header
	header.Parent = duskcrypto.BytesToH256(d.Fixed(duskcrypto.H256Size))
	header.Nonce = d.Uint32()
	header.Difficulty = duskcrypto.BytesToH256(d.Fixed(duskcrypto.H256Size))
	header.Timestamp = d.Uint128()
	header.MerkleRoot = duskcrypto.BytesToH256(d.Fixed(duskcrypto.H256Size))

	n := d.Len()
	data := make([]dusktypes.SignedTransaction, n)
	for i := range data {
		txBytes := d.LenPrefixedBytes()
		tx, err := decodeSignedTransaction(txBytes)
		if err != nil {
			return dusktypes.Block{}, err
		}
		data[i] = tx
	}

	if d.Err() != nil {
		return dusktypes.Block{}, errors.Wrap(nodeerrors.ErrMalformedMessage, d.Err().Error())
	}
	return dusktypes.Block{Header: header, Content: dusktypes.Content{Data: data}}, nil
}

func decodeSignedTransaction(b []byte) (dusktypes.SignedTransaction, error) {
	d := wire.NewDecoder(b)
	var st dusktypes.SignedTransaction
	st.Tx.Recipient = duskcrypto.BytesToH160(d.Fixed(duskcrypto.H160Size))
	st.Tx.Value = d.Uint32()
	st.Tx.AccountNonce = d.Uint16()
	st.PublicKey = d.LenPrefixedBytes()
	st.Signature = d.LenPrefixedBytes()
	st.SenderAddr = duskcrypto.BytesToH160(d.Fixed(duskcrypto.H160Size))

	if d.Err() != nil {
		return dusktypes.SignedTransaction{}, errors.Wrap(nodeerrors.ErrMalformedMessage, d.Err().Error())
	}
	return st, nil
}
