package peerchannel

import (
	"novapeer/blockchain"
	"novapeer/wire"
)

// SendVersion sends the handshake VERSION message.
func (pc *PeerChannel) SendVersion(p *wire.VersionPayload) error {
	return pc.send(&wire.Message{Type: wire.TypeVersion, Version: p})
}

// SendVerack acknowledges a received VERSION.
func (pc *PeerChannel) SendVerack() error {
	return pc.send(&wire.Message{Type: wire.TypeVerack})
}

// SendInv announces inventory the peer may want.
func (pc *PeerChannel) SendInv(vectors []wire.InventoryVector) error {
	return pc.send(&wire.Message{Type: wire.TypeInv, Inv: &wire.InvPayload{Vectors: vectors}})
}

// SendGetData requests the objects named by vectors.
func (pc *PeerChannel) SendGetData(vectors []wire.InventoryVector) error {
	return pc.send(&wire.Message{Type: wire.TypeGetData, GetData: &wire.InvPayload{Vectors: vectors}})
}

// SendGetHeader requests the sending of HEADER messages; it carries no
// payload beyond the frame header.
func (pc *PeerChannel) SendGetHeader() error {
	return pc.send(&wire.Message{Type: wire.TypeGetHeader})
}

// SendNotFound reports that the objects named by vectors could not be
// found.
func (pc *PeerChannel) SendNotFound(vectors []wire.InventoryVector) error {
	return pc.send(&wire.Message{Type: wire.TypeNotFound, NotFound: &wire.InvPayload{Vectors: vectors}})
}

// SendGetBlocks requests blocks descending from locator, stopping at
// hashStop.
func (pc *PeerChannel) SendGetBlocks(locator []blockchain.Hash, hashStop blockchain.Hash) error {
	return pc.send(&wire.Message{Type: wire.TypeGetBlocks, GetBlocks: &wire.GetBlocksPayload{Locator: locator, HashStop: hashStop}})
}

// SendBlock sends a full block.
func (pc *PeerChannel) SendBlock(b *blockchain.Block) error {
	return pc.send(&wire.Message{Type: wire.TypeBlock, Block: b})
}

// SendHeader sends a block header without its transaction payload.
func (pc *PeerChannel) SendHeader(h *blockchain.Header) error {
	return pc.send(&wire.Message{Type: wire.TypeHeader, Header: h})
}

// SendTx relays a single transaction.
func (pc *PeerChannel) SendTx(tx *blockchain.Transaction) error {
	return pc.send(&wire.Message{Type: wire.TypeTx, Tx: tx})
}

// SendMempool requests the peer's mempool contents via an INV reply; it
// carries no payload beyond the frame header.
func (pc *PeerChannel) SendMempool() error {
	return pc.send(&wire.Message{Type: wire.TypeMempool})
}

// SendReject reports that a previously received message of rejectedType
// was refused. Callers should generally prefer letting handleFrame generate
// this automatically for parse failures; use this directly only for
// semantic rejections of a successfully parsed message.
func (pc *PeerChannel) SendReject(rejectedType wire.Type, code wire.RejectCode, reason string) error {
	return pc.send(&wire.Message{Type: wire.TypeReject, Reject: &wire.RejectPayload{
		RejectedType: rejectedType,
		Code:         code,
		Reason:       reason,
	}})
}

// SendSubscribe declares which addresses (or all, if all is true) this peer
// wants inventory announcements for.
func (pc *PeerChannel) SendSubscribe(addresses []string, all bool) error {
	return pc.send(&wire.Message{Type: wire.TypeSubscribe, Subscribe: &wire.SubscribePayload{Addresses: addresses, All: all}})
}

// SendAddr shares known peer addresses.
func (pc *PeerChannel) SendAddr(addresses []string) error {
	return pc.send(&wire.Message{Type: wire.TypeAddr, Addr: &wire.AddrPayload{Addresses: addresses}})
}

// SendGetAddr requests a peer address list; it carries no payload beyond
// the frame header.
func (pc *PeerChannel) SendGetAddr() error {
	return pc.send(&wire.Message{Type: wire.TypeGetAddr})
}

// SendPing sends a liveness probe carrying nonce, to be echoed by PONG.
func (pc *PeerChannel) SendPing(nonce uint64) error {
	return pc.send(&wire.Message{Type: wire.TypePing, Ping: &wire.PingPongPayload{Nonce: nonce}})
}

// SendPong replies to a PING, echoing its nonce.
func (pc *PeerChannel) SendPong(nonce uint64) error {
	return pc.send(&wire.Message{Type: wire.TypePong, Pong: &wire.PingPongPayload{Nonce: nonce}})
}

// SendSignal relays an opaque signalling payload to recipientID via this
// already-connected peer.
func (pc *PeerChannel) SendSignal(senderID, recipientID string, nonce uint32, ttl uint8, payload []byte) error {
	return pc.send(&wire.Message{Type: wire.TypeSignal, Signal: &wire.SignalPayload{
		SenderID:    senderID,
		RecipientID: recipientID,
		Nonce:       nonce,
		TTL:         ttl,
		Payload:     payload,
	}})
}

// SendGetChainProof requests a proof of the current chain.
func (pc *PeerChannel) SendGetChainProof() error {
	return pc.send(&wire.Message{Type: wire.TypeGetChainProof, GetChainProof: &wire.GetChainProofPayload{}})
}

// SendChainProof replies with a chain proof.
func (pc *PeerChannel) SendChainProof(proof []byte) error {
	return pc.send(&wire.Message{Type: wire.TypeChainProof, ChainProof: &wire.ChainProofPayload{Proof: proof}})
}

// SendGetAccountsProof requests a proof of the given accounts' state as of
// blockHash.
func (pc *PeerChannel) SendGetAccountsProof(blockHash blockchain.Hash, addresses [][32]byte) error {
	return pc.send(&wire.Message{Type: wire.TypeGetAccountsProof, GetAccountsProof: &wire.GetAccountsProofPayload{
		BlockHash: blockHash,
		Addresses: addresses,
	}})
}

// SendAccountsProof replies with an accounts proof.
func (pc *PeerChannel) SendAccountsProof(blockHash blockchain.Hash, proof []byte) error {
	return pc.send(&wire.Message{Type: wire.TypeAccountsProof, AccountsProof: &wire.AccountsProofPayload{
		BlockHash: blockHash,
		Proof:     proof,
	}})
}

// SendGetAccountsTreeChunk requests one chunk of the accounts tree starting
// at startPrefix.
func (pc *PeerChannel) SendGetAccountsTreeChunk(blockHash blockchain.Hash, startPrefix string) error {
	return pc.send(&wire.Message{Type: wire.TypeGetAccountsTreeChunk, GetAccountsTreeChunk: &wire.GetAccountsTreeChunkPayload{
		BlockHash:   blockHash,
		StartPrefix: startPrefix,
	}})
}

// SendAccountsTreeChunk replies with one accounts tree chunk.
func (pc *PeerChannel) SendAccountsTreeChunk(chunk []byte) error {
	return pc.send(&wire.Message{Type: wire.TypeAccountsTreeChunk, AccountsTreeChunk: &wire.AccountsTreeChunkPayload{Chunk: chunk}})
}

// SendGetTransactionsProof requests a proof of addresses' transactions as
// of blockHash.
func (pc *PeerChannel) SendGetTransactionsProof(blockHash blockchain.Hash, addresses [][32]byte) error {
	return pc.send(&wire.Message{Type: wire.TypeGetTransactionsProof, GetTransactionsProof: &wire.GetTransactionsProofPayload{
		BlockHash: blockHash,
		Addresses: addresses,
	}})
}

// SendTransactionsProof replies with a transactions proof.
func (pc *PeerChannel) SendTransactionsProof(blockHash blockchain.Hash, proof []byte) error {
	return pc.send(&wire.Message{Type: wire.TypeTransactionsProof, TransactionsProof: &wire.TransactionsProofPayload{
		BlockHash: blockHash,
		Proof:     proof,
	}})
}

// SendGetTransactionReceipts requests address's transaction receipts.
func (pc *PeerChannel) SendGetTransactionReceipts(address [32]byte) error {
	return pc.send(&wire.Message{Type: wire.TypeGetTransactionReceipts, GetTransactionReceipts: &wire.GetTransactionReceiptsPayload{Address: address}})
}

// SendTransactionReceipts replies with a batch of transaction receipts.
func (pc *PeerChannel) SendTransactionReceipts(receipts []byte) error {
	return pc.send(&wire.Message{Type: wire.TypeTransactionReceipts, TransactionReceipts: &wire.TransactionReceiptsPayload{Receipts: receipts}})
}

// SendGetBlockProof requests a proof linking blockHashToProve back to
// knownBlockHash.
func (pc *PeerChannel) SendGetBlockProof(blockHashToProve, knownBlockHash blockchain.Hash) error {
	return pc.send(&wire.Message{Type: wire.TypeGetBlockProof, GetBlockProof: &wire.GetBlockProofPayload{
		BlockHashToProve: blockHashToProve,
		KnownBlockHash:   knownBlockHash,
	}})
}

// SendBlockProof replies with a block proof.
func (pc *PeerChannel) SendBlockProof(proof []byte) error {
	return pc.send(&wire.Message{Type: wire.TypeBlockProof, BlockProof: &wire.BlockProofPayload{Proof: proof}})
}

// SendGetHead requests the peer's current chain head.
func (pc *PeerChannel) SendGetHead() error {
	return pc.send(&wire.Message{Type: wire.TypeGetHead, GetHead: &wire.GetHeadPayload{}})
}

// SendHead replies with the current chain head header.
func (pc *PeerChannel) SendHead(h *blockchain.Header) error {
	return pc.send(&wire.Message{Type: wire.TypeHead, Head: h})
}
