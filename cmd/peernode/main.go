// Command peernode is a minimal demo node: it listens for inbound
// WebSocket peer connections, optionally dials one outbound peer, and
// performs the VERSION/VERACK handshake before relaying PING/PONG
// keepalives. It exists to exercise wire/datachannel/peerchannel/ws end to
// end, the way novacoin's own main.go exercised core/p2p end to end.
package main

import (
	"encoding/hex"
	"flag"
	"log"
	"net/http"
	"time"

	"novapeer/addressbook"
	"novapeer/blockchain"
	"novapeer/datachannel"
	"novapeer/identity"
	"novapeer/peerchannel"
	"novapeer/transport/ws"
	"novapeer/wire"
)

const protocolVersion = 1

func main() {
	listen := flag.String("listen", "", "address to listen for inbound WebSocket peers, e.g. :8989")
	connect := flag.String("connect", "", "ws:// URL of one outbound peer to dial")
	genkey := flag.Bool("genkey", false, "generate a node keypair and exit")
	flag.Parse()

	if *genkey {
		kp, err := identity.GenerateKeyPair()
		if err != nil {
			log.Fatalf("genkey: %v", err)
		}
		log.Printf("node id: %s", kp.NodeID())
		log.Printf("private key: %s", hex.EncodeToString(kp.PrivateKey))
		return
	}

	kp, err := identity.GenerateKeyPair()
	if err != nil {
		log.Fatalf("generate node identity: %v", err)
	}
	log.Printf("🔑 node id: %s", kp.NodeID())

	book := addressbook.NewBook()
	defer book.Close()

	if *connect != "" {
		go dialPeer(*connect, kp, book)
	}

	if *listen != "" {
		serveListener(*listen, kp, book)
	} else if *connect == "" {
		log.Fatal("peernode: pass -listen and/or -connect")
	} else {
		select {}
	}
}

func serveListener(addr string, kp *identity.KeyPair, book *addressbook.Book) {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t, err := ws.Upgrade(w, r)
		if err != nil {
			log.Printf("⚠️ upgrade failed: %v", err)
			return
		}
		pc := bootstrapPeer(t, kp, book)
		log.Printf("🤝 inbound peer connected")
		sendVersion(pc, kp)
	})

	log.Printf("📡 listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func dialPeer(url string, kp *identity.KeyPair, book *addressbook.Book) {
	t, err := ws.Dial(url)
	if err != nil {
		log.Printf("🚫 dial %s failed: %v", url, err)
		return
	}
	pc := bootstrapPeer(t, kp, book)
	log.Printf("🤝 outbound peer connected to %s", url)

	sendVersion(pc, kp)
}

func bootstrapPeer(t datachannel.Transport, kp *identity.KeyPair, book *addressbook.Book) *peerchannel.PeerChannel {
	dc := datachannel.New(t)
	pc := peerchannel.New(dc, "")

	pc.On(wire.TypeVersion, func(msg *wire.Message) {
		pc.SetNodeID(msg.Version.NodeID)
		book.GetOrCreate(msg.Version.NodeID, "")
		if err := pc.SendVerack(); err != nil {
			log.Printf("⚠️ send verack: %v", err)
		}
	})

	pc.On(wire.TypePing, func(msg *wire.Message) {
		if err := pc.SendPong(msg.Ping.Nonce); err != nil {
			log.Printf("⚠️ send pong: %v", err)
		}
	})

	pc.On(wire.TypePong, func(msg *wire.Message) {
		log.Printf("🏓 pong nonce=%d", msg.Pong.Nonce)
	})

	pc.On(wire.TypeReject, func(msg *wire.Message) {
		log.Printf("🚫 peer rejected %s: %s", msg.Reject.RejectedType, msg.Reject.Reason)
	})

	pc.OnClose(func(reason peerchannel.CloseType, err error) {
		if id := pc.NodeID(); id != "" {
			book.RecordClose(id, reason)
		}
		log.Printf("🔌 peer closed: %s (%v)", reason, err)
	})

	go keepalive(pc)

	return pc
}

func sendVersion(pc *peerchannel.PeerChannel, kp *identity.KeyPair) {
	err := pc.SendVersion(&wire.VersionPayload{
		ProtocolVersion: protocolVersion,
		NodeID:          kp.NodeID(),
		GenesisHash:     blockchain.Hash{},
		HeadHash:        blockchain.Hash{},
		Height:          0,
		Timestamp:       time.Now().UnixNano(),
		UserAgent:       "peernode/0.1",
	})
	if err != nil {
		log.Printf("⚠️ send version: %v", err)
		return
	}
	pc.ExpectMessage(wire.TypeVerack, 10*time.Second)
}

func keepalive(pc *peerchannel.PeerChannel) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	var nonce uint64
	for range ticker.C {
		nonce++
		if err := pc.SendPing(nonce); err != nil {
			return
		}
	}
}
