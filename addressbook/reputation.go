// Package addressbook tracks peer reputation and enforces a ban-on-malformed
// policy deliberately kept outside the messaging core: PeerChannel reports
// why a connection closed, and Book turns a run of bad closes into a ban
// without ever feeding back into another REJECT.
package addressbook

import (
	"sync"
	"time"

	"novapeer/peerchannel"
)

// Reputation score bounds.
const (
	MaxReputation     = 100
	MinReputation     = -100
	InitialReputation = 50

	BanThreshold        = -50
	SuspiciousThreshold = 0
	TrustedThreshold    = 75

	BanDuration = 1 * time.Hour
)

// scoreDelta maps a PeerChannel close reason to a reputation adjustment.
// CloseNormal and CloseTimeout are mild; CloseFailedToParseMessageType and
// CloseProtocolViolation are the strongest malformed-data signals and score
// the hardest.
var scoreDelta = map[peerchannel.CloseType]int{
	peerchannel.CloseNormal:                   0,
	peerchannel.CloseTimeout:                  -10,
	peerchannel.CloseNetworkError:              -3,
	peerchannel.CloseInvalidMessage:            -15,
	peerchannel.CloseFailedToParseMessageType:  -25,
	peerchannel.CloseProtocolViolation:         -20,
	peerchannel.CloseManualBan:                 MinReputation,
}

// PeerReputation tracks one peer's behavior score and ban state.
type PeerReputation struct {
	NodeID      string
	Address     string
	Score       int
	CloseCounts map[peerchannel.CloseType]int
	FirstSeen   time.Time
	LastSeen    time.Time
	BannedUntil time.Time
	IsBanned    bool
}

// Book is the address book's reputation store.
type Book struct {
	mu     sync.RWMutex
	peers  map[string]*PeerReputation // nodeID -> reputation
	banned map[string]time.Time       // address -> ban expiry

	stop chan struct{}
}

// NewBook creates a Book and starts its ban-expiry cleanup loop.
func NewBook() *Book {
	b := &Book{
		peers:  make(map[string]*PeerReputation),
		banned: make(map[string]time.Time),
		stop:   make(chan struct{}),
	}
	go b.cleanupLoop()
	return b
}

// Close stops the cleanup loop.
func (b *Book) Close() {
	close(b.stop)
}

func (b *Book) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.cleanupExpiredBans()
		case <-b.stop:
			return
		}
	}
}

func (b *Book) cleanupExpiredBans() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for addr, expiry := range b.banned {
		if now.After(expiry) {
			delete(b.banned, addr)
		}
	}
	for _, rep := range b.peers {
		if rep.IsBanned && now.After(rep.BannedUntil) {
			rep.IsBanned = false
			rep.Score = InitialReputation
		}
	}
}

// GetOrCreate returns the existing reputation for nodeID, or creates one
// seeded at InitialReputation.
func (b *Book) GetOrCreate(nodeID, address string) *PeerReputation {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rep, ok := b.peers[nodeID]; ok {
		rep.LastSeen = time.Now()
		return rep
	}

	rep := &PeerReputation{
		NodeID:      nodeID,
		Address:     address,
		Score:       InitialReputation,
		CloseCounts: make(map[peerchannel.CloseType]int),
		FirstSeen:   time.Now(),
		LastSeen:    time.Now(),
	}
	b.peers[nodeID] = rep
	return rep
}

// Get returns the stored reputation for nodeID, if any.
func (b *Book) Get(nodeID string) (*PeerReputation, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rep, ok := b.peers[nodeID]
	return rep, ok
}

// RecordClose is the sole entry point address book callers use: it takes
// the CloseType a PeerChannel reported for nodeID and adjusts reputation
// accordingly, banning the peer's address if the score crosses BanThreshold.
// It never triggers any outbound message, so it cannot itself contribute to
// a reject loop.
func (b *Book) RecordClose(nodeID string, reason peerchannel.CloseType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rep, ok := b.peers[nodeID]
	if !ok {
		return
	}

	rep.CloseCounts[reason]++
	rep.Score += scoreDelta[reason]

	if rep.Score > MaxReputation {
		rep.Score = MaxReputation
	}
	if rep.Score < MinReputation {
		rep.Score = MinReputation
	}

	if rep.Score <= BanThreshold && !rep.IsBanned {
		rep.IsBanned = true
		rep.BannedUntil = time.Now().Add(BanDuration)
		b.banned[rep.Address] = rep.BannedUntil
	}
}

// IsBanned reports whether nodeID is currently banned.
func (b *Book) IsBanned(nodeID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if rep, ok := b.peers[nodeID]; ok {
		return rep.IsBanned && time.Now().Before(rep.BannedUntil)
	}
	return false
}

// IsAddressBanned reports whether address is currently banned, independent
// of which nodeID last used it.
func (b *Book) IsAddressBanned(address string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if expiry, ok := b.banned[address]; ok {
		return time.Now().Before(expiry)
	}
	return false
}

// BanPeer manually bans nodeID for duration.
func (b *Book) BanPeer(nodeID string, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rep, ok := b.peers[nodeID]; ok {
		rep.IsBanned = true
		rep.BannedUntil = time.Now().Add(duration)
		b.banned[rep.Address] = rep.BannedUntil
	}
}

// UnbanPeer lifts a ban and resets nodeID's score to InitialReputation.
func (b *Book) UnbanPeer(nodeID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rep, ok := b.peers[nodeID]; ok {
		rep.IsBanned = false
		delete(b.banned, rep.Address)
		rep.Score = InitialReputation
	}
}

// IsTrusted reports whether nodeID's score is at or above TrustedThreshold.
func (b *Book) IsTrusted(nodeID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if rep, ok := b.peers[nodeID]; ok {
		return rep.Score >= TrustedThreshold
	}
	return false
}

// Stats summarizes the address book's current population.
type Stats struct {
	TotalPeers      int
	TrustedPeers    int
	SuspiciousPeers int
	BannedPeers     int
	AverageScore    int
}

// Stats computes a snapshot of the book's population.
func (b *Book) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := Stats{TotalPeers: len(b.peers)}

	total := 0
	for _, rep := range b.peers {
		total += rep.Score
		if rep.Score >= TrustedThreshold {
			stats.TrustedPeers++
		}
		if rep.Score < SuspiciousThreshold {
			stats.SuspiciousPeers++
		}
		if rep.IsBanned {
			stats.BannedPeers++
		}
	}

	if stats.TotalPeers > 0 {
		stats.AverageScore = total / stats.TotalPeers
	}

	return stats
}
