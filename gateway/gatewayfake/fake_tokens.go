package fakegateway

import (
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-story-client/board"
	"github.com/jrsteele09/go-story-client/token"
)

var _ board.Tokens = (*sequentialTokens)(nil)

// sequentialTokens hands out opaque tokens "T1", "T2", ... in issue order.
type sequentialTokens struct {
	now    func() time.Time
	lock   sync.RWMutex
	next   int
	issued map[string]*token.Claims
}

func newSequentialTokens(now func() time.Time) *sequentialTokens {
	return &sequentialTokens{now: now, issued: make(map[string]*token.Claims)}
}

func (st *sequentialTokens) Issue(username string) (string, error) {
	issuedAt := st.now()

	st.lock.Lock()
	defer st.lock.Unlock()
	st.next++
	raw := fmt.Sprintf("T%d", st.next)
	st.issued[raw] = &token.Claims{
		Subject:   username,
		ID:        raw,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(token.DefaultExpiry),
	}
	return raw, nil
}

func (st *sequentialTokens) Verify(raw string) (*token.Claims, error) {
	st.lock.RLock()
	defer st.lock.RUnlock()
	claims, ok := st.issued[raw]
	if !ok {
		return nil, token.ErrInvalidToken
	}
	c := *claims
	return &c, nil
}

func (st *sequentialTokens) Revoke(claims *token.Claims) error {
	if claims == nil {
		return nil
	}
	st.lock.Lock()
	defer st.lock.Unlock()
	delete(st.issued, claims.ID)
	return nil
}

// Expire forgets raw, as if the service stopped accepting it.
func (st *sequentialTokens) Expire(raw string) {
	st.lock.Lock()
	defer st.lock.Unlock()
	delete(st.issued, raw)
}
