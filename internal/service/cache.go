package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/enexview/internal/model"
)

// SessionCache keeps recently read sessions in memory so list and detail
// requests for the same import do not hit the database each time. A nil
// cache is valid and disables caching.
type SessionCache struct {
	lru *expirable.LRU[string, *model.ImportSession]
}

func NewSessionCache(size int, ttl time.Duration) *SessionCache {
	if size <= 0 {
		return nil
	}
	return &SessionCache{
		lru: expirable.NewLRU[string, *model.ImportSession](size, nil, ttl),
	}
}

func (c *SessionCache) Get(importID string) *model.ImportSession {
	if c == nil {
		return nil
	}
	session, ok := c.lru.Get(importID)
	if !ok {
		return nil
	}
	return session
}

func (c *SessionCache) Add(importID string, session *model.ImportSession) {
	if c == nil {
		return
	}
	c.lru.Add(importID, session)
}

func (c *SessionCache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
