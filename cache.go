package val

import (
	"math"
	"sync"
	"time"
)

//simple in memory cache with TTL; shared by sources that hit the same feed
//for more than one state or location

var cacheInstance *CacheInstance
var cacheSingletonLock = new(sync.Mutex)

var Cache = initCache()

type CacheInstance struct {
	entries    map[string]*CacheEntry
	globalLock *sync.Mutex
}

func initCache() *CacheInstance {
	cacheSingletonLock.Lock()
	defer cacheSingletonLock.Unlock()

	if cacheInstance == nil {
		cacheInstance = new(CacheInstance)
		cacheInstance.entries = make(map[string]*CacheEntry)
		cacheInstance.globalLock = new(sync.Mutex)
	}

	return cacheInstance
}

type CacheEntry struct {
	Value  interface{}
	Expiry int64
	Lock   *sync.Mutex
}

func newCacheEntry() *CacheEntry {
	newEntry := new(CacheEntry)
	newEntry.Value = nil
	newEntry.Expiry = math.MaxInt64
	newEntry.Lock = new(sync.Mutex)

	return newEntry
}

func (c *CacheInstance) getOrCreate(key string) *CacheEntry {
	c.globalLock.Lock()
	defer c.globalLock.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.entries[key] = newCacheEntry()
	}

	return c.entries[key]
}

func (c *CacheInstance) GetOrLock(key string) interface{} {
	entry := c.getOrCreate(key)

	entry.Lock.Lock()

	if entry.Value == nil || entry.Expiry < time.Now().Unix() {
		entry.Value = nil
		return nil //return with lock held, presumably caller will put and unlock
	} else {
		defer entry.Lock.Unlock()
		return entry.Value
	}
}

func (c *CacheInstance) Unlock(key string) {
	entry := c.getOrCreate(key)

	entry.Lock.Unlock()
}

func (c *CacheInstance) Put(key string, value interface{}, ttl int64) {
	entry := c.getOrCreate(key)

	entry.Value = value

	if ttl > 0 {
		entry.Expiry = time.Now().Unix() + ttl
	} else {
		entry.Expiry = math.MaxInt64
	}
}

func (c *CacheInstance) Destroy() {
	c.globalLock.Lock()
	defer c.globalLock.Unlock()

	c.entries = make(map[string]*CacheEntry)
}
