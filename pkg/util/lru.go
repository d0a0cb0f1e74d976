package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig 用于配置LRU缓存的行为。
type CacheConfig struct {
	// Capacity 是缓存的最大元素数量，必须大于0。
	Capacity int
	// TTL 是元素的存活时间。如果为0，则元素永不过期。
	TTL time.Duration
}

// entry 结构体用于存储链表节点中的实际数据。
type entry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time // 元素的过期时间
}

// LRUCache 是一个支持泛型、可配置且线程安全的LRU缓存。
type LRUCache[K comparable, V any] struct {
	config CacheConfig
	ll     *list.List
	cache  map[K]*list.Element
	lock   sync.RWMutex // 读写锁保证并发安全
}

// NewWithConfig 使用指定的配置创建一个LRU缓存实例。
func NewWithConfig[K comparable, V any](config CacheConfig) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("必须设置大于0的 Capacity")
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		cache:  make(map[K]*list.Element),
	}, nil
}

// Get 方法根据键获取一个值。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.cache[key]
	if !ok {
		var zeroV V
		return zeroV, false
	}

	// 检查TTL是否过期（被动淘汰）
	entry := element.Value.(*entry[K, V])
	if c.config.TTL > 0 && time.Now().After(entry.expiration) {
		// 已过期，从缓存中移除
		c.removeElement(element)
		var zeroV V
		return zeroV, false
	}

	// 标记为最近使用
	c.ll.MoveToFront(element)
	return entry.value, true
}

// Put 方法向缓存中添加或更新一个键值对。
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	// 检查键是否已经存在
	if element, ok := c.cache[key]; ok {
		// --- 更新现有元素 ---
		entry := element.Value.(*entry[K, V])
		entry.value = value
		if c.config.TTL > 0 {
			entry.expiration = time.Now().Add(c.config.TTL)
		}
		c.ll.MoveToFront(element)
		return
	}

	// --- 插入新元素 ---
	newEntry := &entry[K, V]{
		key:   key,
		value: value,
	}
	if c.config.TTL > 0 {
		newEntry.expiration = time.Now().Add(c.config.TTL)
	}
	element := c.ll.PushFront(newEntry)
	c.cache[key] = element

	// 超出容量时淘汰最久未使用的元素
	for c.ll.Len() > c.config.Capacity {
		c.evict()
	}
}

// Remove 方法从缓存中删除一个键。
func (c *LRUCache[K, V]) Remove(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		c.removeElement(element)
	}
}

// evict 淘汰最久未使用的元素。
// 此方法假设已持有锁。
func (c *LRUCache[K, V]) evict() {
	backElement := c.ll.Back()
	if backElement != nil {
		c.removeElement(backElement)
	}
}

// removeElement 是一个内部辅助函数，用于从链表和map中移除元素。
// 此方法假设已持有锁。
func (c *LRUCache[K, V]) removeElement(e *list.Element) {
	c.ll.Remove(e)
	entry := e.Value.(*entry[K, V])
	delete(c.cache, entry.key)
}

// Len 返回当前缓存中的条目数量。
func (c *LRUCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.ll.Len()
}
