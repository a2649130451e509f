package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const orderNumberPrefix = "YK"

// OrderNumberGenerator produces "YK" + YYYYMMDD + a random 4-digit suffix (0001-9999).
// Uniqueness is enforced by the store, not here.
type OrderNumberGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

func (g *OrderNumberGenerator) Next() string {
	g.mu.Lock()
	suffix := 1 + g.rnd.Intn(9999)
	g.mu.Unlock()
	return fmt.Sprintf("%s%s%04d", orderNumberPrefix, g.now().Format("20060102"), suffix)
}
