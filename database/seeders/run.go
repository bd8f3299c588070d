// Package seeders holds the idempotent seed functions that load the
// starter catalogue. Each seeder registers itself from init() and must be
// safe to run any number of times.
package seeders

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/pkg/logger"
)

// SeederFunc inserts rows and reports how many it created.
type SeederFunc func(ctx context.Context, db *gorm.DB) (int, error)

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder. Seeders run in registration order.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// RunAll executes every registered seeder and returns rows created per
// seeder. It stops on the first error.
func RunAll(ctx context.Context, db *gorm.DB) (map[string]int, error) {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	created := make(map[string]int, len(current))
	for _, e := range current {
		n, err := e.fn(ctx, db.WithContext(ctx))
		if err != nil {
			return created, fmt.Errorf("seeder %q: %w", e.name, err)
		}
		created[e.name] = n
		logger.WithCtx(ctx).Info("seeder: done", "name", e.name, "created", n)
	}
	return created, nil
}
