package load

import (
	"context"
	"fmt"
	"strings"

	"github.com/farxc/entidades-sync/internal/logger"
	"github.com/farxc/entidades-sync/internal/reconcile/converter"
	"github.com/farxc/entidades-sync/internal/reconcile/schema"
	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/farxc/entidades-sync/internal/store"
)

// DuplicatePolicy decides what happens when one identifier appears on more
// than one row of the same file.
type DuplicatePolicy string

const (
	// DuplicateReject fails the sync before the store is touched.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateKeepLast keeps the last row for each identifier.
	DuplicateKeepLast DuplicatePolicy = "last"
)

func ParseDuplicatePolicy(name string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case "", DuplicateReject:
		return DuplicateReject, nil
	case DuplicateKeepLast:
		return DuplicateKeepLast, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q (want %s or %s)", name, DuplicateReject, DuplicateKeepLast)
	}
}

// SyncTable upserts a canonical table into the entities store.
func SyncTable(ctx context.Context, table types.CanonicalTable, storage *store.Storage, policy DuplicatePolicy, appLogger *logger.Logger) (store.SyncResult, error) {
	const component = "Loader"
	appLogger.Info(component, "Starting sync: variant=%s rows=%d policy=%s", table.Variant, table.Len(), policy)

	entities, dropped, err := dedupe(converter.DfToEntities(table.Dataframe), policy)
	if err != nil {
		appLogger.Error(component, "Sync aborted before writing: %v", err)
		return store.SyncResult{}, err
	}
	if dropped > 0 {
		appLogger.Warn(component, "Dropped %d earlier rows with repeated identifiers", dropped)
	}

	result, err := storage.Entities.Upsert(ctx, entities)
	result.DuplicatesDropped = dropped
	if err != nil {
		appLogger.Error(component, "Sync rolled back: %v", err)
		return result, err
	}

	appLogger.Info(component, "Sync completed: staged=%d updated=%d inserted=%d", result.Staged, result.Updated, result.Inserted)
	return result, nil
}

// dedupe applies policy to repeated identifiers. Kept rows stay in their
// original order, each at the position of its last occurrence.
func dedupe(entities []store.Entity, policy DuplicatePolicy) ([]store.Entity, int, error) {
	last := make(map[string]int, len(entities))
	var repeated []string
	for i, e := range entities {
		id := e[schema.KeyField].(string)
		if _, seen := last[id]; seen {
			repeated = append(repeated, id)
		}
		last[id] = i
	}

	if len(repeated) == 0 {
		return entities, 0, nil
	}
	if policy != DuplicateKeepLast {
		return nil, 0, &types.DuplicateKeyError{Keys: uniqueStrings(repeated)}
	}

	kept := make([]store.Entity, 0, len(last))
	for i, e := range entities {
		if last[e[schema.KeyField].(string)] == i {
			kept = append(kept, e)
		}
	}
	return kept, len(entities) - len(kept), nil
}

func uniqueStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
