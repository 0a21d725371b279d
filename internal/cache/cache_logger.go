package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BancaStatsKey is the stats cache key for one user within one banca
func BancaStatsKey(userID, bancaID string) string {
	return fmt.Sprintf("user:%s:banca:%s", userID, bancaID)
}

// BancaListKey is the banca cache key for a listing
func BancaListKey(activeOnly bool) string {
	if activeOnly {
		return "list:active"
	}
	return "list:all"
}

// InvalidateBancaCache drops a banca and every listing
func InvalidateBancaCache(ctx context.Context, cm *CacheManager, bancaID string) {
	SafeDelete(ctx, cm.Banca, fmt.Sprintf("id:%s", bancaID))
	SafeInvalidatePattern(ctx, cm.Banca, "list:*")
}

// InvalidateBancaStatsCache drops the cached stats of one user within one banca
func InvalidateBancaStatsCache(ctx context.Context, cm *CacheManager, userID, bancaID string) {
	SafeDelete(ctx, cm.Stats, BancaStatsKey(userID, bancaID))
}

