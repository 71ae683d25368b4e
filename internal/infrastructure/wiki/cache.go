package wiki

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
)

const memberCacheSize = 64

// MemberCache remembers category listings for a while. Article content is never cached.
type MemberCache struct {
	next  ports.Encyclopedia
	cache *expirable.LRU[string, []domain.ArticleRef]
}

var _ ports.Encyclopedia = (*MemberCache)(nil)

// NewMemberCache wraps next; ttl must be positive.
func NewMemberCache(next ports.Encyclopedia, ttl time.Duration) *MemberCache {
	return &MemberCache{
		next:  next,
		cache: expirable.NewLRU[string, []domain.ArticleRef](memberCacheSize, nil, ttl),
	}
}

func (m *MemberCache) CategoryMembers(ctx context.Context, category domain.Category, limit int) ([]domain.ArticleRef, error) {
	key := fmt.Sprintf("%s|%d", category, limit)
	if refs, ok := m.cache.Get(key); ok {
		return refs, nil
	}
	refs, err := m.next.CategoryMembers(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, refs)
	return refs, nil
}

func (m *MemberCache) FetchContent(ctx context.Context, id int64) (domain.ArticleContent, error) {
	return m.next.FetchContent(ctx, id)
}
