package app

import (
	"context"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/lu-zhengda/topsenders/internal/provider"
)

// Paginator drains a store query into a complete id list.
type Paginator struct {
	store   provider.MailStore
	retrier *pacing.Retrier
}

// NewPaginator returns a Paginator. A nil retrier disables retries.
func NewPaginator(store provider.MailStore, retrier *pacing.Retrier) *Paginator {
	if retrier == nil {
		retrier = pacing.NoRetry()
	}
	return &Paginator{store: store, retrier: retrier}
}

// Drain follows continuation tokens until the store runs out, a page comes
// back empty, or hardCap ids have been collected. hardCap <= 0 means no cap.
// The last page is clipped so the result never exceeds hardCap.
func (p *Paginator) Drain(ctx context.Context, q domain.Query, pageSize, hardCap int) ([]domain.MessageRef, error) {
	if pageSize <= 0 || pageSize > provider.MaxPageSize {
		pageSize = provider.MaxPageSize
	}
	query := q.String()

	var (
		refs      []domain.MessageRef
		pageToken string
	)
	for hardCap <= 0 || len(refs) < hardCap {
		limit := pageSize
		if hardCap > 0 {
			limit = min(limit, hardCap-len(refs))
		}

		var page provider.Page
		err := p.retrier.Do(ctx, func() error {
			var err error
			page, err = p.store.ListMessages(ctx, query, pageToken, limit)
			return err
		})
		if err != nil {
			return nil, &domain.StoreError{Op: "list messages", ID: query, Err: err}
		}

		ids := page.IDs
		if hardCap > 0 && len(refs)+len(ids) > hardCap {
			ids = ids[:hardCap-len(refs)]
		}
		for _, id := range ids {
			refs = append(refs, domain.MessageRef{ID: id})
		}

		if page.NextPageToken == "" || len(page.IDs) == 0 {
			break
		}
		pageToken = page.NextPageToken
	}
	return refs, nil
}
