package app

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/lu-zhengda/topsenders/internal/provider"
	"go.uber.org/zap"
)

// DefaultScanMax is how many messages the unsubscribe scan looks at.
const DefaultScanMax = 100

// UnsubscribeListing is every unsubscribe target advertised by one message.
type UnsubscribeListing struct {
	MessageID string
	Links     []string
}

// ScanUnsubscribeLinks lists up to limit messages matching q and returns those
// carrying a List-Unsubscribe header. Messages whose headers cannot be
// fetched are logged and skipped.
func ScanUnsubscribeLinks(ctx context.Context, ms provider.MailStore, retrier *pacing.Retrier, logger *zap.Logger, q domain.Query, limit int) ([]UnsubscribeListing, error) {
	if limit <= 0 {
		limit = DefaultScanMax
	}
	if retrier == nil {
		retrier = pacing.NoRetry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scan")

	refs, err := NewPaginator(ms, retrier).Drain(ctx, q, limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var out []UnsubscribeListing
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var headers map[string]string
		err := retrier.Do(ctx, func() error {
			var err error
			headers, err = ms.GetMessageHeaders(ctx, ref.ID, []string{provider.HeaderListUnsubscribe})
			return err
		})
		if err != nil {
			logger.Warn("failed to fetch headers", zap.String("message_id", ref.ID), zap.Error(err))
			continue
		}
		links := SplitUnsubscribeHeader(headers[provider.HeaderListUnsubscribe])
		if len(links) == 0 {
			continue
		}
		out = append(out, UnsubscribeListing{MessageID: ref.ID, Links: links})
	}
	return out, nil
}
