package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joripage/matchcore/pkg/eventbus"
	"github.com/joripage/matchcore/pkg/gateway"
	"go.uber.org/zap"
)

// Handler persists trade events consumed from the trade topic.
type Handler struct {
	repo TradeRepo
}

func NewHandler(repo TradeRepo) *Handler {
	return &Handler{repo: repo}
}

// HandleBatch stores every decodable trade of the batch in one insert. Bodies
// that fail to decode are logged and dropped; a store error is returned so the
// consumer retries the batch.
func (h *Handler) HandleBatch(ctx context.Context, batch []eventbus.Message) error {
	records := make([]*TradeRecord, 0, len(batch))
	for _, m := range batch {
		var ev gateway.TradeEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.TradeID == "" {
			zap.S().Warnw("drop trade event",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
				"err", err)
			continue
		}
		records = append(records, FromTradeEvent(ev))
	}
	if len(records) == 0 {
		return nil
	}

	if _, err := h.repo.BulkCreate(ctx, records); err != nil {
		return fmt.Errorf("store %d trades: %w", len(records), err)
	}
	zap.S().Debugf("stored %d trades", len(records))
	return nil
}
