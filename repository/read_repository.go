package repository

import (
	"context"

	"github.com/eakyurek/bostan/models"
)

// ReadRepository, mesaj okunma durumu için interface.
//
// readBy kümesi monoton büyür: MarkRead yalnızca ekler, hiçbir işlem
// kümeden eleman çıkarmaz. Tekrarlanan MarkRead çağrıları no-op'tur.
type ReadRepository interface {
	MarkRead(ctx context.Context, conversationID, messageID, userID string) error
	GetUnreadCounts(ctx context.Context, userID string) ([]models.UnreadInfo, error)
}
