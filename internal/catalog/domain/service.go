package domain

import (
	"context"
	"time"

	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
)

// Lookup TTLs. Items change more often than the chart of accounts and the
// other master data.
const (
	ItemTTL       = 12 * time.Hour
	MasterDataTTL = 36 * time.Hour
)

// Catalog resolves ERP master data by business code. Every method returns
// found=false with a nil error when the ERP has no match.
type Catalog interface {
	ItemID(ctx context.Context, sess exactdomain.Session, sku string) (string, bool, error)
	// CostItemID resolves the per-country cost item, e.g. "Versand AT".
	CostItemID(ctx context.Context, sess exactdomain.Session, prefix, country string) (string, bool, error)
	GLAccountID(ctx context.Context, sess exactdomain.Session, code string) (string, bool, error)
	PriceListID(ctx context.Context, sess exactdomain.Session, name string) (string, bool, error)
	ClassificationID(ctx context.Context, sess exactdomain.Session, code string) (string, bool, error)
}
