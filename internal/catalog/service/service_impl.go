package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/exactsync/internal/cache"
	catalogdomain "github.com/smallbiznis/exactsync/internal/catalog/domain"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	obsmetrics "github.com/smallbiznis/exactsync/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// errMiss keeps a miss out of the cache so a newly created item is found on
// the next order.
var errMiss = errors.New("catalog_miss")

type Params struct {
	fx.In

	Client  exactdomain.Client
	Cache   cache.Store
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	client  exactdomain.Client
	cache   cache.Store
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func New(p Params) catalogdomain.Catalog {
	return &Service{
		client:  p.Client,
		cache:   p.Cache,
		log:     p.Log.Named("catalog.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) ItemID(ctx context.Context, sess exactdomain.Session, sku string) (string, bool, error) {
	sku = strings.TrimSpace(sku)
	return s.lookup(ctx, sess, "item", sku, catalogdomain.ItemTTL, exactdomain.ResourceItems,
		exactdomain.TrimEq("Code", sku))
}

func (s *Service) CostItemID(ctx context.Context, sess exactdomain.Session, prefix, country string) (string, bool, error) {
	code := strings.TrimSpace(prefix) + " " + strings.ToUpper(strings.TrimSpace(country))
	return s.lookup(ctx, sess, "cost", slug.Make(code), catalogdomain.MasterDataTTL, exactdomain.ResourceItems,
		exactdomain.TrimEq("Code", code))
}

func (s *Service) GLAccountID(ctx context.Context, sess exactdomain.Session, code string) (string, bool, error) {
	code = strings.TrimSpace(code)
	return s.lookup(ctx, sess, "gl_account", code, catalogdomain.MasterDataTTL, exactdomain.ResourceGLAccounts,
		exactdomain.TrimEq("Code", code))
}

func (s *Service) PriceListID(ctx context.Context, sess exactdomain.Session, name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	return s.lookup(ctx, sess, "price_list", slug.Make(name), catalogdomain.MasterDataTTL, exactdomain.ResourcePriceLists,
		exactdomain.Eq("Description", exactdomain.Literal(name)))
}

func (s *Service) ClassificationID(ctx context.Context, sess exactdomain.Session, code string) (string, bool, error) {
	code = strings.TrimSpace(code)
	return s.lookup(ctx, sess, "classification", slug.Make(code), catalogdomain.MasterDataTTL, exactdomain.ResourceAccountClassifications,
		exactdomain.TrimEq("Code", code))
}

func (s *Service) lookup(ctx context.Context, sess exactdomain.Session, kind, name string, ttl time.Duration, resource, filter string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}
	key := cache.Key("exact", sess.Division, kind, name)

	id, err := cache.Remember(ctx, s.cache, key, ttl, func(ctx context.Context) (string, error) {
		var rows []exactdomain.IDRecord
		if err := s.client.Get(ctx, sess, resource, exactdomain.Query{
			Filter: filter,
			Select: []string{"ID"},
		}, &rows); err != nil {
			return "", err
		}
		found := len(rows) > 0 && rows[0].ID != ""
		s.metrics.RecordCatalogLookup(ctx, kind, found)
		if !found {
			return "", errMiss
		}
		return rows[0].ID, nil
	})
	switch {
	case errors.Is(err, errMiss):
		s.log.Debug("catalog miss", zap.String("kind", kind), zap.String("key", key))
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return id, true, nil
}

var _ catalogdomain.Catalog = (*Service)(nil)
