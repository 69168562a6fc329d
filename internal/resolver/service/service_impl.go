package service

import (
	"context"
	"strings"

	catalogdomain "github.com/smallbiznis/exactsync/internal/catalog/domain"
	"github.com/smallbiznis/exactsync/internal/config"
	"github.com/smallbiznis/exactsync/internal/erperr"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	obsmetrics "github.com/smallbiznis/exactsync/internal/observability/metrics"
	resolverdomain "github.com/smallbiznis/exactsync/internal/resolver/domain"
	taxdomain "github.com/smallbiznis/exactsync/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg     config.Config
	Client  exactdomain.Client
	Catalog catalogdomain.Catalog
	Tax     taxdomain.Resolver
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	cfg     config.ExactConfig
	client  exactdomain.Client
	catalog catalogdomain.Catalog
	tax     taxdomain.Resolver
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func New(p Params) resolverdomain.Resolver {
	return &Service{
		cfg:     p.Cfg.Exact,
		client:  p.Client,
		catalog: p.Catalog,
		tax:     p.Tax,
		log:     p.Log.Named("resolver.service"),
		metrics: p.Metrics,
	}
}

// findID runs a natural-key lookup. Zero rows is not an error.
func (s *Service) findID(ctx context.Context, sess exactdomain.Session, resource, filter string) (string, bool, error) {
	var rows []exactdomain.IDRecord
	if err := s.client.Get(ctx, sess, resource, exactdomain.Query{
		Filter: filter,
		Select: []string{"ID"},
	}, &rows); err != nil {
		return "", false, err
	}
	if len(rows) == 0 || strings.TrimSpace(rows[0].ID) == "" {
		return "", false, nil
	}
	return rows[0].ID, true, nil
}

// fetchOne loads the comparator fields of a record that must exist.
func fetchOne[T any](ctx context.Context, s *Service, sess exactdomain.Session, op, entity, resource, id string, fields []string) (T, error) {
	var rows []T
	if err := s.client.Get(ctx, sess, resource, exactdomain.Query{
		Filter: exactdomain.Eq("ID", exactdomain.GUID(id)),
		Select: fields,
	}, &rows); err != nil {
		var zero T
		return zero, err
	}
	if len(rows) == 0 {
		var zero T
		return zero, erperr.EntityNotFound(op, entity, id)
	}
	return rows[0], nil
}

func (s *Service) create(ctx context.Context, sess exactdomain.Session, op, entity, resource string, body any) (string, error) {
	var created exactdomain.IDRecord
	if err := s.client.Post(ctx, sess, resource, body, &created); err != nil {
		return "", err
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", erperr.Newf(erperr.KindTransport, op, "%s creation response carries no ID", entity)
	}
	s.metrics.RecordEntityWrite(ctx, entity, "create")
	return created.ID, nil
}

func (s *Service) update(ctx context.Context, sess exactdomain.Session, entity, resource, id string, body any) error {
	if err := s.client.Put(ctx, sess, exactdomain.RecordPath(resource, id), body); err != nil {
		return err
	}
	s.metrics.RecordEntityWrite(ctx, entity, "update")
	return nil
}

func (s *Service) country(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" {
		return code
	}
	if fallback = strings.ToUpper(strings.TrimSpace(fallback)); fallback != "" {
		return fallback
	}
	return s.cfg.HomeCountry
}

var _ resolverdomain.Resolver = (*Service)(nil)
