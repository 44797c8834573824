package audits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dormledger/hostel-inventory/internal/issuance"
	"github.com/dormledger/hostel-inventory/internal/stock"
	"github.com/dormledger/hostel-inventory/pkg/db"
	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	pkgerrors "github.com/dormledger/hostel-inventory/pkg/errors"
	"github.com/dormledger/hostel-inventory/pkg/logger"
	"github.com/dormledger/hostel-inventory/pkg/metrics"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"
)

const defaultCacheSize = 128

// Service takes and manages audit snapshots.
type Service interface {
	CreateSnapshot(ctx context.Context) (*AuditDTO, error)
	List(ctx context.Context) ([]AuditDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*AuditDTO, error)
	Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error)
}

// ServiceParams bundles snapshot dependencies.
type ServiceParams struct {
	Repo      Repository
	Stock     stock.Repository
	Issuance  issuance.Repository
	Tx        db.TxRunner
	CacheSize int
	Metrics   *metrics.LedgerMetrics
	Logger    *logger.Logger
}

type service struct {
	repo     Repository
	stock    stock.Repository
	issuance issuance.Repository
	tx       db.TxRunner
	cache    *lru.Cache[uuid.UUID, AuditDTO]
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the audit snapshotter.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("audits repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Issuance == nil {
		return nil, fmt.Errorf("issuance repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	size := params.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[uuid.UUID, AuditDTO](size)
	if err != nil {
		return nil, fmt.Errorf("audit cache: %w", err)
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		stock:    params.Stock,
		issuance: params.Issuance,
		tx:       params.Tx,
		cache:    cache,
		metrics:  params.Metrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateSnapshot(ctx context.Context) (*AuditDTO, error) {
	var audit *models.InventoryAudit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalog, err := s.stock.WithTx(tx).List(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stock catalog")
		}
		issued, err := s.issuance.WithTx(tx).ActiveQuantityGrouped(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load issued quantities")
		}

		audit = &models.InventoryAudit{CreatedAt: s.now(), Items: reconcile(catalog, issued)}
		if err := s.repo.WithTx(tx).Create(ctx, audit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist audit snapshot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncSnapshots()

	dto := fromModel(audit)
	s.cache.Add(dto.ID, dto.clone())

	ctx = s.logg.WithFields(ctx, map[string]any{"audit_id": dto.ID, "items": len(dto.Items)})
	s.logg.Info(ctx, "audits.snapshot.created")
	return &dto, nil
}

// reconcile emits one line per stocked kind and one per kind issued without a stock record.
func reconcile(catalog []models.InventoryStock, issued map[enums.InventoryKind]int) []models.InventoryAuditItem {
	items := make([]models.InventoryAuditItem, 0, len(catalog)+len(issued))
	stocked := make(map[enums.InventoryKind]struct{}, len(catalog))
	for _, record := range catalog {
		stocked[record.Kind] = struct{}{}
		q := issued[record.Kind]
		items = append(items, models.InventoryAuditItem{
			Kind:      record.Kind,
			Total:     record.Total,
			Issued:    q,
			Available: record.Total - q,
		})
	}
	for _, kind := range enums.InventoryKinds() {
		q, ok := issued[kind]
		if !ok {
			continue
		}
		if _, ok := stocked[kind]; ok {
			continue
		}
		items = append(items, models.InventoryAuditItem{
			Kind:      kind,
			Total:     0,
			Issued:    q,
			Available: -q,
		})
	}
	rank := kindRank()
	sort.SliceStable(items, func(i, j int) bool { return rank[items[i].Kind] < rank[items[j].Kind] })
	return items
}

func (s *service) List(ctx context.Context) ([]AuditDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list audits")
	}
	out := make([]AuditDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AuditDTO, error) {
	if cached, ok := s.cache.Get(id); ok {
		// Deletes on other instances do not reach this cache.
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return nil, translateLookup(err)
		}
		if !exists {
			s.cache.Remove(id)
			return nil, pkgerrors.NotFound("audit")
		}
		dto := cached.clone()
		return &dto, nil
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookup(err)
	}
	dto := fromModel(row)
	s.cache.Add(id, dto.clone())
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return translateLookup(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Remove(id)

	ctx = s.logg.WithField(ctx, "audit_id", id)
	s.logg.Info(ctx, "audits.snapshot.deleted")
	return &DeleteResult{ID: id}, nil
}

func translateLookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("audit")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load audit")
}
