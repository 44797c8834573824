package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dormledger/hostel-inventory/internal/issuance"
	"github.com/dormledger/hostel-inventory/internal/stock"
	"github.com/dormledger/hostel-inventory/internal/students"
	"github.com/dormledger/hostel-inventory/pkg/db"
	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	pkgerrors "github.com/dormledger/hostel-inventory/pkg/errors"
	"github.com/dormledger/hostel-inventory/pkg/logger"
	"github.com/dormledger/hostel-inventory/pkg/metrics"
	"gorm.io/gorm"
)

const (
	opUpsertStock = "upsert_stock"
	opIssue       = "issue"
	opReturn      = "return"
)

// Service is the stock ledger: registered totals, issuance and derived availability.
type Service interface {
	UpsertStock(ctx context.Context, input UpsertStockInput) (*StockDTO, error)
	ListStock(ctx context.Context) ([]StockDTO, error)
	Issue(ctx context.Context, input IssueInput) (*IssuanceDTO, error)
	Return(ctx context.Context, input ReturnInput) (*ReturnOutcome, error)
	ListStudentItems(ctx context.Context, studentID int64) ([]IssuanceDTO, error)
	ListActiveAssignmentsFlat(ctx context.Context) ([]Assignment, error)
}

// ServiceParams bundles the ledger dependencies.
type ServiceParams struct {
	Stock    stock.Repository
	Issuance issuance.Repository
	Students students.Resolver
	Tx       db.TxRunner
	Metrics  *metrics.LedgerMetrics
	Logger   *logger.Logger
}

type service struct {
	stock    stock.Repository
	issuance issuance.Repository
	students students.Resolver
	tx       db.TxRunner
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
}

// NewService wires the stock ledger.
func NewService(params ServiceParams) (Service, error) {
	if params.Stock == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Issuance == nil {
		return nil, fmt.Errorf("issuance repository required")
	}
	if params.Students == nil {
		return nil, fmt.Errorf("student resolver required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		stock:    params.Stock,
		issuance: params.Issuance,
		students: params.Students,
		tx:       params.Tx,
		metrics:  params.Metrics,
		logg:     logg,
	}, nil
}

func (s *service) UpsertStock(ctx context.Context, input UpsertStockInput) (*StockDTO, error) {
	if !input.Kind.IsValid() {
		s.metrics.Observe(opUpsertStock, metrics.OutcomeInvalid)
		return nil, invalidKind(input.Kind)
	}
	if input.Total < 0 {
		s.metrics.Observe(opUpsertStock, metrics.OutcomeInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total must be zero or greater")
	}

	var dto StockDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.stock.WithTx(tx).Upsert(ctx, input.Kind, input.Total)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert stock")
		}
		issued, err := s.issuance.WithTx(tx).ActiveQuantityByKind(ctx, input.Kind)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load issued quantity")
		}
		dto = stockDTO(record, issued)
		return nil
	})
	if err != nil {
		s.metrics.Observe(opUpsertStock, outcomeFor(err))
		return nil, err
	}
	s.metrics.Observe(opUpsertStock, metrics.OutcomeSuccess)

	ctx = s.logg.WithFields(ctx, map[string]any{"kind": input.Kind, "total": input.Total})
	s.logg.Info(ctx, "inventory.stock.upserted")
	return &dto, nil
}

func (s *service) ListStock(ctx context.Context) ([]StockDTO, error) {
	records, err := s.stock.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stock")
	}
	issued, err := s.issuance.ActiveQuantityGrouped(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load issued quantities")
	}

	out := make([]StockDTO, 0, len(records))
	for i := range records {
		out = append(out, stockDTO(&records[i], issued[records[i].Kind]))
	}
	sortByKindOrder(out)
	return out, nil
}

func (s *service) Issue(ctx context.Context, input IssueInput) (*IssuanceDTO, error) {
	if err := validateIssue(input); err != nil {
		s.metrics.Observe(opIssue, metrics.OutcomeInvalid)
		return nil, err
	}

	var record *models.StudentInventory
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.students.WithTx(tx).Resolve(ctx, input.StudentID); err != nil {
			return err
		}

		stockRepo := s.stock.WithTx(tx)
		issuanceRepo := s.issuance.WithTx(tx)

		stocked, err := stockRepo.LockByKind(ctx, input.Kind)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("inventory stock")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock stock")
		}
		issued, err := issuanceRepo.ActiveQuantityByKind(ctx, input.Kind)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load issued quantity")
		}

		available := stocked.Total - issued
		if input.Quantity > available {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(map[string]any{
				"kind":      input.Kind,
				"requested": input.Quantity,
				"available": available,
			})
		}

		record, err = issuanceRepo.IncrementOrCreate(ctx, input.StudentID, input.Kind, input.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record issuance")
		}
		return nil
	})

	ctx = s.logg.WithFields(ctx, map[string]any{
		"student_id": input.StudentID,
		"kind":       input.Kind,
		"quantity":   input.Quantity,
	})
	if err != nil {
		s.metrics.Observe(opIssue, outcomeFor(err))
		s.logOutcome(ctx, "inventory.issue.rejected", err)
		return nil, err
	}
	s.metrics.Observe(opIssue, metrics.OutcomeSuccess)
	s.logg.Info(ctx, "inventory.issue.completed")
	return issuanceFromModel(record), nil
}

func (s *service) Return(ctx context.Context, input ReturnInput) (*ReturnOutcome, error) {
	if err := validateReturn(input); err != nil {
		s.metrics.Observe(opReturn, metrics.OutcomeInvalid)
		return nil, err
	}

	var result issuance.ReturnResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.issuance.WithTx(tx).ApplyReturn(ctx, input.StudentID, input.Kind, input.Quantity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "active assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply return")
		}
		return nil
	})

	fields := map[string]any{"student_id": input.StudentID, "kind": input.Kind}
	if input.Quantity != nil {
		fields["quantity"] = *input.Quantity
	}
	ctx = s.logg.WithFields(ctx, fields)
	if err != nil {
		s.metrics.Observe(opReturn, outcomeFor(err))
		s.logOutcome(ctx, "inventory.return.rejected", err)
		return nil, err
	}
	s.metrics.Observe(opReturn, metrics.OutcomeSuccess)

	if result.Closed {
		s.logg.Info(ctx, "inventory.return.closed")
		return &ReturnOutcome{Closed: true}, nil
	}
	s.logg.Info(ctx, "inventory.return.partial")
	return &ReturnOutcome{Record: issuanceFromModel(result.Record)}, nil
}

func (s *service) ListStudentItems(ctx context.Context, studentID int64) ([]IssuanceDTO, error) {
	if studentID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id must be positive")
	}
	if _, err := s.students.Resolve(ctx, studentID); err != nil {
		return nil, err
	}
	rows, err := s.issuance.ListActiveForStudent(ctx, studentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list student items")
	}
	out := make([]IssuanceDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *issuanceFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) ListActiveAssignmentsFlat(ctx context.Context) ([]Assignment, error) {
	rows, err := s.issuance.ListActiveAssignmentsFlat(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active assignments")
	}
	out := make([]Assignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, assignmentFromRow(row))
	}
	return out, nil
}

func (s *service) logOutcome(ctx context.Context, msg string, err error) {
	if pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		s.logg.Error(ctx, msg, err)
		return
	}
	ctx = s.logg.WithField(ctx, "reason", err.Error())
	s.logg.Info(ctx, msg)
}

func validateIssue(input IssueInput) error {
	if input.StudentID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id must be positive")
	}
	if !input.Kind.IsValid() {
		return invalidKind(input.Kind)
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	return nil
}

func validateReturn(input ReturnInput) error {
	if input.StudentID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id must be positive")
	}
	if !input.Kind.IsValid() {
		return invalidKind(input.Kind)
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	return nil
}

func invalidKind(kind enums.InventoryKind) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid inventory kind %q", kind))
}

func outcomeFor(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return metrics.OutcomeNotFound
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func stockDTO(record *models.InventoryStock, issued int) StockDTO {
	return StockDTO{
		Kind:      record.Kind,
		Label:     record.Kind.Label(),
		Total:     record.Total,
		Available: record.Total - issued,
		UpdatedAt: record.UpdatedAt,
	}
}

func sortByKindOrder(rows []StockDTO) {
	rank := make(map[enums.InventoryKind]int, len(rows))
	for i, kind := range enums.InventoryKinds() {
		rank[kind] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rank[rows[i].Kind] < rank[rows[j].Kind]
	})
}
