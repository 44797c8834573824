package audits

import (
	"context"
	"testing"
	"time"

	"github.com/dormledger/hostel-inventory/internal/issuance"
	"github.com/dormledger/hostel-inventory/internal/stock"
	"github.com/dormledger/hostel-inventory/pkg/db"
	"github.com/dormledger/hostel-inventory/pkg/db/dbtest"
	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	pkgerrors "github.com/dormledger/hostel-inventory/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	return newServiceOn(t, conn), conn
}

func newServiceOn(t *testing.T, conn *gorm.DB) *service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Stock:    stock.NewRepository(conn),
		Issuance: issuance.NewRepository(conn),
		Tx:       db.FromConn(conn),
	})
	require.NoError(t, err)
	return svc.(*service)
}

func seedStock(t *testing.T, conn *gorm.DB, kind enums.InventoryKind, total int) {
	t.Helper()
	_, err := stock.NewRepository(conn).Upsert(context.Background(), kind, total)
	require.NoError(t, err)
}

func seedIssue(t *testing.T, conn *gorm.DB, studentID int64, kind enums.InventoryKind, qty int) {
	t.Helper()
	_, err := issuance.NewRepository(conn).IncrementOrCreate(context.Background(), studentID, kind, qty)
	require.NoError(t, err)
}

func itemFor(items []AuditItemDTO, kind enums.InventoryKind) *AuditItemDTO {
	for i := range items {
		if items[i].Kind == kind {
			return &items[i]
		}
	}
	return nil
}

func TestCreateSnapshotReconciles(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	student := dbtest.SeedStudent(t, conn, "Oleh Yaremchuk")

	seedStock(t, conn, enums.InventoryKindBlanket, 20)
	seedStock(t, conn, enums.InventoryKindSheet, 8)
	seedIssue(t, conn, student.ID, enums.InventoryKindBlanket, 6)
	seedIssue(t, conn, student.ID, enums.InventoryKindTablecloth, 2)

	audit, err := svc.CreateSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, audit.Items, 3)

	blanket := itemFor(audit.Items, enums.InventoryKindBlanket)
	require.NotNil(t, blanket)
	assert.Equal(t, AuditItemDTO{Kind: enums.InventoryKindBlanket, Label: "Ковдра", Total: 20, Issued: 6, Available: 14}, *blanket)

	sheet := itemFor(audit.Items, enums.InventoryKindSheet)
	require.NotNil(t, sheet)
	assert.Equal(t, 0, sheet.Issued)
	assert.Equal(t, 8, sheet.Available)

	unstocked := itemFor(audit.Items, enums.InventoryKindTablecloth)
	require.NotNil(t, unstocked)
	assert.Equal(t, 0, unstocked.Total)
	assert.Equal(t, 2, unstocked.Issued)
	assert.Equal(t, -2, unstocked.Available)

	var totals, issued int
	for _, item := range audit.Items {
		totals += item.Total
		issued += item.Issued
	}
	assert.Equal(t, 28, totals)
	assert.Equal(t, 8, issued)

	var persisted int64
	require.NoError(t, conn.Model(&models.InventoryAuditItem{}).Where("audit_id = ?", audit.ID).Count(&persisted).Error)
	assert.EqualValues(t, 3, persisted)
}

func TestCreateSnapshotOnEmptyLedger(t *testing.T) {
	svc, _ := newTestService(t)

	audit, err := svc.CreateSnapshot(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, audit.ID)
	assert.Empty(t, audit.Items)
}

func TestListNewestFirst(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedStock(t, conn, enums.InventoryKindPillow, 3)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	older, err := svc.CreateSnapshot(ctx)
	require.NoError(t, err)
	svc.now = func() time.Time { return base.Add(time.Hour) }
	newer, err := svc.CreateSnapshot(ctx)
	require.NoError(t, err)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)
	require.Len(t, rows[0].Items, 1)
	assert.Equal(t, enums.InventoryKindPillow, rows[0].Items[0].Kind)
}

func TestGetServesFromCacheAndStore(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedStock(t, conn, enums.InventoryKindCurtains, 4)

	created, err := svc.CreateSnapshot(ctx)
	require.NoError(t, err)

	cached, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Items, cached.Items)

	svc.cache.Purge()
	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, created.Items, loaded.Items)
	assert.True(t, svc.cache.Contains(created.ID))

	_, err = svc.Get(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteCascadesAndEvicts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedStock(t, conn, enums.InventoryKindTulle, 1)

	created, err := svc.CreateSnapshot(ctx)
	require.NoError(t, err)

	res, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, res.ID)
	assert.False(t, svc.cache.Contains(created.ID))

	var items int64
	require.NoError(t, conn.Model(&models.InventoryAuditItem{}).Where("audit_id = ?", created.ID).Count(&items).Error)
	assert.Zero(t, items)

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Delete(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestGetMissesAuditDeletedByAnotherInstance(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	first := newServiceOn(t, conn)
	second := newServiceOn(t, conn)
	seedStock(t, conn, enums.InventoryKindPillow, 3)

	created, err := first.CreateSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, first.cache.Contains(created.ID))

	_, err = second.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = first.Get(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.False(t, first.cache.Contains(created.ID))

	rows, err := first.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSnapshotItemsFollowKindDeclarationOrder(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedStock(t, conn, enums.InventoryKindSheet, 2)
	seedStock(t, conn, enums.InventoryKindBlanket, 2)
	seedStock(t, conn, enums.InventoryKindCurtains, 2)
	seedStock(t, conn, enums.InventoryKindTulle, 2)

	want := []enums.InventoryKind{
		enums.InventoryKindTulle,
		enums.InventoryKindCurtains,
		enums.InventoryKindBlanket,
		enums.InventoryKindSheet,
	}
	kinds := func(items []AuditItemDTO) []enums.InventoryKind {
		out := make([]enums.InventoryKind, 0, len(items))
		for _, item := range items {
			out = append(out, item.Kind)
		}
		return out
	}

	created, err := svc.CreateSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, kinds(created.Items))

	svc.cache.Purge()
	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, want, kinds(loaded.Items))

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, want, kinds(rows[0].Items))
}
