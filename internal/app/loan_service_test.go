package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

func jun(day int) time.Time {
	return time.Date(2025, 6, day, 10, 0, 0, 0, time.UTC)
}

func seedLendingSite(now time.Time) *testServices {
	svc := newTestServices(now)
	svc.addLocation("loc-1")
	svc.addModel("camera", "loc-1", domain.TrackingSerialized)
	svc.addAsset("cam-a", "camera", "loc-1", "CAM-001")
	svc.addAsset("cam-b", "camera", "loc-1", "CAM-002")
	svc.addModel("cable", "loc-1", domain.TrackingBulk)
	svc.addStock("cable", "loc-1", 10, 10)
	return svc
}

func TestLoanService_CreateReservation(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("reserves serialized and bulk lines", func(t *testing.T) {
		svc := seedLendingSite(now)

		result, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(1),
			Until:      jun(5),
			Lines: []ReservationLine{
				{ModelID: "camera", Quantity: 1},
				{ModelID: "cable", Quantity: 4},
			},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Loan.Status != domain.LoanStatusReserved {
			t.Fatalf("expected status reserved, got %s", result.Loan.Status)
		}
		if len(result.Loan.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(result.Loan.Items))
		}

		lvl, _ := svc.stock.Get(context.Background(), "cable", "loc-1")
		if lvl.QuantityAvailable != 6 {
			t.Fatalf("expected bulk stock debited to 6, got %d", lvl.QuantityAvailable)
		}
	})

	t.Run("allocation picks assets in code order", func(t *testing.T) {
		svc := seedLendingSite(now)

		result, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(1),
			Until:      jun(5),
			Lines:      []ReservationLine{{ModelID: "camera", Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		item := result.Loan.Items[0]
		if item.AssetID == nil || *item.AssetID != "cam-a" {
			t.Fatalf("expected CAM-001 allocated first, got %v", item.AssetID)
		}
	})

	t.Run("shortfall rolls back the whole reservation", func(t *testing.T) {
		svc := seedLendingSite(now)

		_, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(1),
			Until:      jun(5),
			Lines: []ReservationLine{
				{ModelID: "cable", Quantity: 4},
				{ModelID: "camera", Quantity: 3},
			},
		})
		if err != domain.ErrInsufficientAvailability {
			t.Fatalf("expected ErrInsufficientAvailability, got %v", err)
		}
		if len(svc.store.loans) != 0 {
			t.Fatalf("expected no loan persisted, got %d", len(svc.store.loans))
		}
		if len(svc.store.items) != 0 {
			t.Fatalf("expected no items persisted, got %d", len(svc.store.items))
		}
		lvl, _ := svc.stock.Get(context.Background(), "cable", "loc-1")
		if lvl.QuantityAvailable != 10 {
			t.Fatalf("expected bulk stock rolled back to 10, got %d", lvl.QuantityAvailable)
		}
	})

	t.Run("second reservation for the last unit fails", func(t *testing.T) {
		svc := seedLendingSite(now)

		reserve := func() error {
			_, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
				BorrowerID: "b1",
				LocationID: "loc-1",
				From:       jun(1),
				Until:      jun(5),
				Lines:      []ReservationLine{{ModelID: "camera", Quantity: 2}},
			})
			return err
		}
		if err := reserve(); err != nil {
			t.Fatalf("first reservation: %v", err)
		}
		if err := reserve(); err != domain.ErrInsufficientAvailability {
			t.Fatalf("expected ErrInsufficientAvailability, got %v", err)
		}
	})

	t.Run("adjacent windows share the same unit", func(t *testing.T) {
		svc := seedLendingSite(now)

		for _, window := range [][2]time.Time{{jun(1), jun(5)}, {jun(5), jun(9)}} {
			_, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
				BorrowerID: "b1",
				LocationID: "loc-1",
				From:       window[0],
				Until:      window[1],
				Lines:      []ReservationLine{{ModelID: "camera", Quantity: 2}},
			})
			if err != nil {
				t.Fatalf("window %v: %v", window, err)
			}
		}
	})

	t.Run("named asset reservation honors conflicts", func(t *testing.T) {
		svc := seedLendingSite(now)

		_, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(1),
			Until:      jun(5),
			Lines:      []ReservationLine{{AssetID: "cam-a"}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		_, err = svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b2",
			LocationID: "loc-1",
			From:       jun(3),
			Until:      jun(6),
			Lines:      []ReservationLine{{AssetID: "cam-a"}},
		})
		if err != domain.ErrInsufficientAvailability {
			t.Fatalf("expected ErrInsufficientAvailability, got %v", err)
		}
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		svc := seedLendingSite(now)

		_, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(5),
			Until:      jun(5),
			Lines:      []ReservationLine{{ModelID: "camera", Quantity: 1}},
		})
		if err != domain.ErrInvalidWindow {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("rejects windows outside opening hours", func(t *testing.T) {
		svc := seedLendingSite(now)
		svc.store.locations["loc-1"] = domain.Location{
			ID:   "loc-1",
			Name: "loc-1",
			Hours: []domain.OpeningHours{
				// Sundays only; jun(2) 2025 is a Monday.
				{Weekday: time.Sunday, OpenMins: 8 * 60, CloseMins: 18 * 60},
			},
		}

		_, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(2),
			Until:      jun(3),
			Lines:      []ReservationLine{{ModelID: "camera", Quantity: 1}},
		})
		if err != domain.ErrOutsideOpeningHours {
			t.Fatalf("expected ErrOutsideOpeningHours, got %v", err)
		}
	})

	t.Run("rejects model from another location", func(t *testing.T) {
		svc := seedLendingSite(now)
		svc.addLocation("loc-2")
		svc.addModel("tripod", "loc-2", domain.TrackingSerialized)

		_, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(1),
			Until:      jun(2),
			Lines:      []ReservationLine{{ModelID: "tripod", Quantity: 1}},
		})
		if err != domain.ErrAssetModelNotFound {
			t.Fatalf("expected ErrAssetModelNotFound, got %v", err)
		}
	})
}

func TestLoanService_Lifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	reserve := func(t *testing.T, svc *testServices, lines ...ReservationLine) domain.Loan {
		t.Helper()
		result, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(1),
			Until:      jun(5),
			Lines:      lines,
		})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		return result.Loan
	}

	t.Run("hand over snapshots asset condition", func(t *testing.T) {
		svc := seedLendingSite(now)
		a := svc.store.assets["cam-a"]
		a.Condition = domain.ConditionFair
		svc.store.assets["cam-a"] = a

		loan := reserve(t, svc, ReservationLine{AssetID: "cam-a"})

		handed, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{Actor: "staff-1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if handed.Status != domain.LoanStatusHandedOver {
			t.Fatalf("expected handed_over, got %s", handed.Status)
		}
		if handed.HandedOverAt == nil {
			t.Fatalf("expected handed_over_at set")
		}

		items, _ := svc.store.ListItemsByLoan(context.Background(), loan.ID)
		if items[0].Status != domain.ItemStatusHandedOver {
			t.Fatalf("expected item handed_over, got %s", items[0].Status)
		}
		if items[0].ConditionOnHandover == nil || *items[0].ConditionOnHandover != domain.ConditionFair {
			t.Fatalf("expected condition snapshot fair, got %v", items[0].ConditionOnHandover)
		}
	})

	t.Run("hand over requires reserved status", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "camera", Quantity: 1})

		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{}); err != nil {
			t.Fatalf("first hand over: %v", err)
		}
		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{}); err != domain.ErrInvalidState {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("hand over fails when asset is physically out elsewhere", func(t *testing.T) {
		svc := seedLendingSite(now)
		first := reserve(t, svc, ReservationLine{AssetID: "cam-a"})
		if _, err := svc.loans.HandOver(context.Background(), first.ID, HandOverInput{}); err != nil {
			t.Fatalf("hand over first loan: %v", err)
		}

		// A later reservation for the same asset is legal; handing it over
		// while the asset is still out is not.
		second, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b2",
			LocationID: "loc-1",
			From:       jun(10),
			Until:      jun(12),
			Lines:      []ReservationLine{{AssetID: "cam-b"}},
		})
		if err != nil {
			t.Fatalf("second reservation: %v", err)
		}
		// Rebind the reserved item to the asset that is still out.
		items, _ := svc.store.ListItemsByLoan(context.Background(), second.Loan.ID)
		item := items[0]
		assetID := "cam-a"
		item.AssetID = &assetID
		if err := svc.store.SaveItem(context.Background(), item); err != nil {
			t.Fatalf("rebind item: %v", err)
		}

		if _, err := svc.loans.HandOver(context.Background(), second.Loan.ID, HandOverInput{}); err != domain.ErrAssetAlreadyLoaned {
			t.Fatalf("expected ErrAssetAlreadyLoaned, got %v", err)
		}
	})

	t.Run("return credits bulk stock", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "cable", Quantity: 4})
		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{}); err != nil {
			t.Fatalf("hand over: %v", err)
		}

		result, err := svc.loans.Return(context.Background(), loan.ID, ReturnInput{Actor: "staff-1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Loan.Status != domain.LoanStatusReturned {
			t.Fatalf("expected returned, got %s", result.Loan.Status)
		}
		if !result.LossCharge.IsZero() {
			t.Fatalf("expected zero loss charge, got %s", result.LossCharge)
		}

		lvl, _ := svc.stock.Get(context.Background(), "cable", "loc-1")
		if lvl.QuantityAvailable != 10 {
			t.Fatalf("expected stock credited back to 10, got %d", lvl.QuantityAvailable)
		}
	})

	t.Run("lost serialized item charges replacement value", func(t *testing.T) {
		svc := seedLendingSite(now)
		a := svc.store.assets["cam-a"]
		a.ReplacementValue = decimal.RequireFromString("899.90")
		svc.store.assets["cam-a"] = a

		loan := reserve(t, svc, ReservationLine{AssetID: "cam-a"})
		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{}); err != nil {
			t.Fatalf("hand over: %v", err)
		}

		items, _ := svc.store.ListItemsByLoan(context.Background(), loan.ID)
		result, err := svc.loans.Return(context.Background(), loan.ID, ReturnInput{Lost: []string{items[0].ID}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.LossCharge.Equal(decimal.RequireFromString("899.90")) {
			t.Fatalf("expected charge 899.90, got %s", result.LossCharge)
		}

		asset, _ := svc.store.GetAsset(context.Background(), "cam-a", false)
		if asset.Condition != domain.ConditionLost {
			t.Fatalf("expected asset condition lost, got %s", asset.Condition)
		}

		// A lost unit no longer counts as loanable.
		units, _ := svc.avail.CountAvailableUnits(context.Background(), "camera", "loc-1")
		if units != 1 {
			t.Fatalf("expected 1 loanable unit left, got %d", units)
		}
	})

	t.Run("damaged item flips asset condition", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{AssetID: "cam-a"})
		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{}); err != nil {
			t.Fatalf("hand over: %v", err)
		}

		items, _ := svc.store.ListItemsByLoan(context.Background(), loan.ID)
		if _, err := svc.loans.Return(context.Background(), loan.ID, ReturnInput{Damaged: []string{items[0].ID}}); err != nil {
			t.Fatalf("return: %v", err)
		}

		asset, _ := svc.store.GetAsset(context.Background(), "cam-a", false)
		if asset.Condition != domain.ConditionDamaged {
			t.Fatalf("expected condition damaged, got %s", asset.Condition)
		}
	})

	t.Run("lost bulk quantity stays debited", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "cable", Quantity: 4})
		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{}); err != nil {
			t.Fatalf("hand over: %v", err)
		}

		items, _ := svc.store.ListItemsByLoan(context.Background(), loan.ID)
		if _, err := svc.loans.Return(context.Background(), loan.ID, ReturnInput{Lost: []string{items[0].ID}}); err != nil {
			t.Fatalf("return: %v", err)
		}

		lvl, _ := svc.stock.Get(context.Background(), "cable", "loc-1")
		if lvl.QuantityAvailable != 6 {
			t.Fatalf("expected lost bulk quantity to stay debited, got %d", lvl.QuantityAvailable)
		}
	})

	t.Run("return requires handed over or overdue", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "camera", Quantity: 1})

		if _, err := svc.loans.Return(context.Background(), loan.ID, ReturnInput{}); err != domain.ErrInvalidState {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("overdue loans can be returned", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "camera", Quantity: 1})
		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{}); err != nil {
			t.Fatalf("hand over: %v", err)
		}
		if _, err := svc.loans.MarkOverdue(context.Background(), loan.ID); err != nil {
			t.Fatalf("mark overdue: %v", err)
		}
		if _, err := svc.loans.Return(context.Background(), loan.ID, ReturnInput{}); err != nil {
			t.Fatalf("return overdue loan: %v", err)
		}
	})

	t.Run("mark overdue requires handed over", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "camera", Quantity: 1})

		if _, err := svc.loans.MarkOverdue(context.Background(), loan.ID); err != domain.ErrInvalidState {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("cancel frees bulk stock and blocks after hand over", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "cable", Quantity: 3})

		cancelled, err := svc.loans.Cancel(context.Background(), loan.ID, "b1", "changed plans")
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if cancelled.Status != domain.LoanStatusCancelled {
			t.Fatalf("expected cancelled, got %s", cancelled.Status)
		}
		lvl, _ := svc.stock.Get(context.Background(), "cable", "loc-1")
		if lvl.QuantityAvailable != 10 {
			t.Fatalf("expected stock freed to 10, got %d", lvl.QuantityAvailable)
		}

		other := reserve(t, svc, ReservationLine{ModelID: "camera", Quantity: 1})
		if _, err := svc.loans.HandOver(context.Background(), other.ID, HandOverInput{}); err != nil {
			t.Fatalf("hand over: %v", err)
		}
		if _, err := svc.loans.Cancel(context.Background(), other.ID, "b1", ""); err != domain.ErrInvalidState {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("audit trail records creation and status changes", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "camera", Quantity: 1})
		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{Actor: "staff-1"}); err != nil {
			t.Fatalf("hand over: %v", err)
		}

		var kinds []string
		for _, ev := range svc.audit.events {
			kinds = append(kinds, ev.Kind)
		}
		wantCreated, wantStatus := false, false
		for _, k := range kinds {
			if k == domain.AuditLoanCreated {
				wantCreated = true
			}
			if k == domain.AuditLoanStatus {
				wantStatus = true
			}
		}
		if !wantCreated || !wantStatus {
			t.Fatalf("expected loan_created and loan_status events, got %v", kinds)
		}
	})
}

func TestLoanService_ItemEdits(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	reserve := func(t *testing.T, svc *testServices, lines ...ReservationLine) domain.Loan {
		t.Helper()
		result, err := svc.loans.CreateReservation(context.Background(), CreateReservationInput{
			BorrowerID: "b1",
			LocationID: "loc-1",
			From:       jun(1),
			Until:      jun(5),
			Lines:      lines,
		})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		return result.Loan
	}

	t.Run("add item allocates on reserved loan only", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "camera", Quantity: 1})

		result, err := svc.loans.AddItem(context.Background(), loan.ID, ReservationLine{ModelID: "cable", Quantity: 2})
		if err != nil {
			t.Fatalf("add item: %v", err)
		}
		if len(result.Loan.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(result.Loan.Items))
		}

		if _, err := svc.loans.HandOver(context.Background(), loan.ID, HandOverInput{}); err != nil {
			t.Fatalf("hand over: %v", err)
		}
		if _, err := svc.loans.AddItem(context.Background(), loan.ID, ReservationLine{ModelID: "cable", Quantity: 1}); err != domain.ErrInvalidState {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("remove bulk item credits stock", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "cable", Quantity: 4})

		items, _ := svc.store.ListItemsByLoan(context.Background(), loan.ID)
		if err := svc.loans.RemoveItem(context.Background(), loan.ID, items[0].ID); err != nil {
			t.Fatalf("remove item: %v", err)
		}

		lvl, _ := svc.stock.Get(context.Background(), "cable", "loc-1")
		if lvl.QuantityAvailable != 10 {
			t.Fatalf("expected stock back to 10, got %d", lvl.QuantityAvailable)
		}
		left, _ := svc.store.ListItemsByLoan(context.Background(), loan.ID)
		if len(left) != 0 {
			t.Fatalf("expected no items left, got %d", len(left))
		}
	})

	t.Run("remove item from foreign loan fails", func(t *testing.T) {
		svc := seedLendingSite(now)
		first := reserve(t, svc, ReservationLine{ModelID: "cable", Quantity: 1})
		second := reserve(t, svc, ReservationLine{ModelID: "cable", Quantity: 1})

		items, _ := svc.store.ListItemsByLoan(context.Background(), first.ID)
		if err := svc.loans.RemoveItem(context.Background(), second.ID, items[0].ID); err != domain.ErrLoanItemNotFound {
			t.Fatalf("expected ErrLoanItemNotFound, got %v", err)
		}
	})

	t.Run("update item model moves held quantity between ledgers", func(t *testing.T) {
		svc := seedLendingSite(now)
		svc.addModel("adapter", "loc-1", domain.TrackingBulk)
		svc.addStock("adapter", "loc-1", 5, 5)

		loan := reserve(t, svc, ReservationLine{ModelID: "cable", Quantity: 3})
		items, _ := svc.store.ListItemsByLoan(context.Background(), loan.ID)

		updated, err := svc.loans.UpdateItemModel(context.Background(), loan.ID, items[0].ID, "adapter")
		if err != nil {
			t.Fatalf("update item model: %v", err)
		}
		if updated.ModelID != "adapter" {
			t.Fatalf("expected model swapped, got %s", updated.ModelID)
		}

		cable, _ := svc.stock.Get(context.Background(), "cable", "loc-1")
		adapter, _ := svc.stock.Get(context.Background(), "adapter", "loc-1")
		if cable.QuantityAvailable != 10 || adapter.QuantityAvailable != 2 {
			t.Fatalf("expected cable=10 adapter=2, got cable=%d adapter=%d", cable.QuantityAvailable, adapter.QuantityAvailable)
		}
	})

	t.Run("update item model rejects serialized lines", func(t *testing.T) {
		svc := seedLendingSite(now)
		loan := reserve(t, svc, ReservationLine{ModelID: "camera", Quantity: 1})
		items, _ := svc.store.ListItemsByLoan(context.Background(), loan.ID)

		if _, err := svc.loans.UpdateItemModel(context.Background(), loan.ID, items[0].ID, "cable"); err != domain.ErrTrackingTypeMismatch {
			t.Fatalf("expected ErrTrackingTypeMismatch, got %v", err)
		}
	})
}
