package v1

import (
	"testing"
	"time"
)

func TestItem_Validation(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{
			name:    "valid item",
			item:    Item{Name: "Avada", URL: "https://themeforest.net/item/avada/2833226", SourceID: "2833226"},
			wantErr: false,
		},
		{
			name:    "missing url",
			item:    Item{Name: "Avada", SourceID: "2833226"},
			wantErr: true,
		},
		{
			name:    "missing source id",
			item:    Item{Name: "Avada", URL: "https://themeforest.net/item/avada/2833226"},
			wantErr: true,
		},
		{
			name:    "missing name",
			item:    Item{URL: "https://themeforest.net/item/avada/2833226", SourceID: "2833226"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSnapshot_Validation(t *testing.T) {
	if err := (&Snapshot{ItemID: "item-1", SalesCount: 10}).Validate(); err != nil {
		t.Fatalf("expected valid snapshot, got %v", err)
	}
	if err := (&Snapshot{SalesCount: 10}).Validate(); err == nil {
		t.Fatal("expected error for missing item_id")
	}
	if err := (&Snapshot{ItemID: "item-1", SalesCount: -1}).Validate(); err == nil {
		t.Fatal("expected error for negative sales_count")
	}
}

func TestScanRun_Age(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(12 * time.Minute)

	running := ScanRun{Status: ScanRunning, StartedAt: start}
	if got := running.Age(now); got != 12*time.Minute {
		t.Errorf("running age = %v, want 12m", got)
	}

	done := start.Add(3 * time.Minute)
	completed := ScanRun{Status: ScanCompleted, StartedAt: start, CompletedAt: &done}
	if got := completed.Age(now); got != 3*time.Minute {
		t.Errorf("completed age = %v, want 3m", got)
	}
}

func TestScanRunCounts_SuccessRate(t *testing.T) {
	if got := (ScanRunCounts{}).SuccessRate(); got != 0 {
		t.Errorf("empty success rate = %d, want 0", got)
	}
	if got := (ScanRunCounts{Total: 3, Completed: 2, Failed: 1}).SuccessRate(); got != 67 {
		t.Errorf("success rate = %d, want 67", got)
	}
	if !ScanCompleted.Terminal() || !ScanFailed.Terminal() || ScanRunning.Terminal() {
		t.Error("unexpected Terminal() result")
	}
}
