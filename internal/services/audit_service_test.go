package services

import (
	"testing"

	"wealthsync/internal/models"
	"wealthsync/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	user := testutil.CreateTestUser(t, db)
	asset := testutil.CreateTestManualAsset(t, db, user.ID, "1")

	svc.Log(user.ID, "CREATE_ASSET", "asset", asset.ID, "127.0.0.1", map[string]any{"name": asset.Name})

	var entries []models.AuditLog
	db.Find(&entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Action != "CREATE_ASSET" || e.ResourceID != asset.ID || e.IPAddress != "127.0.0.1" {
		t.Errorf("unexpected audit entry %+v", e)
	}
	if e.Changes == "" {
		t.Error("expected changes to be recorded")
	}
}

func TestAuditService_LogWithoutChanges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log("0190a4b2-0000-7000-8000-000000000001", "DELETE_DEBT", "debt", "0190a4b2-0000-7000-8000-000000000002", "", nil)

	var entry models.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("expected audit entry: %v", err)
	}
	if entry.Changes != "" {
		t.Errorf("expected empty changes, got %q", entry.Changes)
	}
}
