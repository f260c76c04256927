package google

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_CREDENTIALS_FILE", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_CREDENTIALS_FILE", "/nonexistent/creds.json")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for unreadable credentials file")
	}
	if !strings.Contains(err.Error(), "read credentials file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteBalance_UninitializedService(t *testing.T) {
	c := &Client{spreadsheetID: "test", balancesSheet: "Balances"}

	_, err := c.WriteBalance(context.Background(), core.Saving{
		Key:    core.YM(2025, 4),
		Amount: decimal.NewFromInt(100),
	})
	if err == nil {
		t.Fatal("expected error with nil sheets service")
	}
}
