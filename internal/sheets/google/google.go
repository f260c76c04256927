package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	balancesSheet string
}

// Ensure interface conformance
var _ ports.BalanceWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE (service account)
// Optional: GOOGLE_SHEET_NAME (default "Balances")
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Balances"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		balancesSheet: sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using service account
// credentials from GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_JSON"))
	credentialsFile := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_FILE"))

	var creds []byte
	switch {
	case credentialsJSON != "":
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		var err error
		creds, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteBalance upserts the row for the saving's month. The sheet
// layout is one row per month: Year | Month | Balance.
func (c *Client) WriteBalance(ctx context.Context, s core.Saving) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:B", c.balancesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rng, err)
	}

	// Find an existing row for this month, otherwise append below the
	// last occupied row.
	row := len(resp.Values) + 1
	for i, cols := range resp.Values {
		if len(cols) < 2 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(cols[0])))
		if err != nil {
			// Header or free-form row
			continue
		}
		month, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(cols[1])))
		if err != nil {
			continue
		}
		if year == s.Key.Year && month == int(s.Key.Month) {
			row = i + 1
			break
		}
	}

	dataRange := fmt.Sprintf("%s!A%d:C%d", c.balancesSheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{{s.Key.Year, int(s.Key.Month), s.Amount.String()}}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return dataRange, nil
}
