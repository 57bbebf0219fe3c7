// Package google exports report tables to a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"nrjtrack/internal/log"
	"nrjtrack/internal/ports"
	"nrjtrack/internal/report"
)

const valueInputOption = "USER_ENTERED"

// Client overwrites one sheet tab with the latest report table.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ ports.TableExporter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID and service account credentials
// (GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS). GOOGLE_SHEET_NAME defaults to "Rapport".
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Rapport"
	}

	credentials, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return New(svc, spreadsheetID, sheetName, logger), nil
}

// New wraps an existing service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func credentialsFromEnv() ([]byte, error) {
	if js := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// SheetName returns the target tab.
func (c *Client) SheetName() string {
	return c.sheetName
}

// ExportTable replaces the tab content with t. An empty table only clears it.
func (c *Client) ExportTable(ctx context.Context, t report.Table) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.Clear(ctx); err != nil {
		return err
	}
	if len(t.Header) == 0 {
		return nil
	}

	rng := sheetRange(c.sheetName, "A1")
	vr := &gsheet.ValueRange{Values: toValues(t)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Report exported to sheet",
		log.FieldSheetRange, rng,
		log.FieldRows, len(t.Rows))
	return nil
}

// Clear empties the whole tab.
func (c *Client) Clear(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := sheetRange(c.sheetName, "")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// sheetRange builds an A1 range, quoting the tab name.
func sheetRange(sheet, cells string) string {
	name := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if cells == "" {
		return name
	}
	return name + "!" + cells
}

// toValues converts the table to the Sheets value matrix, header first.
func toValues(t report.Table) [][]interface{} {
	out := make([][]interface{}, 0, len(t.Rows)+1)
	out = append(out, toInterfaces(t.Header))
	for _, row := range t.Rows {
		out = append(out, toInterfaces(row))
	}
	return out
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
