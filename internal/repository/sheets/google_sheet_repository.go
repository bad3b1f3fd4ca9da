package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/sellsmart/sellsmart-web/internal/config"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
// Rows are 1-based, as in the spreadsheet UI.
type Repository interface {
	EnsureSheet(ctx context.Context, title string) error
	WriteRows(ctx context.Context, sheet string, startRow int, rows [][]interface{}) error
	ReadRows(ctx context.Context, sheet string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger

	mu    sync.Mutex
	known map[string]bool
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
		known:         make(map[string]bool),
	}, nil
}

// EnsureSheet adds a tab named title unless the spreadsheet already has one.
func (r *GoogleSheetRepository) EnsureSheet(ctx context.Context, title string) error {
	if title == "" {
		return fmt.Errorf("sheet title must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.known[title] {
		return nil
	}

	resp, err := r.service.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("load spreadsheet: %w", err)
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			r.known[sh.Properties.Title] = true
		}
	}
	if r.known[title] {
		return nil
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	r.known[title] = true

	r.logger.Info("sheet tab created", zap.String("sheet", title))
	return nil
}

// WriteRows overwrites the cells starting at column A of startRow.
func (r *GoogleSheetRepository) WriteRows(ctx context.Context, sheet string, startRow int, rows [][]interface{}) error {
	if startRow < 1 {
		return fmt.Errorf("startRow must be at least 1, got %d", startRow)
	}
	if len(rows) == 0 {
		return nil
	}

	sheetRange := fmt.Sprintf("%s!A%d", quoteSheet(sheet), startRow)
	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("write rows into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("rows written to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// ReadRows fetches every populated row of sheet.
func (r *GoogleSheetRepository) ReadRows(ctx context.Context, sheet string) ([][]interface{}, error) {
	sheetRange := quoteSheet(sheet) + "!A:Z"

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// quoteSheet renders title for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
