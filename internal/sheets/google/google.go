package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/ports"
)

var _ ports.MealExporter = (*Client)(nil)

// DefaultSheetName is the base tab name; the meal's year is prefixed.
const DefaultSheetName = "Meals"

// Config selects the spreadsheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client keeps one row per meal in year tabs such as "2024 Meals".
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an existing service, for tests and custom transports.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		sheetBase:     strings.TrimSpace(sheetName),
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// HTTPClient is a pooled client suited to the Sheets API.
func HTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 60 * time.Second,
	}
}

// UpsertMeal rewrites the meal's row in place, or appends one when the id
// is not in the tab yet. It returns the written range.
func (c *Client) UpsertMeal(ctx context.Context, m core.Meal) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, m.Year)
	row, err := c.findRow(ctx, sheet, m.ID)
	if err != nil {
		return "", err
	}
	vr := &gsheet.ValueRange{Values: [][]any{mealRow(m)}}

	if row > 0 {
		rng := rowRange(sheet, row)
		resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("update sheet %s: %w", sheet, err)
		}
		ref := rng
		if resp.UpdatedRange != "" {
			ref = resp.UpdatedRange
		}
		c.logger.InfoContext(ctx, "Meal row updated in sheet",
			log.FieldMealID, m.ID, log.FieldSheetsRef, ref)
		return ref, nil
	}

	rng := fmt.Sprintf("%s!A:H", sheet)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Meal appended to sheet",
		log.FieldMealID, m.ID, log.FieldSheetsRef, ref)
	return ref, nil
}

// RemoveMeal clears the meal's row. A missing row is not an error.
func (c *Client) RemoveMeal(ctx context.Context, year int, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, year)
	row, err := c.findRow(ctx, sheet, id)
	if err != nil {
		return err
	}
	if row == 0 {
		c.logger.InfoContext(ctx, "Meal not in sheet, nothing to remove", log.FieldMealID, id)
		return nil
	}
	rng := rowRange(sheet, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}
	c.logger.InfoContext(ctx, "Meal row cleared from sheet",
		log.FieldMealID, id, log.FieldSheetsRef, rng)
	return nil
}

// findRow returns the 1-based row whose id column holds id, or 0.
func (c *Client) findRow(ctx context.Context, sheet, id string) (int, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!H:H", sheet)).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read ids from sheet %s: %w", sheet, err)
	}
	for i, cells := range resp.Values {
		if len(cells) > 0 && fmt.Sprint(cells[0]) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}

// mealRow is the column layout: year, month, day, weekday, type, menu, count, id.
func mealRow(m core.Meal) []any {
	return []any{m.Year, m.Month, m.Day, m.Date().Weekday().String(), string(m.Type), m.Menu, m.Count, m.ID}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
