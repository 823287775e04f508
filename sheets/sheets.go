// Package sheets stores lead rows in a Google Sheets spreadsheet that is
// located by name through Google Drive and created on first use.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/model"
	"google.golang.org/api/drive/v3"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	headerColor         = "#6366f1"
	urlPrefix           = "https://docs.google.com/spreadsheets/d/"
)

// ColumnWidths are the pixel widths of the lead columns, in header order.
var ColumnWidths = []int64{180, 200, 250, 150, 100}

// ErrNotFound is returned by Lookup when no spreadsheet has the configured name.
var ErrNotFound = errors.New("spreadsheet not found")

// Handle identifies the sheet rows are appended to.
type Handle struct {
	SpreadsheetID string
	SheetTitle    string
	URL           string
}

// Store resolves the lead sheet and appends rows to it.
type Store interface {
	Resolve(ctx context.Context) (*Handle, error)
	Append(ctx context.Context, h *Handle, row []any) error
}

// GoogleStore is a Store backed by Drive (search) and Sheets (create, read,
// append).
type GoogleStore struct {
	drive  *drive.Service
	sheets *gsheets.Service

	name          string
	tab           string
	spreadsheetID string
}

// NewGoogleStore returns a store for the spreadsheet named in cfg. When
// cfg.SpreadsheetID is set the Drive search and creation path is skipped.
func NewGoogleStore(d *drive.Service, s *gsheets.Service, cfg config.IntakeConfig) *GoogleStore {
	return &GoogleStore{
		drive:         d,
		sheets:        s,
		name:          cfg.SheetName,
		tab:           config.DefaultLeadsTab,
		spreadsheetID: cfg.SpreadsheetID,
	}
}

// Resolve opens the configured spreadsheet, or finds it by name and creates
// it when absent. An existing spreadsheet is never renamed or re-headered.
func (g *GoogleStore) Resolve(ctx context.Context) (*Handle, error) {
	if g.spreadsheetID != "" {
		return g.open(ctx, g.spreadsheetID)
	}
	id, err := g.find(ctx)
	if err != nil {
		return nil, err
	}
	if id != "" {
		return g.open(ctx, id)
	}
	return g.create(ctx)
}

// Lookup finds the spreadsheet by name without creating it.
func (g *GoogleStore) Lookup(ctx context.Context) (*Handle, error) {
	id := g.spreadsheetID
	if id == "" {
		var err error
		if id, err = g.find(ctx); err != nil {
			return nil, err
		}
		if id == "" {
			return nil, ErrNotFound
		}
	}
	return g.open(ctx, id)
}

// Append adds row below the last row of the sheet. Values are stored as
// given, never parsed as formulas.
func (g *GoogleStore) Append(ctx context.Context, h *Handle, row []any) error {
	vr := &gsheets.ValueRange{Values: [][]any{row}}
	_, err := g.sheets.Spreadsheets.Values.Append(h.SpreadsheetID, a1Range(h.SheetTitle), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (g *GoogleStore) find(ctx context.Context) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(g.name), spreadsheetMimeType)
	res, err := g.drive.Files.List().
		Q(q).
		OrderBy("createdTime").
		PageSize(1).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("search drive for %q: %w", g.name, err)
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

func (g *GoogleStore) open(ctx context.Context, id string) (*Handle, error) {
	ss, err := g.sheets.Spreadsheets.Get(id).
		Fields("spreadsheetId,spreadsheetUrl,sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", id, err)
	}
	if len(ss.Sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", id)
	}
	title := ss.Sheets[0].Properties.Title
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == g.tab {
			title = g.tab
			break
		}
	}
	return newHandle(ss, title), nil
}

func (g *GoogleStore) create(ctx context.Context) (*Handle, error) {
	ss, err := g.sheets.Spreadsheets.Create(newSpreadsheet(g.name, g.tab)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet %q: %w", g.name, err)
	}
	h := newHandle(ss, g.tab)
	logger.Info("Created new spreadsheet: %s", h.URL)
	return h, nil
}

// newSpreadsheet describes the spreadsheet created on first use: one frozen,
// formatted header row and fixed column widths.
func newSpreadsheet(name, tab string) *gsheets.Spreadsheet {
	white := &gsheets.Color{Red: 1, Green: 1, Blue: 1}
	header := make([]*gsheets.CellData, len(model.LeadHeaders))
	for i, h := range model.LeadHeaders {
		header[i] = &gsheets.CellData{
			UserEnteredValue: &gsheets.ExtendedValue{StringValue: &h},
			UserEnteredFormat: &gsheets.CellFormat{
				BackgroundColor: hexColor(headerColor),
				TextFormat: &gsheets.TextFormat{
					Bold:            true,
					ForegroundColor: white,
				},
			},
		}
	}
	widths := make([]*gsheets.DimensionProperties, len(ColumnWidths))
	for i, px := range ColumnWidths {
		widths[i] = &gsheets.DimensionProperties{PixelSize: px}
	}
	return &gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: name},
		Sheets: []*gsheets.Sheet{{
			Properties: &gsheets.SheetProperties{
				Title:          tab,
				GridProperties: &gsheets.GridProperties{FrozenRowCount: 1},
			},
			Data: []*gsheets.GridData{{
				RowData:        []*gsheets.RowData{{Values: header}},
				ColumnMetadata: widths,
			}},
		}},
	}
}

func newHandle(ss *gsheets.Spreadsheet, title string) *Handle {
	url := ss.SpreadsheetUrl
	if url == "" {
		url = urlPrefix + ss.SpreadsheetId
	}
	return &Handle{SpreadsheetID: ss.SpreadsheetId, SheetTitle: title, URL: url}
}

// hexColor converts "#rrggbb" to a Sheets color. Malformed input yields black.
func hexColor(hex string) *gsheets.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(hex, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return &gsheets.Color{}
	}
	return &gsheets.Color{
		Red:   float64(r) / 255,
		Green: float64(g) / 255,
		Blue:  float64(b) / 255,
	}
}

// a1Range quotes a sheet title for use in A1 notation.
func a1Range(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!A1"
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
