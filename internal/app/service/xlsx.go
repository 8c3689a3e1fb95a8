package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const listingSheet = "Listings"

// Column headers shared by export and import. Import locates columns by
// header name, so extra or reordered columns are tolerated.
var listingColumns = []string{
	"ID",
	"Name",
	"Description",
	"Category",
	"Search Categories",
	"Phone",
	"Email",
	"Links",
	"Street",
	"City",
	"State",
	"Zip",
	"Images",
	"Reference By",
	"Caste and Category",
	"Status",
	"Average Rating",
	"Reviews",
	"Created At",
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// formatLinks renders links as "type=url" pairs separated by semicolons.
func formatLinks(links []directory.Link) string {
	parts := make([]string, len(links))
	for i, l := range links {
		parts[i] = string(l.Type) + "=" + l.URL
	}
	return strings.Join(parts, "; ")
}

func parseLinks(s string) []directory.Link {
	var out []directory.Link
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		typ, url, ok := strings.Cut(part, "=")
		if !ok {
			out = append(out, directory.Link{Type: directory.LinkWebsite, URL: strings.TrimSpace(part)})
			continue
		}
		out = append(out, directory.Link{Type: directory.LinkType(strings.TrimSpace(typ)), URL: strings.TrimSpace(url)})
	}
	return out
}

// WriteListingsXLSX renders listings as a single-sheet workbook.
func WriteListingsXLSX(listings []model.Listing) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), listingSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(listingColumns))
	for i, h := range listingColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(listingSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i := range listings {
		l := &listings[i]
		view := l.ToDirectory()
		row := []interface{}{
			l.ID,
			l.Name,
			l.Description,
			l.Category,
			joinList(l.SearchCategories),
			l.Contact.Phone,
			l.Contact.Email,
			formatLinks(l.Contact.Links),
			l.Address.Street,
			l.Address.City,
			l.Address.State,
			l.Address.Zip,
			joinList(l.Images),
			l.ReferenceBy,
			l.CasteAndCategory,
			string(l.Status),
			view.AverageRating,
			len(l.Reviews),
			l.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(listingSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadListingsXLSX parses the first sheet of a workbook into submissions.
// The category column is taken as a free-text category unless it is blank.
func ReadListingsXLSX(r io.Reader) ([]directory.ListingInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "Name")
	}

	var inputs []directory.ListingInput
	for _, row := range rows[1:] {
		cell := func(column string) string {
			i, ok := index[strings.ToLower(column)]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if strings.Join(row, "") == "" {
			continue
		}

		inputs = append(inputs, directory.ListingInput{
			Name:             cell("Name"),
			Description:      cell("Description"),
			Category:         directory.CategorySelection{Selection: cell("Category")},
			SearchCategories: splitList(cell("Search Categories")),
			Contact: directory.Contact{
				Phone: cell("Phone"),
				Email: cell("Email"),
				Links: parseLinks(cell("Links")),
			},
			Address: directory.AddressInput{
				Street: cell("Street"),
				City:   cell("City"),
				State:  cell("State"),
				Zip:    cell("Zip"),
			},
			Images:           splitList(cell("Images")),
			ReferenceBy:      cell("Reference By"),
			CasteAndCategory: cell("Caste and Category"),
		})
	}
	return inputs, nil
}
