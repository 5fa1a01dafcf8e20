package internal

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	subscriptionsSheet = "Subscriptions"
	paymentsSheet      = "Payments"
)

var xlsxColumns = []string{
	"ID", "Name", "Cost", "Currency", "Billing Cycle", "Custom Days", "Custom Months",
	"Next Due Date", "Category", "Notes", "Active",
}

var paymentColumns = []string{"Subscription ID", "Name", "Date", "Cost"}

// ImportXLSX reads subscriptions from the first sheet of a workbook.
// The header row must contain at least a Name column; other columns are optional
// and matched case-insensitively against the export layout. A Payments sheet,
// when present, is attached as payment history by subscription id or name.
func ImportXLSX(path string) ([]SubscriptionInput, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	cols, dataStartRow := findHeader(rows, xlsxColumns, "Name")
	if dataStartRow < 0 {
		return nil, fmt.Errorf("could not find required column (Name)")
	}

	var inputs []SubscriptionInput
	for i := dataStartRow; i < len(rows); i++ {
		row := rows[i]
		name := cols.cell(row, "Name")
		if name == "" {
			continue
		}

		in := SubscriptionInput{
			ID:           cols.cell(row, "ID"),
			Name:         name,
			Cost:         Amount(cols.cell(row, "Cost")),
			Currency:     cols.cell(row, "Currency"),
			BillingCycle: cols.cell(row, "Billing Cycle"),
			NextDueDate:  cols.cell(row, "Next Due Date"),
			Category:     cols.cell(row, "Category"),
			Notes:        cols.cell(row, "Notes"),
		}
		if in.CustomDays, err = optionalInt(cols.cell(row, "Custom Days")); err != nil {
			return nil, fmt.Errorf("row %d: custom days: %w", i+1, err)
		}
		if in.CustomMonths, err = optionalInt(cols.cell(row, "Custom Months")); err != nil {
			return nil, fmt.Errorf("row %d: custom months: %w", i+1, err)
		}
		if v := cols.cell(row, "Active"); v != "" {
			active, err := strconv.ParseBool(strings.ToLower(v))
			if err != nil {
				return nil, fmt.Errorf("row %d: active %q is not a boolean", i+1, v)
			}
			in.Active = &active
		}
		inputs = append(inputs, in)
	}

	if slices.Contains(sheets[1:], paymentsSheet) {
		if err := readPayments(f, inputs); err != nil {
			return nil, err
		}
	}

	return inputs, nil
}

// readPayments appends the rows of the Payments sheet to the matching inputs.
func readPayments(f *excelize.File, inputs []SubscriptionInput) error {
	rows, err := f.GetRows(paymentsSheet)
	if err != nil {
		return fmt.Errorf("reading %s sheet: %w", paymentsSheet, err)
	}
	cols, dataStartRow := findHeader(rows, paymentColumns, "Date")
	if dataStartRow < 0 {
		return nil
	}

	byID := map[string]int{}
	byName := map[string]int{}
	for i, in := range inputs {
		if in.ID != "" {
			byID[in.ID] = i
		}
		byName[strings.ToLower(in.Name)] = i
	}

	for i := dataStartRow; i < len(rows); i++ {
		row := rows[i]
		dateStr := cols.cell(row, "Date")
		if dateStr == "" {
			continue
		}

		idx, ok := byID[cols.cell(row, "Subscription ID")]
		if !ok {
			idx, ok = byName[strings.ToLower(cols.cell(row, "Name"))]
		}
		if !ok {
			Logger.WithFields(logrus.Fields{
				"row":  i + 1,
				"id":   cols.cell(row, "Subscription ID"),
				"name": cols.cell(row, "Name"),
			}).Warn("payment row does not match any subscription, skipping")
			continue
		}

		d, err := ParseDate(dateStr)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", paymentsSheet, i+1, err)
		}
		cost := decimal.Zero
		if v := cols.cell(row, "Cost"); v != "" {
			if cost, err = decimal.NewFromString(strings.ReplaceAll(v, ",", ".")); err != nil {
				return fmt.Errorf("%s row %d: cost %q is not a number", paymentsSheet, i+1, v)
			}
		}
		inputs[idx].PaymentHistory = append(inputs[idx].PaymentHistory, PaymentEntry{Date: d, Cost: cost})
	}
	return nil
}

// headerColumns maps column names to their index in a sheet row.
type headerColumns map[string]int

func (h headerColumns) cell(row []string, name string) string {
	j, ok := h[name]
	if !ok || j >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[j])
}

// findHeader returns the columns of the first row naming the required column,
// and the index of the row after it. The index is -1 when no such row exists.
func findHeader(rows [][]string, names []string, required string) (headerColumns, int) {
	for i, row := range rows {
		cols := headerColumns{}
		for j, cell := range row {
			key := strings.ToLower(strings.TrimSpace(cell))
			for _, name := range names {
				if key == strings.ToLower(name) {
					cols[name] = j
				}
			}
		}
		if _, ok := cols[required]; ok {
			return cols, i + 1
		}
	}
	return nil, -1
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// ExportXLSX writes subscriptions and their payment history to a workbook.
func ExportXLSX(path string, subs []Subscription) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", subscriptionsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(paymentsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	header := make([]interface{}, len(xlsxColumns))
	for i, c := range xlsxColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(subscriptionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	paymentHeader := []interface{}{"Subscription ID", "Name", "Date", "Cost", "Currency"}
	if err := f.SetSheetRow(paymentsSheet, "A1", &paymentHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	paymentRow := 2
	for i, sub := range subs {
		row := []interface{}{
			sub.ID, sub.Name, sub.Cost.String(), sub.Currency, string(sub.BillingCycle),
			intCell(sub.CustomDays), intCell(sub.CustomMonths), dateCell(sub.NextDueDate),
			sub.Category, sub.Notes, strconv.FormatBool(sub.Active),
		}
		if err := setRow(f, subscriptionsSheet, i+2, row); err != nil {
			return err
		}

		for _, entry := range SortedHistory(sub.PaymentHistory) {
			row := []interface{}{sub.ID, sub.Name, entry.Date.String(), entry.Cost.String(), sub.Currency}
			if err := setRow(f, paymentsSheet, paymentRow, row); err != nil {
				return err
			}
			paymentRow++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, row []interface{}) error {
	cellName, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func dateCell(d *Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
