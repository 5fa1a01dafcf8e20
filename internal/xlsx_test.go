package internal

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSX_ExportImportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")

	netflix := testSub(CycleMonthly, "2024-06-10")
	netflix.Category = "Streaming"
	netflix.Notes = "family plan"
	netflix.PaymentHistory = []PaymentEntry{
		{Date: date("2024-05-10"), Cost: netflix.Cost},
		{Date: date("2024-04-10"), Cost: netflix.Cost},
	}
	gym := testSub(CycleCustom, "")
	gym.ID = "sub-2"
	gym.Name = "Gym"
	gym.CustomDays = IntPtr(28)
	gym.Currency = "SEK"
	gym.Active = false

	if err := ExportXLSX(path, []Subscription{netflix, gym}); err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}

	subs, err := ImportFile(path, "", "USD")
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}

	got := subs[0]
	if got.ID != "sub-1" || got.Name != "Netflix" || !got.Cost.Equal(netflix.Cost) || got.Currency != "USD" {
		t.Errorf("unexpected first row %+v", got)
	}
	if got.NextDueDate.String() != "2024-06-10" || got.Category != "Streaming" || got.Notes != "family plan" || !got.Active {
		t.Errorf("unexpected first row details %+v", got)
	}

	if len(got.PaymentHistory) != 2 {
		t.Fatalf("expected 2 payments after the round trip, got %+v", got.PaymentHistory)
	}
	if got.PaymentHistory[0].Date.String() != "2024-04-10" || got.PaymentHistory[1].Date.String() != "2024-05-10" || !got.PaymentHistory[1].Cost.Equal(netflix.Cost) {
		t.Errorf("unexpected payment history %+v", got.PaymentHistory)
	}

	got = subs[1]
	if len(got.PaymentHistory) != 0 {
		t.Errorf("gym had no payments, got %+v", got.PaymentHistory)
	}
	if got.BillingCycle != CycleCustom || got.CustomDays == nil || *got.CustomDays != 28 || got.Active || got.HasDueDate() {
		t.Errorf("unexpected second row %+v", got)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Payments")
	if err != nil {
		t.Fatalf("reading payments: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 payment rows, got %d", len(rows))
	}
	if rows[1][2] != "2024-04-10" || rows[2][2] != "2024-05-10" {
		t.Errorf("expected payments sorted by date, got %v", rows)
	}
}

func TestImportXLSX_HeaderDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.xlsx")

	f := excelize.NewFile()
	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "My subscriptions")
	f.SetCellValue(sheet, "B3", "name")
	f.SetCellValue(sheet, "C3", "COST")
	f.SetCellValue(sheet, "D3", "billing cycle")
	f.SetCellValue(sheet, "B4", "Spotify")
	f.SetCellValue(sheet, "C4", "10.99")
	f.SetCellValue(sheet, "D4", "monthly")
	f.SetCellValue(sheet, "B6", "Cloud storage")
	f.SetCellValue(sheet, "C6", "99")
	f.SetCellValue(sheet, "D6", "yearly")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving workbook: %v", err)
	}
	f.Close()

	inputs, err := ImportXLSX(path)
	if err != nil {
		t.Fatalf("ImportXLSX: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("expected 2 rows (blank rows skipped), got %d", len(inputs))
	}
	if inputs[0].Name != "Spotify" || inputs[0].Cost != "10.99" || inputs[1].BillingCycle != "yearly" {
		t.Errorf("unexpected inputs %+v", inputs)
	}
}

func TestImportXLSX_PaymentsMatchedByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.xlsx")

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Name")
	f.SetCellValue("Sheet1", "B1", "Cost")
	f.SetCellValue("Sheet1", "A2", "Spotify")
	f.SetCellValue("Sheet1", "B2", "10.99")
	if _, err := f.NewSheet("Payments"); err != nil {
		t.Fatalf("creating sheet: %v", err)
	}
	f.SetCellValue("Payments", "A1", "Name")
	f.SetCellValue("Payments", "B1", "Date")
	f.SetCellValue("Payments", "C1", "Cost")
	f.SetCellValue("Payments", "A2", "spotify")
	f.SetCellValue("Payments", "B2", "2024-05-01")
	f.SetCellValue("Payments", "C2", "10,99")
	f.SetCellValue("Payments", "A3", "Unknown service")
	f.SetCellValue("Payments", "B3", "2024-05-02")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving workbook: %v", err)
	}
	f.Close()

	inputs, err := ImportXLSX(path)
	if err != nil {
		t.Fatalf("ImportXLSX: %v", err)
	}
	if len(inputs) != 1 || len(inputs[0].PaymentHistory) != 1 {
		t.Fatalf("expected one subscription with one payment, got %+v", inputs)
	}
	entry := inputs[0].PaymentHistory[0]
	if entry.Date.String() != "2024-05-01" || entry.Cost.String() != "10.99" {
		t.Errorf("unexpected payment %+v", entry)
	}
}

func TestImportXLSX_MissingNameColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Cost")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving workbook: %v", err)
	}
	f.Close()

	if _, err := ImportXLSX(path); err == nil {
		t.Errorf("expected an error when the Name column is missing")
	}
}
