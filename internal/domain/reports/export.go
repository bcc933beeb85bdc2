package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// BuildAgedARXLSX renders the aged A/R report as a workbook: a summary sheet
// with bucket totals and a detail sheet listing each outstanding invoice.
func BuildAgedARXLSX(buckets []AgedARBucket) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	detailSheet := "details"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Aged Accounts Receivable")
	_ = f.SetCellValue(summarySheet, "A3", "Aging Bucket")
	_ = f.SetCellValue(summarySheet, "B3", "Total Outstanding")
	_ = f.SetCellValue(summarySheet, "C3", "Invoices")
	for i, b := range buckets {
		row := i + 4
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), b.AgingBucket)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), b.TotalAmount)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), len(b.Details))
	}

	_ = f.SetCellValue(detailSheet, "A1", "Aging Bucket")
	_ = f.SetCellValue(detailSheet, "B1", "Invoice ID")
	_ = f.SetCellValue(detailSheet, "C1", "Patient")
	_ = f.SetCellValue(detailSheet, "D1", "Outstanding Balance")
	_ = f.SetCellValue(detailSheet, "E1", "Days Past Due")
	row := 2
	for _, b := range buckets {
		for _, d := range b.Details {
			_ = f.SetCellValue(detailSheet, fmt.Sprintf("A%d", row), b.AgingBucket)
			_ = f.SetCellValue(detailSheet, fmt.Sprintf("B%d", row), d.InvoiceID)
			_ = f.SetCellValue(detailSheet, fmt.Sprintf("C%d", row), d.PatientName)
			_ = f.SetCellValue(detailSheet, fmt.Sprintf("D%d", row), d.OutstandingBalance)
			_ = f.SetCellValue(detailSheet, fmt.Sprintf("E%d", row), d.DaysPastDue)
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildMonthlyRevenuePDF renders the monthly revenue summary as a one-page PDF.
func BuildMonthlyRevenuePDF(report *MonthlyRevenue) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Monthly Revenue Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", report.MonthYear))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Total Revenue", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Total Cost", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Net Profit", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(60, 6, fmt.Sprintf("%.2f", report.TotalRevenue), "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 6, fmt.Sprintf("%.2f", report.TotalCost), "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 6, fmt.Sprintf("%.2f", report.NetProfit), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
