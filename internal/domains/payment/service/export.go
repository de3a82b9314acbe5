package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"evcharge-backend/internal/domains/payment/model"
)

const exportSheetName = "Payments"

// ExportPayments builds an XLSX of payment records created in [from, to)
func (s *paymentService) ExportPayments(ctx context.Context, req model.ExportPaymentsRequest) (*excelize.File, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	rows, err := s.recordRepo.ListBetween(ctx, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}

	f, err := buildPaymentsExcelFile(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}
	return f, nil
}

func buildPaymentsExcelFile(rows []model.PaymentRecordRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}

	headers := []string{
		"Txn Ref",
		"Invoice",
		"Method",
		"Amount (VND)",
		"Gateway Transaction No",
		"Bank Code",
		"Pay Date",
		"Created At",
	}
	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(exportSheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(exportSheetName, "A1", lastHeader, headerStyle)
	}

	// Data rows bắt đầu từ row 2
	for i, r := range rows {
		rowNum := i + 2
		cell := func(col int) string {
			c, _ := excelize.CoordinatesToCellName(col, rowNum)
			return c
		}

		f.SetCellValue(exportSheetName, cell(1), r.TxnRef)
		f.SetCellValue(exportSheetName, cell(2), r.InvoiceCode)
		f.SetCellValue(exportSheetName, cell(3), r.Method)
		f.SetCellValue(exportSheetName, cell(4), r.Amount.IntPart())
		f.SetCellValue(exportSheetName, cell(5), r.GatewayTransactionNo)
		f.SetCellValue(exportSheetName, cell(6), r.BankCode)
		f.SetCellValue(exportSheetName, cell(7), r.PayDate)
		f.SetCellValue(exportSheetName, cell(8), r.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return f, nil
}
