package quote

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const scheduleSheet = "Sheet1"

// WriteScheduleXLSX writes the quote summary and its installment schedule
// as a single-sheet workbook
func WriteScheduleXLSX(w io.Writer, title string, c Calculations) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{title},
		{},
		{"Precio", c.OriginalPrice},
		{"Descuento", c.DiscountAmount},
		{"Precio final", c.DiscountedPrice},
		{"Cuota inicial", c.InitialPayment},
		{"Saldo", c.RemainingBalance},
		{"Cuota mensual", c.MonthlyInstallment},
		{},
		{"N°", "Fecha", "Monto", "Saldo"},
	}
	for _, in := range c.Installments {
		rows = append(rows, []interface{}{in.Number, in.Date.Format("2006-01-02"), in.Amount, in.Balance})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(scheduleSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
