package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsedDepositRow represents one row from a deposits import CSV.
type ParsedDepositRow struct {
	OwnerID     int64
	Amount      decimal.Decimal
	DepositType string // raw deposit type from CSV; validated by the ledger
}

// ParseDepositsCSV parses a deposits import CSV into a slice of ParsedDepositRow.
// Required columns: owner_id, amount
// Optional columns: deposit_type (defaults to "Manual")
// Rows with an empty owner_id are skipped.
func ParseDepositsCSV(r io.Reader) ([]ParsedDepositRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int)
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"owner_id", "amount"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	optionalCol := func(record []string, col string) string {
		idx, ok := colIdx[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []ParsedDepositRow
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: failed to read CSV record: %w", rowNum+1, err)
		}
		rowNum++

		ownerStr := strings.TrimSpace(record[colIdx["owner_id"]])
		if ownerStr == "" {
			continue
		}
		ownerID, err := strconv.ParseInt(ownerStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid owner_id %q", rowNum, ownerStr)
		}

		amountStr := strings.TrimSpace(record[colIdx["amount"]])
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q", rowNum, amountStr)
		}

		depositType := optionalCol(record, "deposit_type")
		if depositType == "" {
			depositType = "Manual"
		}

		rows = append(rows, ParsedDepositRow{
			OwnerID:     ownerID,
			Amount:      amount,
			DepositType: depositType,
		})
	}

	return rows, nil
}
