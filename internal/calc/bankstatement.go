package calc

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Transaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Balance     float64 `json:"balance"`
}

type StatementSummary struct {
	OpeningBalance   float64       `json:"openingBalance"`
	ClosingBalance   float64       `json:"closingBalance"`
	TotalDeposits    float64       `json:"totalDeposits"`
	TotalWithdrawals float64       `json:"totalWithdrawals"`
	Transactions     []Transaction `json:"transactions"`
}

// ParseTransactions reads a JSON array of transactions or, failing that, a
// text block with one "date | description | amount" per line. Commas also
// separate columns. Lines that do not parse are skipped.
func ParseTransactions(raw string) []Transaction {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var txns []Transaction
		if err := json.Unmarshal([]byte(raw), &txns); err == nil {
			return txns
		}
	}

	var txns []Transaction
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sep := "|"
		if !strings.Contains(line, sep) {
			sep = ","
		}
		parts := strings.Split(line, sep)
		if len(parts) < 3 {
			continue
		}
		amountText := strings.TrimSpace(parts[len(parts)-1])
		amountText = strings.NewReplacer("$", "", ",", "", " ", "").Replace(amountText)
		amount, err := strconv.ParseFloat(amountText, 64)
		if err != nil {
			continue
		}
		txns = append(txns, Transaction{
			Date:        strings.TrimSpace(parts[0]),
			Description: strings.TrimSpace(strings.Join(parts[1:len(parts)-1], sep)),
			Amount:      amount,
		})
	}
	return txns
}

// Summarize runs the balance forward through txns in order.
func Summarize(opening float64, txns []Transaction) StatementSummary {
	s := StatementSummary{
		OpeningBalance: Round2(opening),
		Transactions:   make([]Transaction, 0, len(txns)),
	}
	balance := opening
	var deposits, withdrawals float64
	for _, t := range txns {
		balance += t.Amount
		if t.Amount >= 0 {
			deposits += t.Amount
		} else {
			withdrawals -= t.Amount
		}
		t.Amount = Round2(t.Amount)
		t.Balance = Round2(balance)
		s.Transactions = append(s.Transactions, t)
	}
	s.ClosingBalance = Round2(balance)
	s.TotalDeposits = Round2(deposits)
	s.TotalWithdrawals = Round2(withdrawals)
	return s
}
