package expense

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var csvHeader = []string{"Date", "Type", "Description", "Category", "Amount", "Currency", "Payment method", "Tags", "Source", "Needs review"}

type CsvRendererImpl struct {
}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

// Render writes one row per expense. categoryNames resolves category ids to display names.
func (t *CsvRendererImpl) Render(expenses []Expense, categoryNames map[int]string) (string, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	if err := writer.Write(csvHeader); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	for _, e := range expenses {
		row := []string{
			e.Date.Format(time.DateOnly),
			string(e.Type),
			e.Description,
			categoryNames[e.CategoryId],
			e.Amount.StringFixed(2),
			e.Currency,
			string(e.PaymentMethod),
			strings.Join(e.Tags, ";"),
			string(e.Source),
			yesNo(e.NeedsReview),
		}
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
