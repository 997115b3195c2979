package render

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/goliatone/go-lesionform/pkg/model"
)

// Row is one line of the probability table.
type Row struct {
	Class       string  `json:"class"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
	Percent     string  `json:"percent"`
	Predicted   bool    `json:"predicted"`
}

// Label maps a class abbreviation to its full name. Unknown values are
// returned unchanged.
func Label(class string) string {
	if name, ok := model.ClassNames[class]; ok {
		return name
	}
	return class
}

// Table lists every class probability, highest first. Equal probabilities keep
// the order the service sent them in.
func Table(result model.PredictionResult) []Row {
	predictedLabel := Label(result.PredictedClass)

	rows := make([]Row, 0, len(result.ClassProbabilities))
	for _, entry := range result.ClassProbabilities {
		label := Label(entry.Class)
		rows = append(rows, Row{
			Class:       entry.Class,
			Label:       label,
			Probability: entry.Value,
			Percent:     FormatPercent(entry.Value),
			Predicted:   label == predictedLabel || entry.Class == result.PredictedClass,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Probability > rows[j].Probability
	})
	return rows
}

// FormatPercent renders a probability in [0,1] as a percentage with two
// decimals ("93.10%"). Exact ties round away from zero, so 0.00125 renders as
// "0.13%".
func FormatPercent(value float64) string {
	pct := value * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return fmt.Sprintf("%.2f%%", pct)
	}
	sign := ""
	if pct < 0 {
		sign, pct = "-", -pct
	}

	// pct carries 53 significant bits; 256 keeps pct*100+0.5 exact.
	scaled := new(big.Float).SetPrec(256).SetFloat64(pct)
	scaled.Mul(scaled, big.NewFloat(100))
	scaled.Add(scaled, big.NewFloat(0.5))
	hundredths, _ := scaled.Int(nil)

	whole, frac := new(big.Int).QuoRem(hundredths, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s%s.%02d%%", sign, whole.String(), frac.Int64())
}
