package learning

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
)

// WordWeight describes how strongly one vocabulary word points to a class
type WordWeight struct {
	Word  string  `json:"word"`
	Index int     `json:"index"`
	BSpam float64 `json:"b_spam"`
	BHam  float64 `json:"b_ham"`

	// log(b_spam / b_ham): positive leans spam, negative leans ham
	Weight float64 `json:"weight"`
}

// TopWords returns the n words with the strongest presence log-odds towards
// spam (spam = true) or ham. n <= 0 returns the full ranking.
func TopWords(m *Model, n int, spam bool) []WordWeight {
	words := make([]WordWeight, 0, m.vocab.Len())
	for i := 0; i < m.vocab.Len(); i++ {
		words = append(words, WordWeight{
			Word:   m.vocab.Word(i),
			Index:  i,
			BSpam:  m.bSpam[i],
			BHam:   m.bHam[i],
			Weight: m.presentTerms[i],
		})
	}

	sort.SliceStable(words, func(i, j int) bool {
		if spam {
			return words[i].Weight > words[j].Weight
		}
		return words[i].Weight < words[j].Weight
	})

	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return words
}

// PrintStats writes a human-readable summary of the model
func PrintStats(w io.Writer, name string, m *Model, top int) {
	fmt.Fprintf(w, "🧠 Naive Bayes Model: %s\n", name)
	fmt.Fprintf(w, "════════════════════════════════════════\n")
	fmt.Fprintf(w, "Training Data:\n")
	fmt.Fprintf(w, "  Spam documents: %d\n", m.mSpam)
	fmt.Fprintf(w, "  Ham documents: %d\n", m.mHam)
	fmt.Fprintf(w, "  Vocabulary size: %d\n", m.vocab.Len())
	fmt.Fprintf(w, "  Smoothing factor: %.2f\n", m.smoothing)
	if !m.trainedAt.IsZero() {
		fmt.Fprintf(w, "  Trained: %s\n", m.trainedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "\nPriors:\n")
	fmt.Fprintf(w, "  P(spam) = %.2f %%\n", m.pSpam*100)
	fmt.Fprintf(w, "  P(ham)  = %.2f %%\n", m.pHam*100)

	if top <= 0 || m.vocab.Len() == 0 {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "\n📈 Top Spam Words:\n")
	writeWordTable(w, TopWords(m, top, true))

	fmt.Fprintf(w, "\n📉 Top Ham Words:\n")
	writeWordTable(w, TopWords(m, top, false))
	fmt.Fprintln(w)
}

func writeWordTable(w io.Writer, words []WordWeight) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Word", "b_spam", "b_ham", "log-odds"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, word := range words {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			word.Word,
			fmt.Sprintf("%.3f", word.BSpam),
			fmt.Sprintf("%.3f", word.BHam),
			fmt.Sprintf("%+.3f", word.Weight),
		})
	}
	table.Render()
}
