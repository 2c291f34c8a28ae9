package cmd

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/c9s/kfeed/pkg/store"
	"github.com/c9s/kfeed/pkg/types"
)

func summaryTableStyle() table.Style {
	style := table.StyleRounded
	style.Format.Header = text.FormatUpper
	style.Color.Header = text.Colors{text.Bold}
	return style
}

// renderSummary writes one row per runtime key followed by the balances.
func renderSummary(w io.Writer, runtime *store.Runtime, balances types.BalanceMap) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(summaryTableStyle())
	t.AppendHeader(table.Row{"Symbol", "Interval", "KLines", "Ready", "Last Close"})

	keys := runtime.Keys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	for _, key := range keys {
		snapshot := runtime.Snapshot(key.Symbol, key.Interval)
		t.AppendRow(table.Row{
			key.Symbol.String(),
			key.Interval.String(),
			snapshot.Length(),
			snapshot.Ready,
			snapshot.Close.At(0).TakeOr(0),
		})
	}

	if len(balances) > 0 {
		t.AppendSeparator()
		for _, currency := range balances.Currencies() {
			t.AppendRow(table.Row{currency, "", "", "", balances[currency]})
		}
	}

	t.Render()
}
