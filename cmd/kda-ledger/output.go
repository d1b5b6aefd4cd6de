package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/obsidiansystems/hw-app-kda/internal/config"
	"github.com/obsidiansystems/hw-app-kda/internal/history"
)

type outputFormat string

const (
	formatText  outputFormat = "text"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
	formatTable outputFormat = "table"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case formatText, formatJSON, formatYAML, formatTable:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q", errUsage, s)
	}
}

type signOutput struct {
	RequestID string `json:"request_id" yaml:"request_id"`
	Account   string `json:"account,omitempty" yaml:"account,omitempty"`
	Path      string `json:"path" yaml:"path"`
	Hash      string `json:"hash" yaml:"hash"`
	Signature string `json:"signature" yaml:"signature"`
}

// writeSignResult prints res. The text format prints the bare signature so
// it can be captured by scripts.
func writeSignResult(w io.Writer, format outputFormat, res signOutput) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(res)
	case formatTable:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendRows([]table.Row{
			{"Request", res.RequestID},
			{"Account", res.Account},
			{"Path", res.Path},
			{"Hash", res.Hash},
			{"Signature", res.Signature},
		})
		t.Render()
		return nil
	default:
		_, err := fmt.Fprintln(w, res.Signature)
		return err
	}
}

func renderDevices(w io.Writer, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Index", "Product", "Product ID", "Path"})
	t.AppendSeparator()
	for _, row := range rows {
		t.AppendRow(table.Row{row[0], row[1], row[2], row[3]})
	}
	t.Render()
}

func renderHistory(w io.Writer, records []history.RecordDTO) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Time", "Account", "Path", "Hash", "Signature"})
	t.AppendSeparator()
	for _, r := range records {
		t.AppendRow(table.Row{r.CreatedAt.Format(time.RFC3339), r.Account, r.Path, r.Hash, shorten(r.Signature)})
	}
	t.Render()
}

func renderAccounts(w io.Writer, accounts []config.AccountConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Name", "Path"})
	t.AppendSeparator()
	for _, account := range accounts {
		t.AppendRow(table.Row{account.Name, account.Path})
	}
	t.Render()
}

// shorten keeps the first and last 8 characters of long hex strings.
func shorten(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[:8] + "..." + s[len(s)-8:]
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  kda-ledger sign <path|account> <hash> [-o text|json|yaml|table]
  kda-ledger devices
  kda-ledger history [n]
  kda-ledger accounts

Run without arguments in a terminal for interactive mode.
`)
}
