package main

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/powchain/ledger"
)

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func renderTransactions(txs []ledger.Transaction) string {
	if len(txs) == 0 {
		return "  (none)\n"
	}
	var sb strings.Builder
	for _, tx := range txs {
		sb.WriteString(pterm.Sprintfln("  %s -> %s: %s", tx.Sender, tx.Recipient, formatAmount(tx.Amount)))
	}
	return sb.String()
}

func renderBlock(b ledger.Block) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(2).WithTopPadding(1).WithBottomPadding(1)
	var sb strings.Builder
	sb.WriteString(pterm.Sprintfln("Timestamp: %s", b.Time().UTC().Format(time.RFC3339Nano)))
	sb.WriteString(pterm.Sprintfln("Previous Hash: %s", b.PrevHash))
	sb.WriteString(pterm.Sprintfln("Hash: %s", pterm.LightGreen(b.Hash)))
	sb.WriteString(pterm.Sprintfln("Nonce: %d", b.Nonce))
	sb.WriteString("Transactions:\n")
	sb.WriteString(renderTransactions(b.Transactions))
	title := pterm.LightYellow("|BLOCK #" + strconv.Itoa(b.Index) + "|")
	return pbox.WithTitle(title).WithTitleTopCenter().Sprint(strings.TrimSuffix(sb.String(), "\n"))
}

func printChain(blocks []ledger.Block) {
	pterm.DefaultSection.Println("BLOCKCHAIN")
	for _, b := range blocks {
		pterm.Println(renderBlock(b))
	}
}

func renderPending(txs []ledger.Transaction) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(2)
	return pbox.WithTitle(pterm.LightCyan("|PENDING|")).WithTitleTopLeft().Sprint(strings.TrimSuffix(renderTransactions(txs), "\n"))
}

// renderValidity describes the outcome of a chain verification, naming the
// failing block and check when there is one.
func renderValidity(err error) string {
	if err == nil {
		return pterm.LightGreen("Is blockchain valid? true")
	}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		return pterm.LightRed("Is blockchain valid? false") +
			pterm.Sprintf(" (block %d: %v)", verr.Index, verr.Err)
	}
	return pterm.LightRed("Is blockchain valid? false") + pterm.Sprintf(" (%v)", err)
}
