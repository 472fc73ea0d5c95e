package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/luca-patrignani/powchain/config"
	"github.com/luca-patrignani/powchain/integrity"
	"github.com/luca-patrignani/powchain/ledger"
)

// demoRounds are mined one block each, in order.
var demoRounds = [][]ledger.Transaction{
	{
		{Sender: "Alice", Recipient: "Bob", Amount: 50},
		{Sender: "Bob", Recipient: "Charlie", Amount: 30},
	},
	{
		{Sender: "Charlie", Recipient: "David", Amount: 20},
		{Sender: "David", Recipient: "Alice", Amount: 15},
	},
}

func main() {
	configFlag := flag.String("config", "", "path to a config file (yaml, json or toml)")
	difficultyFlag := flag.Int("difficulty", -1, "leading zero hex digits required per block, overrides the config")
	minerFlag := flag.String("miner", "", "address credited with mining rewards, overrides the config")
	watchFlag := flag.Bool("watch", false, "verify the chain in the background while the demo runs")
	flag.Parse()

	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [OPTIONS]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Create a new slog handler with the default PTerm logger
	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	logger := slog.New(handler)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logger.Error("failed to load config", "error", err.Error())
		os.Exit(1)
	}
	if *difficultyFlag >= 0 {
		cfg.Difficulty = *difficultyFlag
	}
	if *minerFlag != "" {
		cfg.Miner = *minerFlag
	}

	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Pow", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("Chain", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err != nil {
		logger.Error(err.Error())
	}
	pterm.Print(title)

	if err := run(cfg, logger, *watchFlag); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, watch bool) error {
	opts, err := cfg.ChainOptions()
	if err != nil {
		return err
	}
	opts = append(opts, ledger.WithLogger(logger))

	pterm.Info.Printfln("Creating blockchain with difficulty %d", cfg.Difficulty)
	spinner, _ := pterm.DefaultSpinner.Start("Mining genesis block ...")
	chain, err := ledger.NewChain(cfg.Difficulty, opts...)
	if err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success("Genesis block mined")
	sc := ledger.NewSyncChain(chain)

	var monitor *integrity.Monitor
	if watch {
		monitor = &integrity.Monitor{Chain: sc, Interval: cfg.CheckInterval, Logger: logger}
		if err := monitor.Start(); err != nil {
			return err
		}
		defer monitor.Close()
	}

	for i, round := range demoRounds {
		pterm.Info.Printfln("Adding %d transactions", len(round))
		for _, tx := range round {
			sc.AddTransaction(tx.Sender, tx.Recipient, tx.Amount)
		}
		spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Mining block %d ...", i+1))
		block, err := sc.MinePending(cfg.Miner)
		if err != nil {
			spinner.Fail()
			return err
		}
		spinner.Success(fmt.Sprintf("Block %d mined! Hash: %s (nonce %d)", block.Index, block.Hash, block.Nonce))
	}

	printChain(sc.Blocks())
	pterm.Println(renderPending(sc.Pending()))
	pterm.Println(renderValidity(sc.Verify()))

	pterm.Warning.Println("Tampering with blockchain: block 1, first transaction amount set to 100")
	if err := sc.Tamper(1, func(b *ledger.Block) { b.Transactions[0].Amount = 100 }); err != nil {
		return err
	}
	pterm.Println(renderValidity(sc.Verify()))

	if monitor != nil {
		return awaitViolation(monitor, 5*time.Second)
	}
	return nil
}

// awaitViolation waits until the monitor notices the chain is no longer valid.
func awaitViolation(m *integrity.Monitor, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case r, ok := <-m.Reports:
			if !ok {
				return errors.New("monitor stopped before detecting the tampering")
			}
			if !r.Valid() {
				pterm.Success.Printfln("Background check caught it: %v", r.Err)
				return nil
			}
		case <-deadline:
			return fmt.Errorf("monitor did not detect the tampering within %s", timeout)
		}
	}
}
