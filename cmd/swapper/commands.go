package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swapScope/internal/adapter"
	"swapScope/internal/model"
)

// Arbitrum One tokens used by the demo.
const (
	demoWETH   = "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"
	demoUSDCe  = "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8"
	demoAmount = "1000000000000000000"
)

// run wires signal handling and app setup around fn.
func run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <token-in> <token-out> <amount>",
		Short: "Quote an exact input swap (amount in base units)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				q, err := a.adapter.GetQuote(ctx, adapter.QuoteRequest{
					TokenIn:  args[0],
					TokenOut: args[1],
					Amount:   args[2],
					ChainID:  a.cfg.ChainID,
				})
				if err != nil {
					return err
				}
				printQuote(cmd.ErrOrStderr(), q)
				return writeJSON(cmd.OutOrStdout(), q)
			})
		},
	}
}

func newPoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool <pool-address>",
		Short: "Read a pool's price, liquidity and tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				state, err := a.adapter.GetPoolState(ctx, adapter.PoolRequest{Pool: args[0], ChainID: a.cfg.ChainID})
				if err != nil {
					return err
				}
				printPool(cmd.ErrOrStderr(), state)
				return writeJSON(cmd.OutOrStdout(), state)
			})
		},
	}
}

func newBuildTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build-tx <token-in> <token-out> <amount-in>",
		Short: "Build an unsigned exactInputSingle swap through the 0.05% pool",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				tx, err := a.adapter.BuildSwapTx(ctx, adapter.SwapRequest{
					TokenIn:   args[0],
					TokenOut:  args[1],
					AmountIn:  args[2],
					Recipient: a.cfg.Recipient,
					ChainID:   a.cfg.ChainID,
				})
				if err != nil {
					return err
				}
				printTx(cmd.ErrOrStderr(), tx)
				return writeJSON(cmd.OutOrStdout(), tx)
			})
		},
	}
}

type demoReport struct {
	Quote model.Quote      `json:"quote"`
	Pool  model.PoolState  `json:"pool"`
	Tx    model.UnsignedTx `json:"tx"`
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Quote 1 WETH to USDC.e on Arbitrum, read its pool and build the swap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				if a.cfg.Recipient == "" {
					return fmt.Errorf("demo needs a recipient: set --recipient or WALLET_ADDRESS")
				}
				chainID := a.cfg.ChainID
				var report demoReport

				q, err := a.adapter.GetQuote(ctx, adapter.QuoteRequest{
					TokenIn: demoWETH, TokenOut: demoUSDCe, Amount: demoAmount, ChainID: chainID,
				})
				if err != nil {
					return fmt.Errorf("quote: %w", err)
				}
				report.Quote = q
				printQuote(cmd.ErrOrStderr(), q)

				pool, err := adapter.PoolFor(chainID, demoWETH, demoUSDCe)
				if err != nil {
					return err
				}
				state, err := a.adapter.GetPoolState(ctx, adapter.PoolRequest{Pool: pool, ChainID: chainID})
				if err != nil {
					return fmt.Errorf("pool state: %w", err)
				}
				report.Pool = state
				printPool(cmd.ErrOrStderr(), state)

				tx, err := a.adapter.BuildSwapTx(ctx, adapter.SwapRequest{
					TokenIn: demoWETH, TokenOut: demoUSDCe, AmountIn: demoAmount,
					Recipient: a.cfg.Recipient, ChainID: chainID,
				})
				if err != nil {
					return fmt.Errorf("build tx: %w", err)
				}
				report.Tx = tx
				printTx(cmd.ErrOrStderr(), tx)

				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func printQuote(w io.Writer, q model.Quote) {
	source := color.YellowString(string(q.Source))
	if q.Source == model.SourceRouter {
		source = color.GreenString(string(q.Source))
	}
	fmt.Fprintf(w, "quote  %s via %s [%s]\n",
		color.CyanString(q.AmountOut.ToBig().String()), strings.Join(q.Route, " > "), source)
}

func printPool(w io.Writer, s model.PoolState) {
	fmt.Fprintf(w, "pool   %s fee=%d tick=%d liquidity=%s\n",
		color.CyanString(s.Address), s.Fee, s.Tick, s.Liquidity)
}

func printTx(w io.Writer, tx model.UnsignedTx) {
	fmt.Fprintf(w, "tx     to=%s min_out=%s deadline=%d\n",
		color.CyanString(tx.To), color.GreenString(tx.MinAmountOut), tx.Deadline)
}
