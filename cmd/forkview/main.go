// Command forkview dials a JSON-RPC endpoint, constructs a forked blockchain overlay against it,
// and prints the overlay's fork point and tip, in the app-wiring idiom of
// cp-program/host/cmd/main.go and cp-node/cmd/networks/cmd.go.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/0xbeny/hardhat/blockchain"
	"github.com/0xbeny/hardhat/rpcclient"
)

var (
	rpcURLFlag = &cli.StringFlag{
		Name:     "rpc-url",
		Usage:    "JSON-RPC endpoint of the chain to fork from",
		EnvVars:  []string{"FORKVIEW_RPC_URL"},
		Required: true,
	}
	forkBlockFlag = &cli.Uint64Flag{
		Name:  "fork-block",
		Usage: "block number to fork from; defaults to the chain's reorg-safe block",
	}
	dialAttemptsFlag = &cli.IntFlag{
		Name:  "dial-attempts",
		Usage: "total number of attempts to dial the RPC endpoint",
		Value: 3,
	}
	callTimeoutFlag = &cli.DurationFlag{
		Name:  "call-timeout",
		Usage: "timeout applied to each individual RPC call",
		Value: 10 * time.Second,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "forkview"
	app.Usage = "inspect a forked blockchain overlay against a live JSON-RPC endpoint"
	app.Flags = []cli.Flag{rpcURLFlag, forkBlockFlag, dialAttemptsFlag, callTimeoutFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Crit("forkview failed", "err", err)
	}
}

func run(ctx *cli.Context) error {
	logger := log.NewLogger(log.NewTerminalHandler(os.Stderr, false))
	log.SetDefault(logger)

	client, err := rpcclient.Dial(ctx.Context, logger, ctx.String(rpcURLFlag.Name),
		rpcclient.WithDialAttempts(ctx.Int(dialAttemptsFlag.Name)),
		rpcclient.WithCallTimeout(ctx.Duration(callTimeoutFlag.Name)),
	)
	if err != nil {
		return fmt.Errorf("dialing rpc endpoint: %w", err)
	}
	defer client.Close()

	var opts []blockchain.Option
	opts = append(opts, blockchain.WithLogger(logger))
	if ctx.IsSet(forkBlockFlag.Name) {
		opts = append(opts, blockchain.WithForkBlockNumber(ctx.Uint64(forkBlockFlag.Name)))
	}

	overlay, err := blockchain.New(context.Background(), client, opts...)
	if err != nil {
		return fmt.Errorf("constructing forked blockchain: %w", err)
	}

	last, err := overlay.LastBlock(context.Background())
	if err != nil {
		return fmt.Errorf("fetching last block: %w", err)
	}
	totalDifficulty, err := overlay.TotalDifficultyByHash(context.Background(), last.Hash())
	if err != nil {
		return fmt.Errorf("fetching total difficulty: %w", err)
	}

	fmt.Printf("chain id:           %d\n", overlay.ChainID())
	fmt.Printf("network id:         %d\n", overlay.NetworkID())
	fmt.Printf("fork block number:  %d\n", overlay.ForkBlockNumber())
	fmt.Printf("last block number:  %d\n", overlay.LastBlockNumber())
	fmt.Printf("last block hash:    %s\n", last.Hash())
	fmt.Printf("total difficulty:   %s\n", totalDifficulty)
	return nil
}
