// Command fiberbench drives the runtime's example workloads and reports
// scheduler statistics, useful for eyeballing throughput and stealing
// behavior on a given machine.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"

	fiber "github.com/joeycumines/go-fiber"
)

var (
	flagWorkers int
	flagCount   int
	flagVerbose bool
)

func newSystem() *fiber.System {
	var logger *logiface.Logger[logiface.Event]
	if flagVerbose {
		logger = stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
			stumpy.L.WithLevel(logiface.LevelDebug),
		).Logger()
	}
	return fiber.New(fiber.WithWorkers(flagWorkers), fiber.WithLogger(logger))
}

func report(sys *fiber.System, elapsed time.Duration) {
	stats := sys.Stats()
	fmt.Printf("workers=%d spawned=%d steals=%d wakes=%d dead_letters=%d elapsed=%s\n",
		stats.Workers, stats.Spawned, stats.Steals, stats.Wakes, stats.DeadLetters, elapsed)
}

func awaitQuiescence(sys *fiber.System) {
	finished := sys.AllFibersFinished()
	for sys.Stats().Running > 0 {
		finished.Await(sys.MainContext())
	}
}

func newPingpongCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pingpong",
		Short: "Two fibers exchange events for --count rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys := newSystem()
			defer sys.Shutdown()

			ping := fiber.NewEvent[fiber.Unit]("ping")
			pong := fiber.NewEvent[fiber.Unit]("pong")
			initEvt := fiber.NewEvent[fiber.FiberRef]("init")
			rounds := flagCount

			start := time.Now()
			a := sys.NewBuilder().Named("ping").Run(func(c *fiber.Context) {
				peer := initEvt.Await(c)
				for i := 0; i < rounds; i++ {
					ping.Send(peer, fiber.Unit{})
					pong.Await(c)
				}
			})
			b := sys.NewBuilder().Named("pong").Run(func(c *fiber.Context) {
				peer := initEvt.Await(c)
				for i := 0; i < rounds; i++ {
					ping.Await(c)
					pong.Send(peer, fiber.Unit{})
				}
			})
			initEvt.Send(a, b)
			initEvt.Send(b, a)

			awaitQuiescence(sys)
			report(sys, time.Since(start))
			return nil
		},
	}
}

func newSpawnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawn",
		Short: "Spawn --count fibers that immediately return",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys := newSystem()
			defer sys.Shutdown()

			start := time.Now()
			for i := 0; i < flagCount; i++ {
				sys.NewBuilder().Run(func(c *fiber.Context) {})
			}
			awaitQuiescence(sys)
			report(sys, time.Since(start))
			return nil
		},
	}
}

func newFanoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fanout",
		Short: "Fulfill one promise awaited by --count fibers",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys := newSystem()
			defer sys.Shutdown()

			p := fiber.NewPromise[int]()
			start := time.Now()
			for i := 0; i < flagCount; i++ {
				sys.NewBuilder().Run(func(c *fiber.Context) {
					p.Await(c)
				})
			}
			sys.NewBuilder().Run(func(c *fiber.Context) {
				p.Fulfill(1)
			})
			awaitQuiescence(sys)
			report(sys, time.Since(start))
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:           "fiberbench",
		Short:         "Benchmark workloads for the fiber runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVarP(&flagWorkers, "workers", "w", 0, "worker schedulers (0 = one per CPU)")
	root.PersistentFlags().IntVarP(&flagCount, "count", "n", 100000, "iteration or fiber count")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(newPingpongCmd(), newSpawnCmd(), newFanoutCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
