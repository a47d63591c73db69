package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hnatran/buddypool/allocator"
	"github.com/hnatran/buddypool/logger"
)

type options struct {
	poolSize uint32
	ops      int
	seed     int64
	jsonOut  bool
	reserve  uint32
	verbose  bool
}

func addFlags(fs *pflag.FlagSet, opts *options) {
	fs.Uint32Var(&opts.poolSize, "pool-size", 1<<20, "backing region size in bytes")
	fs.IntVar(&opts.ops, "ops", 10000, "number of random malloc/free operations")
	fs.Int64Var(&opts.seed, "seed", 1, "workload random seed")
	fs.BoolVar(&opts.jsonOut, "json", false, "print final pool stats as JSON")
	fs.Uint32Var(&opts.reserve, "reserve", 0, "reserve this many leading bytes at init")
	fs.BoolVar(&opts.verbose, "verbose", false, "log every operation")
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "buddy-demo",
		Short: "Run a random malloc/free workload against a buddy pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
		SilenceUsage: true,
	}
	addFlags(cmd.Flags(), opts)

	if err := cmd.Execute(); err != nil {
		logger.L.Error(err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	if opts.verbose {
		logger.L.SetLevel(log.DebugLevel)
	}

	conf := allocator.DefaultConfig
	if opts.reserve > 0 {
		conf.Reserved = []allocator.Range{{Start: 0, Length: opts.reserve}}
	}

	pool, err := allocator.InitWithConfig(make([]byte, opts.poolSize), conf)
	if err != nil {
		return errors.Wrap(err, "failed to initialize pool")
	}
	logger.L.WithField("prefix", "init").
		Infof("pool ready: %d usable bytes", pool.Size())

	rnd := rand.New(rand.NewSource(opts.seed))

	type alloc struct {
		addr   uint32
		length uint32
	}
	var live []alloc
	var served, exhausted int

	for i := 0; i < opts.ops; i++ {
		if len(live) == 0 || rnd.Intn(2) == 0 {
			length := uint32(rnd.Intn(1<<16) + 1)
			addr, err := pool.Malloc(length)
			if err != nil {
				exhausted++
				logger.L.WithField("prefix", "malloc").
					Debugf("length=%d: %v", length, err)
				continue
			}
			served++
			if opts.verbose {
				logger.L.WithField("prefix", "malloc").
					Debugf("length=%d addr=%#x", length, addr)
			}
			// Touch the block to show the view is writable.
			pool.Block(addr, length)[0] = byte(i)
			live = append(live, alloc{addr: addr, length: length})
		} else {
			pick := rnd.Intn(len(live))
			pool.Free(live[pick].addr, live[pick].length)
			live[pick] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}

	for _, a := range live {
		pool.Free(a.addr, a.length)
	}

	logger.L.WithField("prefix", "run").
		Infof("%d operations: served=%d exhausted=%d", opts.ops, served, exhausted)

	st := pool.Stats()
	if opts.jsonOut {
		out, err := sonic.MarshalString(st)
		if err != nil {
			return errors.Wrap(err, "failed to marshal stats")
		}
		fmt.Println(out)
		return nil
	}

	logger.L.WithField("prefix", "stats").
		Infof("total=%d free=%d allocated=%d reserved=%d",
			st.TotalBytes, st.FreeBytes, st.AllocatedBytes, st.ReservedBytes)
	return nil
}
