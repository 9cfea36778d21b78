package main

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/chroma/chroma-worker/internal/execution/operators"
	chromalog "github.com/chroma/chroma-worker/internal/log"
	"github.com/chroma/chroma-worker/internal/log/configuration"
	"github.com/chroma/chroma-worker/internal/log/repository"
	"github.com/chroma/chroma-worker/internal/types"
	"github.com/chroma/chroma-worker/internal/utils"
	libs "github.com/chroma/chroma-worker/shared/libs"
	"github.com/pingcap/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

var (
	collectionID string
	offset       int64
	batchSize    int32
	numRecords   int32
	endTimestamp int64
	follow       bool
	pollInterval time.Duration

	cmd = &cobra.Command{
		Use:   "logpuller",
		Short: "Pull pending change records for a collection",
		RunE:  exec,
	}
)

func init() {
	cmd.Flags().StringVarP(&collectionID, "collection-id", "c", "", "Collection to pull logs for")
	cmd.Flags().Int64Var(&offset, "offset", 0, "Log position to start reading after (exclusive)")
	cmd.Flags().Int32Var(&batchSize, "batch-size", 100, "Records requested per read")
	cmd.Flags().Int32Var(&numRecords, "num-records", 0, "Cap on records to pull, 0 means unbounded")
	cmd.Flags().Int64Var(&endTimestamp, "end-timestamp", 0, "Inclusive upper bound on record timestamps, 0 means none")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new records until interrupted")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", time.Second, "Time between polls in follow mode")
	cmd.MarkFlagRequired("collection-id")
}

// follower polls the collection's log for new records until closed. Each
// poll resumes after the last record seen.
type follower struct {
	pullOperator *operators.PullLogsOperator
	collectionID types.UniqueID
	offset       atomic.Int64
	interval     time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
}

func startFollower(pullOperator *operators.PullLogsOperator, collectionID types.UniqueID, startOffset int64, interval time.Duration) (*follower, error) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &follower{
		pullOperator: pullOperator,
		collectionID: collectionID,
		interval:     interval,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	f.offset.Store(startOffset)
	go f.run(ctx)
	return f, nil
}

func (f *follower) run(ctx context.Context) {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			output, err := f.pullOperator.Run(ctx, operators.NewPullLogsInput(f.collectionID, f.offset.Load(), batchSize, numRecords, endTimestamp))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error("failed to pull logs", zap.String("collectionID", f.collectionID.String()), zap.Error(err))
				continue
			}
			records := output.Logs()
			if len(records) == 0 {
				continue
			}
			f.offset.Store(records[len(records)-1].LogID)
			log.Info("pulled logs",
				zap.String("collectionID", f.collectionID.String()),
				zap.Int("count", len(records)),
				zap.Int64("lastOffset", f.offset.Load()))
		}
	}
}

func (f *follower) Close() error {
	f.cancel()
	<-f.done
	return nil
}

func exec(*cobra.Command, []string) error {
	ctx := context.Background()
	id, err := types.Parse(collectionID)
	if err != nil {
		log.Error("collection id format error", zap.String("collectionID", collectionID))
		return err
	}

	config := configuration.NewLogServiceConfiguration()
	conn, err := libs.NewPgConnection(ctx, config)
	if err != nil {
		log.Error("failed to connect to postgres", zap.Error(err))
		return err
	}
	defer conn.Close()
	lr := repository.NewLogRepository(conn)
	if err := lr.MigrateSchema(ctx); err != nil {
		return err
	}

	client := chromalog.NewBackedByRepository(lr, chromalog.DecodeRecord)
	pullOperator := operators.NewPullLogsOperator(client)

	if follow {
		// Poll until interrupted; the signal handler closes the follower.
		utils.RunProcess(func() (io.Closer, error) {
			return startFollower(pullOperator, id, offset, pollInterval)
		})
		return nil
	}

	output, err := pullOperator.Run(ctx, operators.NewPullLogsInput(id, offset, batchSize, numRecords, endTimestamp))
	if err != nil {
		log.Error("failed to pull logs", zap.String("collectionID", collectionID), zap.Error(err))
		return err
	}

	records := output.Logs()
	lastOffset := offset
	if len(records) > 0 {
		lastOffset = records[len(records)-1].LogID
	}
	log.Info("pulled logs",
		zap.String("collectionID", collectionID),
		zap.Int("count", len(records)),
		zap.Int64("lastOffset", lastOffset))
	return nil
}

func main() {
	utils.LogLevel = zerolog.InfoLevel
	utils.ConfigureLogger()
	if _, err := maxprocs.Set(); err != nil {
		log.Fatal("can't set maxprocs", zap.Error(err))
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
