package backtest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quantbt/internal/market"
)

// Job 描述批量回测中的一个独立任务（多标的或参数扫描）。
type Job struct {
	Name      string
	Bars      market.Series
	Benchmark *market.Series
	Config    Config
}

// BatchResult 为单个任务的结果。
type BatchResult struct {
	Name   string
	Result Result
}

// RunBatch 并发执行多个互相独立的回测任务。每个任务持有自己的
// 引擎与运行状态，任务之间没有共享可变数据。workers 限制并发度，
// 小于等于0时不限制。
func RunBatch(ctx context.Context, jobs []Job, workers int, logger *zap.Logger) ([]BatchResult, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("backtest: 批量任务为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]BatchResult, len(jobs))

	group, groupCtx := errgroup.WithContext(ctx)
	if workers > 0 {
		group.SetLimit(workers)
	}

	for i, job := range jobs {
		i, job := i, job
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			engine, err := NewEngine(job.Config, nil, logger.With(zap.String("job", job.Name)))
			if err != nil {
				return fmt.Errorf("任务 %s 初始化失败: %w", job.Name, err)
			}

			result, err := engine.Run(job.Bars, job.Benchmark)
			if err != nil {
				return fmt.Errorf("任务 %s 执行失败: %w", job.Name, err)
			}

			results[i] = BatchResult{Name: job.Name, Result: result}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
