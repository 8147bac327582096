// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"
	"time"

	ctxPkg "github.com/luoxiv/enervision/pkg/context"
	"github.com/luoxiv/enervision/pkg/internal/service"
	"github.com/luoxiv/enervision/pkg/internal/storage"
	"github.com/luoxiv/enervision/pkg/log"
	"github.com/luoxiv/enervision/pkg/metrics"
	"github.com/luoxiv/enervision/pkg/scheduler"
)

const (
	// JobPendingSweep 待解析积压巡检任务名.
	JobPendingSweep = "asset.pending_sweep"
	// pendingSweepInterval 积压巡检间隔.
	pendingSweepInterval = time.Minute
	// pendingBacklogWarn 积压告警阈值.
	pendingBacklogWarn = 50
)

// RegisterCronJobs 配置业务定时任务：
//   - 每分钟巡检 pending_scene_llm 积压，更新指标并在积压过大时告警
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return sched.AddInterval(JobPendingSweep, pendingSweepInterval, func(ctx context.Context) {
		runPendingSweep(ctx)
	}, baseCtx)
}

// runPendingSweep 统计待场景解析的积压并刷新指标.
// worker 宕机时资产只会在 pending_scene_llm 累积，这里是运维侧的观察哨.
func runPendingSweep(ctx context.Context) {
	l := log.Logger().With().Str("job", JobPendingSweep).Logger()

	svc := service.NewAssetService(ctx)

	pending, err := svc.CountPendingSceneLLM(ctx)
	if err != nil {
		l.Error().Err(err).Msg("count pending failed")
		return
	}

	metrics.PendingSceneLLM.Set(float64(pending))

	if pending >= pendingBacklogWarn {
		l.Warn().Int64("pending", pending).Msg("scene llm backlog is growing, check the worker")
	} else if pending > 0 {
		l.Debug().Int64("pending", pending).Msg("scene llm backlog")
	}
}
