// Package worker 实现场景 LLM 解析的带外循环.
//
// 每轮：选一个候选资产（status=pending_scene_llm 且缺少目标模式负载），
// 读图、组提示词、调视觉 LLM、解析为目标模式；成功则单事务落负载并推进终态.
// 与摄取面只通过数据库状态协调，worker 可随时重启，不会产生重复目标负载.
package worker

import (
	"context"
	"strings"
	"time"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/llm"
	"github.com/luoxiv/enervision/pkg/internal/model"
	"github.com/luoxiv/enervision/pkg/internal/schema"
	"github.com/luoxiv/enervision/pkg/internal/service"
	nlog "github.com/luoxiv/enervision/pkg/log"
	"github.com/luoxiv/enervision/pkg/metrics"
)

// Worker 场景 LLM 解析循环.
type Worker struct {
	svc          *service.AssetService
	client       *llm.Client
	pollInterval time.Duration
	maxAttempts  int

	// 进程内的不可解析记账. 达到上限的资产追加诊断负载后跳过，
	// 直到进程重启再给机会（模型或提示词可能已更新）.
	attempts  map[string]int
	abandoned map[string]struct{}
}

// New 按全局配置构建 worker.
func New(ctx context.Context) (*Worker, error) {
	cfg := configs.GetConfig()

	client, err := llm.NewClient(&cfg.LLM)
	if err != nil {
		return nil, err
	}

	return &Worker{
		svc:          service.NewAssetService(ctx),
		client:       client,
		pollInterval: cfg.Worker.GetPollInterval(),
		maxAttempts:  cfg.Worker.MaxParseAttempts,
		attempts:     make(map[string]int),
		abandoned:    make(map[string]struct{}),
	}, nil
}

// NewWith 显式注入依赖，供测试使用.
func NewWith(svc *service.AssetService, client *llm.Client, pollInterval time.Duration, maxAttempts int) *Worker {
	return &Worker{
		svc:          svc,
		client:       client,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		attempts:     make(map[string]int),
		abandoned:    make(map[string]struct{}),
	}
}

// Run 运行解析循环直到 ctx 取消. 每轮之间在迭代边界检查取消信号.
func (w *Worker) Run(ctx context.Context) error {
	logger := nlog.Logger()
	logger.Info().Dur("poll_interval", w.pollInterval).Msg("scene llm worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		parsed, err := w.ProcessOne(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("worker iteration failed")
		}

		// 仅在成功解析后立即取下一个候选（快速消化积压）；
		// 任何失败都等满一个轮询周期，端点故障时不得热循环
		if parsed && err == nil {
			select {
			case <-ctx.Done():
				logger.Info().Msg("scene llm worker stopped")
				return ctx.Err()
			default:
				continue
			}
		}

		select {
		case <-ctx.Done():
			logger.Info().Msg("scene llm worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessOne 处理一个候选资产. 仅在成功解析并落库时返回 true，
// Run 据此决定是立即继续还是退避到下一个轮询周期.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	if pending, err := w.svc.CountPendingSceneLLM(ctx); err == nil {
		metrics.PendingSceneLLM.Set(float64(pending))
	}

	asset, err := w.svc.NextPendingSceneAsset(ctx, w.abandonedIDs())
	if err != nil {
		return false, err
	}

	if asset == nil {
		return false, nil
	}

	outcome := w.parseAsset(ctx, asset)
	role := roleLabel(asset.ContentRole)

	switch outcome.Kind {
	case llm.OutcomeOK:
		metrics.LLMCalls.WithLabelValues(role, "ok").Inc()
		delete(w.attempts, asset.ID)

		return true, nil

	case llm.OutcomeTransient:
		metrics.LLMCalls.WithLabelValues(role, "transient").Inc()
		nlog.Logger().Warn().
			Err(outcome.Err).
			Str("asset_id", asset.ID).
			Msg("transient llm failure, will retry")

		return false, nil

	case llm.OutcomePermanent:
		metrics.LLMCalls.WithLabelValues(role, "permanent").Inc()
		nlog.Logger().Error().
			Err(outcome.Err).
			Str("asset_id", asset.ID).
			Msg("permanent llm call failure, check llm configuration")

		return false, nil

	default: // OutcomeUnparseable
		metrics.LLMCalls.WithLabelValues(role, "unparseable").Inc()
		w.attempts[asset.ID]++

		nlog.Logger().Warn().
			Err(outcome.Err).
			Str("asset_id", asset.ID).
			Int("attempt", w.attempts[asset.ID]).
			Msg("llm response unparseable")

		if w.attempts[asset.ID] >= w.maxAttempts {
			w.abandoned[asset.ID] = struct{}{}

			if err := w.svc.RecordLLMUnparseable(ctx, asset, w.attempts[asset.ID]); err != nil {
				return false, err
			}
		}

		return false, nil
	}
}

// parseAsset 单次解析尝试：读图、提示词、LLM 调用、模式解析.
func (w *Worker) parseAsset(ctx context.Context, asset *model.Asset) llm.Outcome {
	image, contentType, err := w.svc.ReadAssetImage(ctx, asset)
	if err != nil {
		return llm.TransientFailure(err)
	}

	targetSchema := schema.TargetSchemaForRole(strings.ToLower(asset.ContentRole))

	prompt, err := w.buildPrompt(ctx, asset)
	if err != nil {
		return llm.TransientFailure(err)
	}

	raw, err := w.client.AnalyzeImage(ctx, image, contentType, prompt)
	if err != nil {
		// 瞬态（超时、限流、5xx）与永久（鉴权、请求格式）分开记录；
		// 两者都保持 pending，永久错误由运维修正配置后自动恢复
		return llm.ClassifyCallError(err)
	}

	payload, err := llm.ParseResponse(raw, targetSchema)
	if err != nil {
		return llm.UnparseableFailure(raw, err)
	}

	if _, err := w.svc.CompleteSceneParse(ctx, asset, targetSchema, payload); err != nil {
		return llm.TransientFailure(err)
	}

	return llm.Ok(payload)
}

// buildPrompt 按角色组装提示词. 备注原文必须逐字进入提示词.
func (w *Worker) buildPrompt(ctx context.Context, asset *model.Asset) (string, error) {
	switch strings.ToLower(asset.ContentRole) {
	case model.ContentRoleMeter:
		ocrText, err := w.svc.LatestAnnotationText(ctx, asset.ID)
		if err != nil {
			return "", err
		}

		return llm.MeterReadingPrompt(asset.Description, ocrText), nil

	case model.ContentRoleNameplate:
		// 正常流程铭牌不进 worker，防御性处理
		return llm.NameplatePrompt(asset.Description), nil

	default:
		return llm.SceneIssuePrompt(asset.Description), nil
	}
}

func (w *Worker) abandonedIDs() []string {
	if len(w.abandoned) == 0 {
		return nil
	}

	ids := make([]string, 0, len(w.abandoned))
	for id := range w.abandoned {
		ids = append(ids, id)
	}

	return ids
}

func roleLabel(contentRole string) string {
	if contentRole == "" {
		return "unknown"
	}

	return strings.ToLower(contentRole)
}
