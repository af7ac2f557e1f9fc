package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"seo-writer-api/internal/config"
	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/repository"
	"seo-writer-api/internal/domain/service"
	apperrors "seo-writer-api/pkg/errors"
	"seo-writer-api/pkg/logger"
	"seo-writer-api/pkg/metrics"
)

// RunQueue 投递待执行的运行
type RunQueue interface {
	Enqueue(ctx context.Context, runID string) error
}

// RunService 服务端流水线运行：创建、查询与执行
// 执行顺序 content-type -> (user-intent, title, better-have) -> action-plan，每阶段完成后落库
type RunService struct {
	stages    *Service
	runs      repository.PipelineRunRepository
	documents service.DocumentStore
	queue     RunQueue
	parallel  bool
}

// NewRunService 创建运行服务
func NewRunService(cfg *config.Config, stages *Service, runs repository.PipelineRunRepository, documents service.DocumentStore, queue RunQueue) *RunService {
	return &RunService{
		stages:    stages,
		runs:      runs,
		documents: documents,
		queue:     queue,
		parallel:  cfg.Pipeline.Runs.Parallel,
	}
}

// Create 创建运行并入队；相同幂等键返回已有运行，created 为 false
func (s *RunService) Create(ctx context.Context, req *PipelineRunRequest, idempotencyKey string) (*entity.PipelineRun, bool, error) {
	if idempotencyKey != "" {
		existing, err := s.runs.GetByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, false, apperrors.Execution(err, "Failed to look up pipeline run")
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	doc, err := s.documents.FetchByID(ctx, req.SerpDocID)
	if err != nil {
		return nil, false, apperrors.Execution(err, "Failed to load SERP document")
	}
	if doc == nil {
		return nil, false, apperrors.NotFound("SERP document not found", "no SERP document with id "+req.SerpDocID)
	}

	run := entity.NewPipelineRun(doc.ID, doc.MainKeyword, req.MediaSiteName)
	run.SelectedClusterName = req.SelectedClusterName
	if req.KeywordReport != nil {
		raw, err := json.Marshal(req.KeywordReport)
		if err != nil {
			return nil, false, apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid keyword report")
		}
		run.KeywordReport = raw
	}
	if idempotencyKey != "" {
		run.IdempotencyKey = &idempotencyKey
	}

	if err := s.runs.Create(ctx, run); err != nil {
		return nil, false, apperrors.Execution(err, "Failed to create pipeline run")
	}
	ctx = logger.WithContext(ctx, logger.RunIDKey, run.ID)

	if err := s.queue.Enqueue(ctx, run.ID); err != nil {
		run.Fail(entity.StageContentType, "failed to enqueue run")
		if uerr := s.runs.Update(ctx, run); uerr != nil {
			logger.Error(ctx, "failed to mark run as failed", uerr)
		}
		metrics.PipelineRunTotal.WithLabelValues(string(entity.RunStatusFailed)).Inc()
		return nil, false, apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "Failed to enqueue pipeline run")
	}

	metrics.PipelineRunTotal.WithLabelValues(string(entity.RunStatusPending)).Inc()
	logger.Info(ctx, "pipeline run enqueued", "serp_doc_id", run.SerpDocID)
	return run, true, nil
}

// Get 查询运行状态
func (s *RunService) Get(ctx context.Context, id string) (*entity.PipelineRun, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Execution(err, "Failed to load pipeline run")
	}
	if run == nil {
		return nil, apperrors.NotFound("Pipeline run not found", "no pipeline run with id "+id)
	}
	return run, nil
}

// runState 串行化并发阶段对运行记录的修改与落库
type runState struct {
	mu   sync.Mutex
	run  *entity.PipelineRun
	repo repository.PipelineRunRepository
}

func (st *runState) begin(ctx context.Context, stage entity.Stage) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.run.BeginStage(stage)
	return st.repo.Update(ctx, st.run)
}

func (st *runState) complete(ctx context.Context, stage entity.Stage, output any) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.run.CompleteStage(stage, output); err != nil {
		return err
	}
	return st.repo.Update(ctx, st.run)
}

// stageError 阶段执行失败，运行进入 failed 且不再重试
type stageError struct {
	stage entity.Stage
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error { return e.err }

// Execute 执行一次运行；返回错误表示基础设施故障，消息会被重新投递
func (s *RunService) Execute(ctx context.Context, runID string) error {
	ctx = logger.WithContext(ctx, logger.RunIDKey, runID)

	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	if run == nil {
		logger.Warn(ctx, "pipeline run not found, dropping message")
		return nil
	}
	if run.IsTerminal() {
		logger.Info(ctx, "pipeline run already finished", "status", string(run.Status))
		return nil
	}

	run.Start()
	if err := s.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	metrics.PipelineRunTotal.WithLabelValues(string(entity.RunStatusRunning)).Inc()

	st := &runState{run: run, repo: s.runs}
	err = s.execute(ctx, st)

	var se *stageError
	switch {
	case err == nil:
		run.Finish()
	case errors.As(err, &se):
		msg := se.err.Error()
		if appErr := apperrors.AsAppError(se.err); appErr.Detail != "" {
			msg = appErr.Message + ": " + appErr.Detail
		}
		run.Fail(se.stage, msg)
		logger.Error(ctx, "pipeline run failed", se.err, "stage", se.stage.String())
	default:
		return err
	}

	if err := s.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	metrics.PipelineRunTotal.WithLabelValues(string(run.Status)).Inc()
	logger.Info(ctx, "pipeline run finished", "status", string(run.Status))
	return nil
}

func (s *RunService) execute(ctx context.Context, st *runState) error {
	run := st.run

	if err := st.begin(ctx, entity.StageContentType); err != nil {
		return err
	}
	doc, err := s.documents.FetchByID(ctx, run.SerpDocID)
	if err != nil {
		return fmt.Errorf("load serp document: %w", err)
	}
	if doc == nil {
		return &stageError{stage: entity.StageContentType, err: fmt.Errorf("SERP document %s not found", run.SerpDocID)}
	}
	serp, err := SerpContextFromDocument(doc)
	if err != nil {
		return &stageError{stage: entity.StageContentType, err: err}
	}

	contentType, err := s.stages.ContentType(ctx, &ContentTypeRequest{SerpDocID: run.SerpDocID})
	if err != nil {
		return &stageError{stage: entity.StageContentType, err: err}
	}
	if err := st.complete(ctx, entity.StageContentType, contentType); err != nil {
		return err
	}

	var (
		intent     *UserIntentResult
		title      *AnalysisResult
		betterHave *AnalysisResult
	)
	g, gctx := errgroup.WithContext(ctx)
	if !s.parallel {
		g.SetLimit(1)
	}
	step := func(stage entity.Stage, fn func(ctx context.Context) (any, error)) {
		g.Go(func() error {
			if err := st.begin(gctx, stage); err != nil {
				return err
			}
			out, err := fn(gctx)
			if err != nil {
				return &stageError{stage: stage, err: err}
			}
			return st.complete(gctx, stage, out)
		})
	}
	step(entity.StageUserIntent, func(ctx context.Context) (any, error) {
		var err error
		intent, err = s.stages.UserIntent(ctx, &UserIntentRequest{
			SerpDocID:      run.SerpDocID,
			Keyword:        run.Keyword,
			OrganicResults: serp.OrganicResults,
			RelatedQueries: serp.RelatedQueries,
		})
		return intent, err
	})
	step(entity.StageTitle, func(ctx context.Context) (any, error) {
		var err error
		title, err = s.stages.Title(ctx, &TitleRequest{
			SerpDocID:      run.SerpDocID,
			Keyword:        run.Keyword,
			OrganicResults: serp.OrganicResults,
		})
		return title, err
	})
	step(entity.StageBetterHave, func(ctx context.Context) (any, error) {
		var err error
		betterHave, err = s.stages.BetterHave(ctx, &BetterHaveRequest{
			SerpDocID:      run.SerpDocID,
			Keyword:        run.Keyword,
			OrganicResults: serp.OrganicResults,
			PeopleAlsoAsk:  serp.PeopleAlsoAsk,
			RelatedQueries: serp.RelatedQueries,
			AIOverview:     serp.AIOverview,
		})
		return betterHave, err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	var keywordReport map[string]any
	if len(run.KeywordReport) > 0 {
		if err := json.Unmarshal(run.KeywordReport, &keywordReport); err != nil {
			return &stageError{stage: entity.StageActionPlan, err: fmt.Errorf("decode keyword report: %w", err)}
		}
	}

	if err := st.begin(ctx, entity.StageActionPlan); err != nil {
		return err
	}
	plan, err := s.stages.ActionPlan(ctx, &ActionPlanRequest{
		Keyword:                      run.Keyword,
		MediaSiteName:                run.MediaSiteName,
		ContentTypeReportText:        &contentType.RecommendationText,
		UserIntentReportText:         &intent.AnalysisText,
		TitleRecommendationText:      &title.RecommendationText,
		BetterHaveRecommendationText: &betterHave.RecommendationText,
		KeywordReport:                keywordReport,
		SelectedClusterName:          run.SelectedClusterName,
	})
	if err != nil {
		return &stageError{stage: entity.StageActionPlan, err: err}
	}
	return st.complete(ctx, entity.StageActionPlan, plan)
}
