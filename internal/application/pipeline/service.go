// Package pipeline 实现内容分析流水线各阶段的执行器
package pipeline

import (
	"context"
	"time"

	"seo-writer-api/internal/config"
	"seo-writer-api/internal/domain/entity"
	"seo-writer-api/internal/domain/service"
	"seo-writer-api/internal/workflow/chain"
	wfmodel "seo-writer-api/internal/workflow/model"
	wfnode "seo-writer-api/internal/workflow/node"
	workflowport "seo-writer-api/internal/workflow/port"
	apperrors "seo-writer-api/pkg/errors"
	"seo-writer-api/pkg/logger"
	"seo-writer-api/pkg/metrics"
)

// ContentTypeResult 内容类型分析结果
type ContentTypeResult struct {
	SerpDocID          string         `json:"serpDocId"`
	Keyword            string         `json:"keyword"`
	AnalysisJSON       map[string]any `json:"analysisJson"`
	RecommendationText string         `json:"recommendationText"`
}

// UserIntentResult 搜索意图分析结果
type UserIntentResult struct {
	AnalysisText string `json:"analysisText"`
}

// AnalysisResult 标题与内容缺口分析结果
type AnalysisResult struct {
	AnalysisJSON       map[string]any `json:"analysisJson"`
	RecommendationText string         `json:"recommendationText"`
}

// ActionPlanResult 行动计划
type ActionPlanResult struct {
	ActionPlanText string `json:"actionPlanText"`
}

// Service 流水线阶段执行器，各方法互相独立，可按任意顺序调用
type Service struct {
	cfg       config.PipelineConfig
	llm       config.LLMConfig
	documents service.DocumentStore
	pages     service.PageFetcher

	contentType *chain.AnalysisChain
	title       *chain.AnalysisChain
	betterHave  *chain.AnalysisChain
	intent      *chain.UserIntentChain
	actionPlan  *chain.ActionPlanChain
	article     *chain.ArticleChain
	persona     *chain.PersonaChain
}

// NewService 创建执行器
func NewService(cfg *config.Config, factory workflowport.ChatModelFactory, documents service.DocumentStore, pages service.PageFetcher) *Service {
	maxResults := cfg.Pipeline.MaxSerpResults
	return &Service{
		cfg:         cfg.Pipeline,
		llm:         cfg.LLM,
		documents:   documents,
		pages:       pages,
		contentType: chain.NewContentTypeChain(factory, maxResults),
		title:       chain.NewTitleChain(factory, maxResults),
		betterHave:  chain.NewBetterHaveChain(factory, maxResults),
		intent:      chain.NewUserIntentChain(factory, maxResults),
		actionPlan:  chain.NewActionPlanChain(factory),
		article:     chain.NewArticleChain(factory),
		persona:     chain.NewPersonaChain(factory),
	}
}

// ContentType 按 serpDocId 加载文档并分析内容形式
func (s *Service) ContentType(ctx context.Context, req *ContentTypeRequest) (*ContentTypeResult, error) {
	ctx = logger.WithContext(ctx, logger.SerpDocIDKey, req.SerpDocID)

	doc, err := s.documents.FetchByID(ctx, req.SerpDocID)
	if err != nil {
		return nil, apperrors.Execution(err, "Failed to load SERP document")
	}
	if doc == nil {
		return nil, apperrors.NotFound("SERP document not found", "no SERP document with id "+req.SerpDocID)
	}

	serp, err := SerpContextFromDocument(doc)
	if err != nil {
		return nil, apperrors.Execution(err, "Stored SERP document is malformed")
	}

	var out *wfmodel.AnalysisOutput
	err = s.run(ctx, entity.StageContentType, func(ctx context.Context) error {
		var err error
		out, err = s.contentType.Invoke(ctx, &wfmodel.AnalysisInput{
			LLMOptions: s.options(entity.StageContentType),
			Serp:       *serp,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ContentTypeResult{
		SerpDocID:          doc.ID,
		Keyword:            doc.MainKeyword,
		AnalysisJSON:       out.AnalysisJSON,
		RecommendationText: out.RecommendationText,
	}, nil
}

// UserIntent 基于调用方提供的 SERP 字段分析搜索意图
func (s *Service) UserIntent(ctx context.Context, req *UserIntentRequest) (*UserIntentResult, error) {
	ctx = logger.WithContext(ctx, logger.SerpDocIDKey, req.SerpDocID)

	var text string
	err := s.run(ctx, entity.StageUserIntent, func(ctx context.Context) error {
		var err error
		text, err = s.intent.Invoke(ctx, &wfmodel.UserIntentInput{
			LLMOptions: s.options(entity.StageUserIntent),
			Serp: wfmodel.SerpContext{
				SerpDocID:      req.SerpDocID,
				Keyword:        req.Keyword,
				OrganicResults: req.OrganicResults,
				RelatedQueries: req.RelatedQueries,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &UserIntentResult{AnalysisText: text}, nil
}

// Title 标题分析
func (s *Service) Title(ctx context.Context, req *TitleRequest) (*AnalysisResult, error) {
	ctx = logger.WithContext(ctx, logger.SerpDocIDKey, req.SerpDocID)
	return s.analyze(ctx, entity.StageTitle, s.title, wfmodel.SerpContext{
		SerpDocID:      req.SerpDocID,
		Keyword:        req.Keyword,
		OrganicResults: req.OrganicResults,
	})
}

// BetterHave 内容缺口分析
func (s *Service) BetterHave(ctx context.Context, req *BetterHaveRequest) (*AnalysisResult, error) {
	ctx = logger.WithContext(ctx, logger.SerpDocIDKey, req.SerpDocID)
	return s.analyze(ctx, entity.StageBetterHave, s.betterHave, wfmodel.SerpContext{
		SerpDocID:      req.SerpDocID,
		Keyword:        req.Keyword,
		OrganicResults: req.OrganicResults,
		PeopleAlsoAsk:  req.PeopleAlsoAsk,
		RelatedQueries: req.RelatedQueries,
		AIOverview:     req.AIOverview,
	})
}

func (s *Service) analyze(ctx context.Context, stage entity.Stage, c *chain.AnalysisChain, serp wfmodel.SerpContext) (*AnalysisResult, error) {
	var out *wfmodel.AnalysisOutput
	err := s.run(ctx, stage, func(ctx context.Context) error {
		var err error
		out, err = c.Invoke(ctx, &wfmodel.AnalysisInput{LLMOptions: s.options(stage), Serp: serp})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{AnalysisJSON: out.AnalysisJSON, RecommendationText: out.RecommendationText}, nil
}

// ActionPlan 汇总已有报告生成行动计划，缺失的报告不影响执行
func (s *Service) ActionPlan(ctx context.Context, req *ActionPlanRequest) (*ActionPlanResult, error) {
	var text string
	err := s.run(ctx, entity.StageActionPlan, func(ctx context.Context) error {
		var err error
		text, err = s.actionPlan.Invoke(ctx, &wfmodel.ActionPlanInput{
			LLMOptions:                   s.options(entity.StageActionPlan),
			Keyword:                      req.Keyword,
			MediaSiteName:                req.MediaSiteName,
			ContentTypeReportText:        req.ContentTypeReportText,
			UserIntentReportText:         req.UserIntentReportText,
			TitleRecommendationText:      req.TitleRecommendationText,
			BetterHaveRecommendationText: req.BetterHaveRecommendationText,
			KeywordReport:                req.KeywordReport,
			SelectedClusterName:          req.SelectedClusterName,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ActionPlanResult{ActionPlanText: text}, nil
}

// Article 打开文章生成流；改写模式下先抓取参考页面
// 参考页面抓取失败与上游打开失败都在流开始前返回
func (s *Service) Article(ctx context.Context, req *ArticleRequest) (*Stream, error) {
	stage := entity.StageArticle
	ctx = logger.WithContext(ctx, logger.StageKey, stage.String())

	in := &wfmodel.ArticleInput{
		LLMOptions:     s.options(stage),
		Keyword:        req.Keyword,
		MediaSiteName:  wfnode.Deref(req.MediaSiteName),
		ActionPlanText: req.ActionPlanText,
		Draft:          req.InputText,
		TargetURL:      req.TargetURL,
	}

	if req.TargetURL != nil {
		if s.pages == nil {
			return nil, s.failed(ctx, stage, apperrors.New(apperrors.CodeExecutionError, "Reference fetching is not configured"))
		}
		content, err := s.pages.FetchMarkdown(ctx, *req.TargetURL)
		if err != nil {
			return nil, s.failed(ctx, stage, apperrors.Execution(err, "Failed to fetch reference page"))
		}
		in.ReferenceContent = wfnode.TruncateByRunes(content, s.cfg.Reference.MaxRunes)
	}

	reader, err := s.article.Stream(ctx, in)
	if err != nil {
		return nil, s.failed(ctx, stage, apperrors.Execution(err, "Article generation failed"))
	}
	metrics.StageExecutionTotal.WithLabelValues(stage.String(), "started").Inc()
	return newStream(ctx, stage, reader), nil
}

// Persona 打开读者画像生成流；关键词去空白后截取前 MaxKeywords 个
func (s *Service) Persona(ctx context.Context, req *PersonaRequest) (*Stream, error) {
	stage := entity.StagePersona
	ctx = logger.WithContext(ctx, logger.StageKey, stage.String())

	keywords, dropped := wfnode.CapKeywords(req.Keywords, s.cfg.MaxKeywords)
	if dropped > 0 {
		logger.Info(ctx, "keywords truncated", "kept", len(keywords), "dropped", dropped)
	}

	reader, err := s.persona.Stream(ctx, &wfmodel.PersonaInput{
		LLMOptions:    s.options(stage),
		Keywords:      keywords,
		MainKeyword:   req.Keyword,
		MediaSiteName: req.MediaSiteName,
	})
	if err != nil {
		return nil, s.failed(ctx, stage, apperrors.Execution(err, "Persona generation failed"))
	}
	metrics.StageExecutionTotal.WithLabelValues(stage.String(), "started").Inc()
	return newStream(ctx, stage, reader), nil
}

// run 执行非流式阶段：超时控制、指标、日志与错误归类
func (s *Service) run(ctx context.Context, stage entity.Stage, fn func(ctx context.Context) error) error {
	ctx = logger.WithContext(ctx, logger.StageKey, stage.String())
	if s.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.StageExecutionDuration.WithLabelValues(stage.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		return s.failed(ctx, stage, apperrors.Execution(err, stageFailureMessage(stage)))
	}
	metrics.StageExecutionTotal.WithLabelValues(stage.String(), "success").Inc()
	logger.Info(ctx, "stage completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Service) failed(ctx context.Context, stage entity.Stage, appErr *apperrors.AppError) error {
	metrics.StageExecutionTotal.WithLabelValues(stage.String(), "error").Inc()
	logger.Error(ctx, "stage failed", appErr.Err, "code", string(appErr.Code), "message", appErr.Message)
	return appErr
}

func stageFailureMessage(stage entity.Stage) string {
	switch stage {
	case entity.StageContentType:
		return "Content type analysis failed"
	case entity.StageUserIntent:
		return "User intent analysis failed"
	case entity.StageTitle:
		return "Title analysis failed"
	case entity.StageBetterHave:
		return "Content gap analysis failed"
	case entity.StageActionPlan:
		return "Action plan generation failed"
	default:
		return "Stage execution failed"
	}
}

// options 将阶段配置转换为单次调用参数
func (s *Service) options(stage entity.Stage) wfmodel.LLMOptions {
	sc := s.llm.StageFor(stage.String())
	opts := wfmodel.LLMOptions{
		Provider: sc.Provider,
		Model:    sc.Model,
	}
	if sc.Temperature != nil {
		t := float32(*sc.Temperature)
		opts.Temperature = &t
	}
	if sc.MaxTokens > 0 {
		n := sc.MaxTokens
		opts.MaxTokens = &n
	}
	return opts
}

// SerpContextFromDocument 将持久化文档转换为分析上下文
func SerpContextFromDocument(doc *entity.SerpDocument) (*wfmodel.SerpContext, error) {
	organic, err := doc.OrganicRecords()
	if err != nil {
		return nil, err
	}
	paa, err := doc.PeopleAlsoAskRecords()
	if err != nil {
		return nil, err
	}
	related, err := doc.RelatedQueryRecords()
	if err != nil {
		return nil, err
	}
	return &wfmodel.SerpContext{
		SerpDocID:      doc.ID,
		Keyword:        doc.MainKeyword,
		OrganicResults: organic,
		PeopleAlsoAsk:  paa,
		RelatedQueries: related,
		AIOverview:     doc.AIOverview,
	}, nil
}
