package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/pressroom-backend/internal/platform/envutil"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/temporalx"
	"github.com/yungbote/pressroom-backend/internal/temporalx/pipeline"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	acts *pipeline.Activities
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, acts *pipeline.Activities) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil {
		return nil, fmt.Errorf("temporal worker missing activities")
	}
	return &Runner{log: log, tc: tc, acts: acts}, nil
}

func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}

	cfg := temporalx.LoadConfig()
	if r.log != nil {
		r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)
	}

	// Local/self-hosted convenience: ensure namespace exists before polling.
	// Temporal Cloud namespaces should be pre-created and TEMPORAL_AUTO_REGISTER_NAMESPACE should be false.
	if envTrue("TEMPORAL_AUTO_REGISTER_NAMESPACE", false) {
		baseCtx := ctx
		if baseCtx == nil {
			baseCtx = context.Background()
		}
		if err := temporalx.EnsureNamespace(baseCtx, r.tc, cfg.Namespace, r.log); err != nil && r.log != nil {
			r.log.Warn("Temporal namespace ensure failed; worker will retry on start", "namespace", cfg.Namespace, "error", err)
		}
	}

	maxWait := durationSecondsFromEnv("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60)
	backoff := durationMillisFromEnv("TEMPORAL_WORKER_START_BACKOFF_MS", 250)
	backoffMax := durationMillisFromEnv("TEMPORAL_WORKER_START_BACKOFF_MAX_MS", 5000)

	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			if ctx != nil {
				go func() {
					<-ctx.Done()
					w.Stop()
				}()
			}
			if r.log != nil {
				r.log.Info("Temporal worker started", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempts", attempt)
			}
			return nil
		}

		w.Stop()

		// If the namespace is missing and auto-register is enabled, try to create it then retry.
		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && envTrue("TEMPORAL_AUTO_REGISTER_NAMESPACE", false) {
			baseCtx := ctx
			if baseCtx == nil {
				baseCtx = context.Background()
			}
			_ = temporalx.EnsureNamespace(baseCtx, r.tc, cfg.Namespace, r.log)
		}

		if maxWait <= 0 || time.Now().After(deadline) {
			// Temporal Cloud / misconfig: missing namespace will never heal without config changes.
			var nfe2 *serviceerror.NamespaceNotFound
			if errors.As(startErr, &nfe2) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}

		if r.log != nil {
			r.log.Warn("Temporal worker failed to start; retrying", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempt", attempt, "error", startErr)
		}

		sleep := clampBackoff(backoff, backoffMax, attempt)
		if sleep > 0 {
			time.Sleep(sleep)
		}
	}
}

func (r *Runner) newWorker() worker.Worker {
	cfg := temporalx.LoadConfig()

	concurrency := envutil.GetEnvAsInt("WORKER_CONCURRENCY", 4, r.log)
	if concurrency < 1 {
		concurrency = 1
	}

	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		// Note: workflow and activity concurrency are separately tunable in Temporal.
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	w.RegisterWorkflowWithOptions(pipeline.ArticleCreation, workflow.RegisterOptions{Name: pipeline.WorkflowArticle})
	w.RegisterWorkflowWithOptions(pipeline.NewsMonitor, workflow.RegisterOptions{Name: pipeline.WorkflowNewsMonitor})
	w.RegisterWorkflowWithOptions(pipeline.CountryGuide, workflow.RegisterOptions{Name: pipeline.WorkflowCountryGuide})
	w.RegisterWorkflowWithOptions(pipeline.CompanyProfile, workflow.RegisterOptions{Name: pipeline.WorkflowCompany})
	w.RegisterWorkflowWithOptions(pipeline.SegmentVideo, workflow.RegisterOptions{Name: pipeline.WorkflowSegmentVideo})
	w.RegisterWorkflowWithOptions(pipeline.TopicCluster, workflow.RegisterOptions{Name: pipeline.WorkflowTopicCluster})

	acts := r.acts
	w.RegisterActivityWithOptions(acts.Research, activity.RegisterOptions{Name: pipeline.ActivityResearch})
	w.RegisterActivityWithOptions(acts.GenerateNarrative, activity.RegisterOptions{Name: pipeline.ActivityGenerateNarrative})
	w.RegisterActivityWithOptions(acts.ClassifySections, activity.RegisterOptions{Name: pipeline.ActivityClassifySections})
	w.RegisterActivityWithOptions(acts.GenerateVideo, activity.RegisterOptions{Name: pipeline.ActivityGenerateVideo})
	w.RegisterActivityWithOptions(acts.GenerateImages, activity.RegisterOptions{Name: pipeline.ActivityGenerateImages})
	w.RegisterActivityWithOptions(acts.GenerateSegmentBeats, activity.RegisterOptions{Name: pipeline.ActivitySegmentBeats})
	w.RegisterActivityWithOptions(acts.PersistArticle, activity.RegisterOptions{Name: pipeline.ActivityPersistArticle})
	w.RegisterActivityWithOptions(acts.PersistHub, activity.RegisterOptions{Name: pipeline.ActivityPersistHub})
	w.RegisterActivityWithOptions(acts.PersistCompany, activity.RegisterOptions{Name: pipeline.ActivityPersistCompany})
	w.RegisterActivityWithOptions(acts.GetRecentArticles, activity.RegisterOptions{Name: pipeline.ActivityGetRecentArticles})
	w.RegisterActivityWithOptions(acts.GetArticle, activity.RegisterOptions{Name: pipeline.ActivityGetArticle})
	w.RegisterActivityWithOptions(acts.GetCompanyBySlug, activity.RegisterOptions{Name: pipeline.ActivityGetCompanyBySlug})
	w.RegisterActivityWithOptions(acts.SearchNews, activity.RegisterOptions{Name: pipeline.ActivitySearchNews})
	w.RegisterActivityWithOptions(acts.AssessRelevance, activity.RegisterOptions{Name: pipeline.ActivityAssessRelevance})
	w.RegisterActivityWithOptions(acts.AmbiguityCheck, activity.RegisterOptions{Name: pipeline.ActivityAmbiguityCheck})
	w.RegisterActivityWithOptions(acts.CrawlSite, activity.RegisterOptions{Name: pipeline.ActivityCrawlSite})
	w.RegisterActivityWithOptions(acts.ExtractLogo, activity.RegisterOptions{Name: pipeline.ActivityExtractLogo})
	w.RegisterActivityWithOptions(acts.DiscoverKeywords, activity.RegisterOptions{Name: pipeline.ActivityDiscoverKeywords})
	w.RegisterActivityWithOptions(acts.SyncKnowledge, activity.RegisterOptions{Name: pipeline.ActivitySyncKnowledge})
	w.RegisterActivityWithOptions(acts.AppendScrapeNote, activity.RegisterOptions{Name: pipeline.ActivityAppendScrapeNote})
	w.RegisterActivityWithOptions(acts.PublishProgress, activity.RegisterOptions{Name: pipeline.ActivityPublishProgress})
	return w
}

func envTrue(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func durationSecondsFromEnv(key string, defSeconds int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(defSeconds) * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return time.Duration(defSeconds) * time.Second
	}
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Second
}

func durationMillisFromEnv(key string, defMillis int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(defMillis) * time.Millisecond
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return time.Duration(defMillis) * time.Millisecond
	}
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Millisecond
}

func clampBackoff(base time.Duration, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if max > 0 && sleep >= max {
			return max
		}
	}
	if max > 0 && sleep > max {
		return max
	}
	return sleep
}
