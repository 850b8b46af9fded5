package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/temporalx/pipeline"
)

// PipelineHandler starts pipelines and reports on running ones. All content
// production goes through Temporal; the gateway only enqueues.
type PipelineHandler struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewPipelineHandler(log *logger.Logger, tc temporalsdkclient.Client, taskQueue string) *PipelineHandler {
	return &PipelineHandler{log: log.With("handler", "PipelineHandler"), tc: tc, taskQueue: taskQueue}
}

func (h *PipelineHandler) start(c *gin.Context, idPrefix, workflowName string, seed any) {
	if h.tc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "workflow engine not configured"})
		return
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        idPrefix + "-" + uuid.NewString(),
		TaskQueue: h.taskQueue,
	}
	run, err := h.tc.ExecuteWorkflow(c.Request.Context(), opts, workflowName, seed)
	if err != nil {
		h.log.Error("workflow start failed", "workflow", workflowName, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to start workflow"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"workflow_id": run.GetID(), "run_id": run.GetRunID()})
}

func (h *PipelineHandler) StartArticle(c *gin.Context) {
	var seed types.ArticleSeed
	if err := c.ShouldBindJSON(&seed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(seed.Topic) == "" || strings.TrimSpace(seed.App) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic and app are required"})
		return
	}
	h.start(c, "article", pipeline.WorkflowArticle, seed)
}

func (h *PipelineHandler) StartCompany(c *gin.Context) {
	var seed types.CompanySeed
	if err := c.ShouldBindJSON(&seed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(seed.URL) == "" || strings.TrimSpace(seed.App) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and app are required"})
		return
	}
	h.start(c, "company", pipeline.WorkflowCompany, seed)
}

func (h *PipelineHandler) StartCountryGuide(c *gin.Context) {
	var seed types.CountryGuideSeed
	if err := c.ShouldBindJSON(&seed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(seed.CountryName) == "" || len(seed.CountryCode) != 2 || strings.TrimSpace(seed.App) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country_name, 2-letter country_code, and app are required"})
		return
	}
	h.start(c, "guide", pipeline.WorkflowCountryGuide, seed)
}

func (h *PipelineHandler) GetWorkflow(c *gin.Context) {
	if h.tc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "workflow engine not configured"})
		return
	}
	id := c.Param("id")
	desc, err := h.tc.DescribeWorkflowExecution(c.Request.Context(), id, "")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return
	}
	info := desc.GetWorkflowExecutionInfo()
	resp := gin.H{
		"workflow_id": id,
		"status":      info.GetStatus().String(),
		"start_time":  info.GetStartTime().AsTime(),
	}
	// Phase is best effort; not every workflow registers the query.
	if qr, err := h.tc.QueryWorkflow(c.Request.Context(), id, "", pipeline.QueryPhase); err == nil {
		var phase string
		if qr.Get(&phase) == nil && phase != "" {
			resp["phase"] = phase
		}
	}
	c.JSON(http.StatusOK, resp)
}

// EnsureMonitorSchedules creates one cron schedule per monitored app. Existing
// schedules are left alone so redeploys are idempotent.
func EnsureMonitorSchedules(ctx context.Context, log *logger.Logger, tc temporalsdkclient.Client, taskQueue string, cfg Config) error {
	if tc == nil {
		return nil
	}
	sc := tc.ScheduleClient()
	for _, app := range cfg.MonitorApps {
		id := "news-monitor-" + app
		_, err := sc.Create(ctx, temporalsdkclient.ScheduleOptions{
			ID: id,
			Spec: temporalsdkclient.ScheduleSpec{
				CronExpressions: []string{cfg.MonitorCron},
			},
			Action: &temporalsdkclient.ScheduleWorkflowAction{
				ID:        id,
				Workflow:  pipeline.WorkflowNewsMonitor,
				Args:      []interface{}{types.MonitorSeed{App: app, Scheduled: true}},
				TaskQueue: taskQueue,
			},
		})
		if err != nil {
			if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
				continue
			}
			return err
		}
		log.Info("registered news monitor schedule", "app", app, "cron", cfg.MonitorCron)
	}
	return nil
}
