package setup

import (
	"context"
	"time"

	"github.com/itchan-dev/forllm/frontend/internal/apiclient"
	"github.com/itchan-dev/forllm/frontend/internal/compose"
	"github.com/itchan-dev/forllm/frontend/internal/handler"
	"github.com/itchan-dev/forllm/frontend/internal/markdown"
	"github.com/itchan-dev/forllm/frontend/internal/mention"
	"github.com/itchan-dev/forllm/frontend/internal/personas"
	"github.com/itchan-dev/forllm/frontend/internal/tokens"
	"github.com/itchan-dev/forllm/shared/config"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/validation"
)

type Dependencies struct {
	Handler    *handler.Handler
	APIClient  *apiclient.APIClient
	Personas   *personas.Cache
	Workspaces *compose.Manager
	Public     config.Public

	stopSweep context.CancelFunc
}

func SetupDependencies(cfg *config.Config) *Dependencies {
	public := cfg.Public
	logger.Initialize(public.LogLevel, public.LogJSON)

	apiClient := apiclient.New(public.APIBaseURL, public.RequestTimeout)
	personaCache := personas.NewCache(apiClient, public.PersonaCacheTTL)
	textProcessor := markdown.New()
	overlay := &mention.MemoryOverlay{}

	workspaces := compose.NewManager(compose.Deps{
		Gateway:    apiClient,
		Personas:   personaCache,
		Registry:   mention.NewRegistry(overlay),
		TextPolicy: validation.NewTextPolicy(public.TextMimeTypes, public.TextExtensions),
		Text:       textProcessor,
		Mention: mention.Options{
			BlurGrace:   public.BlurGrace,
			MaxQueryLen: public.MentionMaxQueryLen,
		},
		Estimate: tokens.Options{
			Debounce: public.EstimateDebounce,
			Thresholds: tokens.Thresholds{
				WarningPct:  public.SaturationWarningPct,
				CriticalPct: public.SaturationCriticalPct,
			},
		},
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	workspaces.StartIdleSweep(sweepCtx, sweepInterval(public.IdleWorkspaceTTL), public.IdleWorkspaceTTL)

	h := handler.New(apiClient, personaCache, textProcessor, workspaces, overlay, public)

	return &Dependencies{
		Handler:    h,
		APIClient:  apiClient,
		Personas:   personaCache,
		Workspaces: workspaces,
		Public:     public,
		stopSweep:  stopSweep,
	}
}

func sweepInterval(idle time.Duration) time.Duration {
	return max(idle/4, time.Second)
}

// Cleanup stops the idle sweep and abandons every open workspace.
func (d *Dependencies) Cleanup() {
	if d.stopSweep != nil {
		d.stopSweep()
	}
	d.Workspaces.CloseAll()
}
