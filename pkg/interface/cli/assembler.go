package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/WangYihang/Exposure-Crawler/pkg/application"
	"github.com/WangYihang/Exposure-Crawler/pkg/common"
	"github.com/WangYihang/Exposure-Crawler/pkg/config"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/repository"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/service"
	"github.com/WangYihang/Exposure-Crawler/pkg/infrastructure/domainservice"
	"github.com/WangYihang/Exposure-Crawler/pkg/infrastructure/http"
	"github.com/WangYihang/Exposure-Crawler/pkg/infrastructure/metrics"
	"github.com/WangYihang/Exposure-Crawler/pkg/infrastructure/storage"
	"github.com/WangYihang/Exposure-Crawler/pkg/interface/presenter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Assembler assembles all components for the application
type Assembler struct {
	config *Config
	stderr io.Writer
}

// NewAssembler creates a new assembler writing diagnostics to stderr
func NewAssembler(config *Config) *Assembler {
	return &Assembler{config: config, stderr: os.Stderr}
}

// Runtime is an assembled crawl ready to execute
type Runtime struct {
	UseCase      *application.CrawlUseCase
	Logger       *logrus.Logger
	Registry     *prometheus.Registry
	Checkpointer repository.Checkpointer
	Targets      *config.Targets
}

// Close releases the output sink
func (r *Runtime) Close() error {
	return r.Checkpointer.Close()
}

// AssembleUseCase assembles the crawl use case with all dependencies
func (a *Assembler) AssembleUseCase() (*Runtime, error) {
	logger := common.NewLogger(a.stderr, a.config.Verbosity())

	// Load targets before touching the output file
	targets, err := config.LoadFile(a.config.Args.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}

	hostPatterns := append([]string(nil), targets.FakeHostNames...)
	if a.config.CommonHosts {
		hostPatterns = append(hostPatterns, domainservice.CommonHostPatterns(nil)...)
	}

	// Create domain services
	expander := domainservice.NewExpander()

	// Create HTTP prober
	prober := http.NewProber(http.Config{
		Timeout:         a.config.TimeoutDuration,
		MaxResponseSize: a.config.MaxResponseSize,
		UserAgent:       a.config.UserAgent,
		RateLimit:       a.config.RateLimit,
	})

	// Create repositories
	taskQueue := storage.NewTaskQueue()
	store := storage.NewResultStore()

	sink, err := storage.OpenSink(a.config.Args.OutFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	checkpointer := storage.NewCheckpointer(store, sink)

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry, taskQueue.Len)

	useCase := application.NewCrawlUseCase(
		application.Config{
			NumWorkers:         a.config.NumWorkers,
			CheckpointInterval: a.config.CheckpointInterval(),
			Sites:              targets.Sites,
			SearchForFiles:     targets.SearchForFiles,
			FakeHostNames:      hostPatterns,
		},
		application.NewTaskFactory(expander, store),
		prober,
		a.progressReporter(),
		recorder,
		logger,
		taskQueue,
		store,
		checkpointer,
	)

	return &Runtime{
		UseCase:      useCase,
		Logger:       logger,
		Registry:     registry,
		Checkpointer: checkpointer,
		Targets:      targets,
	}, nil
}

// progressReporter picks the progress display for the configured mode
func (a *Assembler) progressReporter() service.ProgressReporter {
	if a.config.NoProgress || a.config.ShowDashboard {
		return presenter.NopReporter{}
	}
	return presenter.NewProgressReporter(a.stderr, presenter.ProgressConfig{
		Verbose: a.config.Verbosity() > 0,
		Width:   common.TerminalWidth,
	})
}
