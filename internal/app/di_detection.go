package app

import (
	"fmt"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	detectionHTTP "github.com/fieldsrv/guardpost/internal/detection/http"
	detectionRepository "github.com/fieldsrv/guardpost/internal/detection/repository"
	detectionService "github.com/fieldsrv/guardpost/internal/detection/service"
	detectionUsecase "github.com/fieldsrv/guardpost/internal/detection/usecase"
)

// eventRepository is the durable intrusion event store surface: the engine
// sinks new events into it and the use case mirrors resolutions to it.
type eventRepository interface {
	detectionService.EventSink
	detectionUsecase.EventResolver
}

// ProfileStore returns the in-memory behavior profile store.
func (c *Container) ProfileStore() (*detectionService.ProfileStore, error) {
	c.profileStoreInit.Do(func() {
		c.profileStore = detectionService.NewProfileStore()
	})
	return c.profileStore, nil
}

// RateTracker returns the per-address request rate tracker.
func (c *Container) RateTracker() (*detectionService.RateTracker, error) {
	c.rateTrackerInit.Do(func() {
		c.rateTracker = detectionService.NewRateTracker()
	})
	return c.rateTracker, nil
}

// RiskScorer returns the request risk scorer.
func (c *Container) RiskScorer() (*detectionService.RiskScorer, error) {
	var err error
	c.riskScorerInit.Do(func() {
		c.riskScorer, err = c.initRiskScorer()
		if err != nil {
			c.initErrors["riskScorer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["riskScorer"]; exists {
		return nil, storedErr
	}
	return c.riskScorer, nil
}

// EventLog returns the in-memory intrusion event log.
func (c *Container) EventLog() (*detectionService.EventLog, error) {
	c.eventLogInit.Do(func() {
		c.eventLog = detectionService.NewEventLog(
			c.config.DetectionEventLogCapacity,
			c.config.DetectionSuspicionHalfLife,
		)
	})
	return c.eventLog, nil
}

// EventRepository returns the durable intrusion event repository.
// Returns nil when no database driver is configured; detection then runs
// purely in memory.
func (c *Container) EventRepository() (eventRepository, error) {
	var err error
	c.eventRepoInit.Do(func() {
		c.eventRepo, err = c.initEventRepository()
		if err != nil {
			c.initErrors["eventRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventRepo"]; exists {
		return nil, storedErr
	}
	return c.eventRepo, nil
}

// DetectionEngine returns the intrusion detection engine.
func (c *Container) DetectionEngine() (*detectionService.Engine, error) {
	var err error
	c.detectionEngineInit.Do(func() {
		c.detectionEngine, err = c.initDetectionEngine()
		if err != nil {
			c.initErrors["detectionEngine"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["detectionEngine"]; exists {
		return nil, storedErr
	}
	return c.detectionEngine, nil
}

// DetectionUseCase returns the detection use case instance.
func (c *Container) DetectionUseCase() (detectionUsecase.DetectionUseCase, error) {
	var err error
	c.detectionUseCaseInit.Do(func() {
		c.detectionUseCase, err = c.initDetectionUseCase()
		if err != nil {
			c.initErrors["detectionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["detectionUseCase"]; exists {
		return nil, storedErr
	}
	return c.detectionUseCase, nil
}

// DetectionHandler returns the detection HTTP handler instance.
func (c *Container) DetectionHandler() (*detectionHTTP.DetectionHandler, error) {
	var err error
	c.detectionHandlerInit.Do(func() {
		c.detectionHandler, err = c.initDetectionHandler()
		if err != nil {
			c.initErrors["detectionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["detectionHandler"]; exists {
		return nil, storedErr
	}
	return c.detectionHandler, nil
}

// initRiskScorer creates the risk scorer with its stores.
func (c *Container) initRiskScorer() (*detectionService.RiskScorer, error) {
	profiles, err := c.ProfileStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile store for risk scorer: %w", err)
	}

	rates, err := c.RateTracker()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate tracker for risk scorer: %w", err)
	}

	return detectionService.NewRiskScorer(profiles, rates), nil
}

// initEventRepository creates the durable event repository when a database
// driver is configured.
func (c *Container) initEventRepository() (eventRepository, error) {
	if c.config.DBDriver == "" {
		return nil, nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for event repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return detectionRepository.NewMySQLEventRepository(db), nil
	case "postgres":
		return detectionRepository.NewPostgreSQLEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDetectionEngine creates the detection engine from configuration.
func (c *Container) initDetectionEngine() (*detectionService.Engine, error) {
	scorer, err := c.RiskScorer()
	if err != nil {
		return nil, fmt.Errorf("failed to get risk scorer for detection engine: %w", err)
	}

	profiles, err := c.ProfileStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile store for detection engine: %w", err)
	}

	eventLog, err := c.EventLog()
	if err != nil {
		return nil, fmt.Errorf("failed to get event log for detection engine: %w", err)
	}

	repo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for detection engine: %w", err)
	}

	learningMode, err := detectionDomain.ParseLearningMode(c.config.DetectionProfileLearning)
	if err != nil {
		return nil, fmt.Errorf("invalid profile learning mode: %w", err)
	}

	cfg := detectionDomain.DetectionConfig{
		Sensitivity:         c.config.DetectionSensitivity,
		ReportingThreshold:  c.config.DetectionReportingThreshold,
		BlockingThreshold:   c.config.DetectionBlockingThreshold,
		AutomaticBlocking:   c.config.DetectionAutomaticBlocking,
		GeoAnomalyDetection: c.config.DetectionGeoAnomaly,
		ProfileLearning:     learningMode,
		EventLogCapacity:    c.config.DetectionEventLogCapacity,
		SuspicionHalfLife:   c.config.DetectionSuspicionHalfLife,
	}

	var sink detectionService.EventSink
	if repo != nil {
		sink = repo
	}

	return detectionService.NewEngine(scorer, profiles, eventLog, sink, cfg, c.Logger()), nil
}

// initDetectionUseCase creates the detection use case with all its dependencies.
func (c *Container) initDetectionUseCase() (detectionUsecase.DetectionUseCase, error) {
	engine, err := c.DetectionEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get detection engine for detection use case: %w", err)
	}

	repo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for detection use case: %w", err)
	}

	var resolver detectionUsecase.EventResolver
	if repo != nil {
		resolver = repo
	}

	useCase := detectionUsecase.NewDetectionUseCase(engine, resolver, c.Logger())

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for detection use case: %w", err)
	}

	return detectionUsecase.NewDetectionUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initDetectionHandler creates the detection HTTP handler.
func (c *Container) initDetectionHandler() (*detectionHTTP.DetectionHandler, error) {
	useCase, err := c.DetectionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get detection use case for handler: %w", err)
	}
	return detectionHTTP.NewDetectionHandler(useCase, c.Logger()), nil
}
