package workflows

import (
	"context"
	"sync"

	"social-explore-client/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// StatisticsAPI reads the dashboard statistics
type StatisticsAPI interface {
	General(ctx context.Context) (*models.GeneralStatistics, error)
	Personal(ctx context.Context) (*models.PersonalStatistics, error)
}

// Dashboard handles the statistics modal
type Dashboard struct {
	stats StatisticsAPI

	mu       sync.Mutex
	general  *models.GeneralStatistics
	personal *models.PersonalStatistics
	errMsg   string
}

func NewDashboard(stats StatisticsAPI) *Dashboard {
	return &Dashboard{stats: stats}
}

// Load fetches both statistics sets in parallel. Either failing fails the
// whole load and keeps the previous data.
func (d *Dashboard) Load(ctx context.Context) error {
	var (
		general  *models.GeneralStatistics
		personal *models.PersonalStatistics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		general, err = d.stats.General(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		personal, err = d.stats.Personal(gctx)
		return err
	})

	err := g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load statistics")
		d.errMsg = "Failed to load statistics"
		return err
	}
	d.general = general
	d.personal = personal
	d.errMsg = ""
	return nil
}

func (d *Dashboard) General() *models.GeneralStatistics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.general
}

func (d *Dashboard) Personal() *models.PersonalStatistics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.personal
}

// Error returns the inline error message
func (d *Dashboard) Error() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}
