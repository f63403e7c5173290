package sports

import (
	"context"
	"errors"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"sync"
	"time"
)

const (
	defaultActiveInterval    = 30 * time.Second
	defaultHibernateInterval = 10 * time.Minute
)

// Cache keeps the last known games, see scorecache.Store
type Cache interface {
	Save(ctx context.Context, league model.League, games []model.Game) error
	Load(ctx context.Context, league model.League) ([]model.Game, time.Time, error)
}

type FetchRecorder interface {
	RecordFetch(league model.League, err error)
}

// Result is one refresh of every polled league
type Result struct {
	Games     []model.Game
	Err       error
	FetchedAt time.Time
}

// Poller refreshes games in its own goroutine and hands the latest Result to its owning
// screen through a one slot channel, read without blocking in TryReceive.
type Poller struct {
	name     string
	client   Client
	cache    Cache
	recorder FetchRecorder

	activeInterval    time.Duration
	hibernateInterval time.Duration

	lock    sync.Mutex
	leagues []model.League
	active  bool

	results chan Result
	wake    chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func NewPoller(name string, client Client, cache Cache, recorder FetchRecorder, activeInterval, hibernateInterval time.Duration) *Poller {
	if activeInterval <= 0 {
		activeInterval = defaultActiveInterval
	}
	if hibernateInterval <= 0 {
		hibernateInterval = defaultHibernateInterval
	}
	return &Poller{
		name:              name,
		client:            client,
		cache:             cache,
		recorder:          recorder,
		activeInterval:    activeInterval,
		hibernateInterval: hibernateInterval,
		results:           make(chan Result, 1),
		wake:              make(chan struct{}, 1),
		done:              make(chan struct{}),
	}
}

// Start launches the polling goroutine, later calls are ignored.
func (p *Poller) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go p.loop(ctx)
	})
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
}

// SetActive switches between the active and the hibernate interval.
// Activation triggers an immediate refresh.
func (p *Poller) SetActive(active bool) {
	p.lock.Lock()
	wasActive := p.active
	p.active = active
	p.lock.Unlock()

	if active && !wasActive {
		p.signal()
	}
}

func (p *Poller) SetLeagues(leagues []model.League) {
	p.lock.Lock()
	changed := !sameLeagues(p.leagues, leagues)
	p.leagues = append([]model.League(nil), leagues...)
	p.lock.Unlock()

	if changed {
		p.signal()
	}
}

// TryReceive returns the latest result if a new one arrived since the previous call.
func (p *Poller) TryReceive() (Result, bool) {
	select {
	case result := <-p.results:
		return result, true
	default:
		return Result{}, false
	}
}

func (p *Poller) loop(ctx context.Context) {
	logrus.Debugf("Start %s poller", p.name)
	p.publish(p.loadCache(ctx))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Debugf("Stop %s poller", p.name)
			return
		case <-p.done:
			logrus.Debugf("Stop %s poller", p.name)
			return
		case <-p.wake:
		case <-timer.C:
		}

		p.publish(p.fetchOnce(ctx))

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.interval())
	}
}

func (p *Poller) interval() time.Duration {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.active {
		return p.activeInterval
	}
	return p.hibernateInterval
}

func (p *Poller) currentLeagues() []model.League {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]model.League(nil), p.leagues...)
}

func (p *Poller) loadCache(ctx context.Context) (Result, bool) {
	if p.cache == nil {
		return Result{}, false
	}
	var result Result
	found := false
	for _, league := range p.currentLeagues() {
		games, fetchedAt, err := p.cache.Load(ctx, league)
		if err != nil {
			continue
		}
		found = true
		result.Games = append(result.Games, games...)
		if fetchedAt.After(result.FetchedAt) {
			result.FetchedAt = fetchedAt
		}
	}
	return result, found
}

func (p *Poller) fetchOnce(ctx context.Context) (Result, bool) {
	leagues := p.currentLeagues()
	if len(leagues) == 0 {
		return Result{FetchedAt: time.Now()}, true
	}

	perLeague := make([][]model.Game, len(leagues))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, league := range leagues {
		i, league := i, league
		group.Go(func() error {
			games, err := p.client.FetchGames(groupCtx, league)
			if p.recorder != nil {
				p.recorder.RecordFetch(league, err)
			}
			if err != nil {
				return err
			}
			perLeague[i] = games
			if p.cache != nil {
				if cacheErr := p.cache.Save(groupCtx, league, games); cacheErr != nil {
					logrus.Warnf("Unable to cache %s games: %v", league, cacheErr)
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return Result{}, false
		}
		logrus.Warnf("%s poller refresh failed: %v", p.name, err)
		return Result{Err: err, FetchedAt: time.Now()}, true
	}

	result := Result{FetchedAt: time.Now()}
	for _, games := range perLeague {
		result.Games = append(result.Games, games...)
	}
	logrus.Debugf("%s poller refreshed %d games", p.name, len(result.Games))
	return result, true
}

// publish replaces any result the screen has not consumed yet
func (p *Poller) publish(result Result, ok bool) {
	if !ok {
		return
	}
	for {
		select {
		case p.results <- result:
			return
		default:
		}
		select {
		case <-p.results:
		default:
		}
	}
}

func (p *Poller) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func sameLeagues(a, b []model.League) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
