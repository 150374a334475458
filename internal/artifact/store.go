package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Store holds the currently loaded artifacts. Readers get an immutable snapshot;
// Reload swaps in freshly loaded artifacts without blocking them.
type Store struct {
	dir     string
	team    atomic.Pointer[TeamModel]
	players atomic.Pointer[PlayerModels]

	mu      sync.Mutex
	modTime map[string]time.Time // artifact file -> mod time at last Reload
}

// NewStore creates an empty store over a model directory. Call Reload to load.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Reload loads both artifacts from disk. An artifact that fails to load is
// cleared so predictions depending on it are disabled; the joined error says why.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modTime = s.stat()
	return s.load()
}

// ReloadIfChanged reloads when either artifact file was written, created or
// removed since the last Reload. It reports whether a reload happened.
func (s *Store) ReloadIfChanged() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.stat()
	if s.modTime != nil && sameModTimes(s.modTime, current) {
		return false, nil
	}
	s.modTime = current
	return true, s.load()
}

func (s *Store) stat() map[string]time.Time {
	out := make(map[string]time.Time, 2)
	for _, name := range []string{TeamModelFile, PlayerModelsFile} {
		if info, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			out[name] = info.ModTime()
		}
	}
	return out
}

func sameModTimes(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for name, t := range a {
		if u, ok := b[name]; !ok || !u.Equal(t) {
			return false
		}
	}
	return true
}

func (s *Store) load() error {
	var errs []error

	team, err := LoadTeamModel(s.dir)
	if err != nil {
		errs = append(errs, err)
		log.Warn().Err(err).Str("dir", s.dir).Msg("Team model unavailable, team predictions disabled")
	}
	s.team.Store(team)

	players, err := LoadPlayerModels(s.dir)
	if err != nil {
		errs = append(errs, err)
		log.Warn().Err(err).Str("dir", s.dir).Msg("Player models unavailable, player predictions disabled")
	}
	s.players.Store(players)

	if team != nil || players != nil {
		log.Info().
			Bool("team_model", team != nil).
			Bool("player_models", players != nil).
			Msg("Model artifacts loaded")
	}
	return errors.Join(errs...)
}

// SetTeam installs a team model directly, as after training.
func (s *Store) SetTeam(m *TeamModel) { s.team.Store(m) }

// SetPlayers installs player models directly.
func (s *Store) SetPlayers(m *PlayerModels) { s.players.Store(m) }

// Team returns the loaded team model or nil.
func (s *Store) Team() *TeamModel { return s.team.Load() }

// Players returns the loaded player models or nil.
func (s *Store) Players() *PlayerModels { return s.players.Load() }
