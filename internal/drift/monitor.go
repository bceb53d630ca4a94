// Package drift measures how predictions hold up once results are known.
// It is read-only: it never changes the predictor, it only reports and
// raises flags for whoever decides to retrain.
package drift

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/metrics"
	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/predictor"
)

// Flag names.
const (
	FlagCalibrationDecay = "calibration_decay"
	FlagDirectionalBias  = "directional_bias"
)

// Scores are the metrics of one slice of predictions.
type Scores struct {
	Games            int     `json:"games"`
	Accuracy         float64 `json:"accuracy"`
	LogLoss          float64 `json:"log_loss"`
	Brier            float64 `json:"brier"`
	ECE              float64 `json:"ece"`
	ExpectedHomeWins float64 `json:"expected_home_wins"`
	ActualHomeWins   int     `json:"actual_home_wins"`
}

// Bias is expected minus actual home wins, per game.
func (s Scores) Bias() float64 {
	if s.Games == 0 {
		return 0
	}
	return (s.ExpectedHomeWins - float64(s.ActualHomeWins)) / float64(s.Games)
}

// TeamScores adds the team's own expected and actual wins.
type TeamScores struct {
	Scores
	ExpectedWins float64 `json:"expected_wins"`
	ActualWins   int     `json:"actual_wins"`
}

// WinGap is expected minus actual wins, per game.
func (t TeamScores) WinGap() float64 {
	if t.Games == 0 {
		return 0
	}
	return (t.ExpectedWins - float64(t.ActualWins)) / float64(t.Games)
}

// Flag is a raised drift condition.
type Flag struct {
	Name      string  `json:"name"`
	Scope     string  `json:"scope"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

func (f Flag) String() string {
	return fmt.Sprintf("%s[%s] %.4f > %.4f", f.Name, f.Scope, f.Value, f.Threshold)
}

// Report is the output of one drift run.
type Report struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Window      int                          `json:"window"`
	Cumulative  Scores                       `json:"cumulative"`
	Rolling     Scores                       `json:"rolling"`
	Teams       map[models.TeamID]TeamScores `json:"teams"`
	Conferences map[string]Scores            `json:"conferences"`
	Seasons     map[string]Scores            `json:"seasons"`
	Flags       []Flag                       `json:"flags"`
}

// Flagged reports whether any flag with the given name was raised.
func (r *Report) Flagged(name string) bool {
	for _, f := range r.Flags {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Monitor computes drift reports.
type Monitor struct {
	config Config
	logger *logrus.Entry
}

// NewMonitor creates a monitor.
func NewMonitor(config Config, logger *logrus.Logger) (*Monitor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid drift config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Monitor{
		config: config,
		logger: logger.WithField("component", "drift_monitor"),
	}, nil
}

// ComputeMetrics scores settled predictions. Records are ordered by date and
// game id; the rolling scope is the last window of them. A non-positive
// window uses the configured one.
func (m *Monitor) ComputeMetrics(records []models.PredictionOutcome, window int) *Report {
	if window <= 0 {
		window = m.config.Window
	}
	sorted := make([]models.PredictionOutcome, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].GameID < sorted[j].GameID
	})

	tail := sorted
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}

	r := &Report{
		GeneratedAt: time.Now().UTC(),
		Window:      window,
		Cumulative:  score(sorted),
		Rolling:     score(tail),
		Teams:       make(map[models.TeamID]TeamScores),
		Conferences: make(map[string]Scores),
		Seasons:     make(map[string]Scores),
	}

	byTeam := make(map[models.TeamID][]models.PredictionOutcome)
	byConf := make(map[string][]models.PredictionOutcome)
	bySeason := make(map[string][]models.PredictionOutcome)
	for _, rec := range sorted {
		byTeam[rec.HomeTeamID] = append(byTeam[rec.HomeTeamID], rec)
		byTeam[rec.AwayTeamID] = append(byTeam[rec.AwayTeamID], rec)
		if rec.HomeConference != "" {
			byConf[rec.HomeConference] = append(byConf[rec.HomeConference], rec)
		}
		if rec.AwayConference != "" && rec.AwayConference != rec.HomeConference {
			byConf[rec.AwayConference] = append(byConf[rec.AwayConference], rec)
		}
		bySeason[rec.Season] = append(bySeason[rec.Season], rec)
	}
	for team, recs := range byTeam {
		r.Teams[team] = teamScore(team, recs)
	}
	for conf, recs := range byConf {
		r.Conferences[conf] = score(recs)
	}
	for season, recs := range bySeason {
		r.Seasons[season] = score(recs)
	}

	r.Flags = m.flags(r)
	m.publish(r)
	return r
}

func (m *Monitor) flags(r *Report) []Flag {
	var flags []Flag
	if r.Cumulative.Games < m.config.MinSamples {
		return nil
	}

	if r.Rolling.Games >= m.config.MinSamples && r.Rolling.Games < r.Cumulative.Games {
		if d := r.Rolling.Brier - r.Cumulative.Brier; d > m.config.BrierDegradation {
			flags = append(flags, Flag{Name: FlagCalibrationDecay, Scope: "rolling", Value: d, Threshold: m.config.BrierDegradation})
		}
	}
	if b := math.Abs(r.Cumulative.Bias()); b > m.config.BiasThreshold {
		flags = append(flags, Flag{Name: FlagDirectionalBias, Scope: "home", Value: b, Threshold: m.config.BiasThreshold})
	}

	teams := make([]models.TeamID, 0, len(r.Teams))
	for team := range r.Teams {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	for _, team := range teams {
		ts := r.Teams[team]
		if ts.Games < m.config.MinSamples {
			continue
		}
		if g := math.Abs(ts.WinGap()); g > m.config.BiasThreshold {
			flags = append(flags, Flag{Name: FlagDirectionalBias, Scope: "team:" + string(team), Value: g, Threshold: m.config.BiasThreshold})
		}
	}
	return flags
}

func (m *Monitor) publish(r *Report) {
	metrics.UpdateDriftScope("cumulative", r.Cumulative.Accuracy, r.Cumulative.Brier, r.Cumulative.LogLoss)
	metrics.UpdateDriftScope("rolling", r.Rolling.Accuracy, r.Rolling.Brier, r.Rolling.LogLoss)
	metrics.UpdateDriftBias(r.Cumulative.Bias())
	for _, f := range r.Flags {
		metrics.RecordDriftFlag(f.Name)
	}

	entry := m.logger.WithFields(logrus.Fields{
		"games":            r.Cumulative.Games,
		"window":           r.Window,
		"rolling_accuracy": r.Rolling.Accuracy,
		"rolling_brier":    r.Rolling.Brier,
		"cumulative_brier": r.Cumulative.Brier,
		"home_bias":        r.Cumulative.Bias(),
		"flags":            len(r.Flags),
	})
	if len(r.Flags) > 0 {
		for _, f := range r.Flags {
			entry.WithField("flag", f.String()).Warn("Drift flag raised")
		}
		return
	}
	entry.Info("Drift check complete")
}

func score(recs []models.PredictionOutcome) Scores {
	probs := make([]float64, len(recs))
	labels := make([]float64, len(recs))
	s := Scores{Games: len(recs)}
	for i, rec := range recs {
		probs[i] = rec.HomeWinProbability
		s.ExpectedHomeWins += rec.HomeWinProbability
		if rec.HomeWon {
			labels[i] = 1
			s.ActualHomeWins++
		}
	}
	s.Accuracy = predictor.Accuracy(probs, labels)
	s.LogLoss = predictor.LogLoss(probs, labels)
	s.Brier = predictor.BrierScore(probs, labels)
	s.ECE = predictor.ExpectedCalibrationError(probs, labels)
	return s
}

func teamScore(team models.TeamID, recs []models.PredictionOutcome) TeamScores {
	ts := TeamScores{Scores: score(recs)}
	for _, rec := range recs {
		if rec.HomeTeamID == team {
			ts.ExpectedWins += rec.HomeWinProbability
			if rec.HomeWon {
				ts.ActualWins++
			}
			continue
		}
		ts.ExpectedWins += 1 - rec.HomeWinProbability
		if !rec.HomeWon {
			ts.ActualWins++
		}
	}
	return ts
}

// WriteTable renders the season and conference breakdowns as aligned text.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCOPE\tGAMES\tACC\tLOGLOSS\tBRIER\tECE\tEXP HOME\tACT HOME")
	row := func(name string, s Scores) {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.4f\t%.4f\t%.4f\t%.1f\t%d\n",
			name, s.Games, s.Accuracy, s.LogLoss, s.Brier, s.ECE, s.ExpectedHomeWins, s.ActualHomeWins)
	}
	row("cumulative", r.Cumulative)
	row(fmt.Sprintf("rolling(%d)", r.Window), r.Rolling)
	for _, season := range sortedKeys(r.Seasons) {
		row("season:"+season, r.Seasons[season])
	}
	for _, conf := range sortedKeys(r.Conferences) {
		row("conf:"+conf, r.Conferences[conf])
	}
	for _, f := range r.Flags {
		fmt.Fprintf(tw, "FLAG\t%s\n", f)
	}
	return tw.Flush()
}

func sortedKeys(m map[string]Scores) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
