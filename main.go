package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go-pinyin/internal/config"
	"go-pinyin/internal/deck"
	"go-pinyin/internal/game"
	"go-pinyin/internal/logger"
	"go-pinyin/internal/pinyin"
	"go-pinyin/internal/scoring"
	"go-pinyin/internal/state"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"
)

const gameTitle = "ピンインタイピングゲーム"

var (
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // Red for incorrect inputs
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green for correct input
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // Color for the score
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(1, 2)
	cardStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
)

// How long a shake/glow/score-up stays on screen.
const effectDuration = 400 * time.Millisecond

type screen int

const (
	screenTitle screen = iota
	screenPlaying
	screenResult
)

type keyMap struct {
	Submit  key.Binding
	Tone    key.Binding
	Skip    key.Binding
	Back    key.Binding
	Restart key.Binding
	Level   key.Binding
	Start   key.Binding
	Quit    key.Binding
	Abort   key.Binding
}

var keys = keyMap{
	Submit:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "submit")),
	Tone:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "tone")),
	Skip:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "skip")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "title")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Level:   key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "level")),
	Start:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Abort:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

type LocalState struct {
	Session  *game.Session
	Screen   screen
	Level    string
	UseFiles bool // questions came from deck files, level switching is off

	storage scoring.ScoreStorage
	shuffle bool
	fresh   bool // current game has not been shown yet
	tickGen int
	lastFx  int
	bar     progress.Model
	help    help.Model
}

// TickMsg carries the generation of the tick loop that produced it, so a
// loop from an abandoned game dies out instead of doubling the clock.
type TickMsg struct {
	Time time.Time
	Gen  int
}

type effectDoneMsg struct{ seq int }

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t, Gen: gen}
	})
}

func effectCmd(seq int) tea.Cmd {
	return tea.Tick(effectDuration, func(time.Time) tea.Msg {
		return effectDoneMsg{seq: seq}
	})
}

func initialModel(cfg *config.AppConfig, opts state.GameOptions) (*LocalState, error) {
	s := &LocalState{
		Level:   cfg.Level,
		storage: scoring.NewMemoryStorage(),
		shuffle: cfg.Shuffle,
		fresh:   true,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		help:    help.New(),
	}

	var (
		questions []deck.Question
		title     string
		err       error
	)
	if len(cfg.Decks) > 0 {
		questions, err = deck.LoadQuestions(cfg.Decks)
		if err != nil {
			return nil, err
		}
		s.UseFiles = true
		fileExt := filepath.Ext(cfg.Decks[0])
		title = titleCaseToTitle(filepath.Base(strings.TrimSuffix(cfg.Decks[0], fileExt)))
	} else {
		questions, err = deck.BuiltinQuestions(cfg.Level)
		if err != nil {
			return nil, err
		}
		title = capitalize(cfg.Level)
	}

	s.Session, err = game.NewSession(questions, title, opts, s.storage, s.shuffle)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalState) Init() tea.Cmd {
	return nil
}

// switchLevel reloads the builtin deck for the next or previous level.
// The score storage is shared so history survives the switch.
func (s *LocalState) switchLevel(step int) {
	levels := deck.Levels()
	if s.UseFiles || len(levels) < 2 {
		return
	}
	idx := 0
	for i, l := range levels {
		if l == s.Level {
			idx = i
		}
	}
	next := levels[(idx+step+len(levels))%len(levels)]

	questions, err := deck.BuiltinQuestions(next)
	if err != nil {
		log.Error().Err(err).Str("level", next).Msg("failed to load level")
		return
	}
	sess, err := game.NewSession(questions, capitalize(next), s.Session.GameOptions, s.storage, s.shuffle)
	if err != nil {
		log.Error().Err(err).Str("level", next).Msg("failed to start level")
		return
	}
	s.Level = next
	s.Session = sess
	s.fresh = true
}

// startPlaying shows the current game, dealing a new one unless the current
// game is still untouched, and starts a new tick loop.
func (s *LocalState) startPlaying() tea.Cmd {
	if !s.fresh {
		if err := s.Session.Restart(); err != nil {
			log.Error().Err(err).Msg("failed to restart")
			return tea.Quit
		}
	}
	s.fresh = false
	s.Screen = screenPlaying
	s.tickGen++
	s.lastFx = s.Session.CurrentGame.State.Effect.Seq
	return tickCmd(s.tickGen)
}

// afterEvent moves to the result screen once the game is over and schedules
// the clear of any new feedback effect.
func (s *LocalState) afterEvent() tea.Cmd {
	s.Session.Update()
	if s.Session.IsFinished() {
		s.Screen = screenResult
		return nil
	}

	fx := s.Session.CurrentGame.State.Effect
	if fx.Kind != state.EffectNone && fx.Seq != s.lastFx {
		s.lastFx = fx.Seq
		return effectCmd(fx.Seq)
	}
	return nil
}

func (s *LocalState) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if msg.Gen != s.tickGen || s.Screen != screenPlaying {
			return s, nil
		}
		s.Session.CurrentGame.HandleTick()
		cmd := s.afterEvent()
		if s.Screen != screenPlaying {
			return s, cmd
		}
		return s, tea.Batch(cmd, tickCmd(msg.Gen))
	case effectDoneMsg:
		s.Session.CurrentGame.ClearEffect(msg.seq)
		return s, nil
	case tea.WindowSizeMsg:
		s.help.Width = msg.Width
		return s, nil
	case tea.KeyMsg:
		if key.Matches(msg, keys.Abort) {
			return s, tea.Quit
		}
		switch s.Screen {
		case screenTitle:
			return s.updateTitle(msg)
		case screenPlaying:
			return s.updatePlaying(msg)
		case screenResult:
			return s.updateResult(msg)
		}
	}
	return s, nil
}

func (s *LocalState) updateTitle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return s, tea.Quit
	case key.Matches(msg, keys.Start):
		return s, s.startPlaying()
	case msg.String() == "left":
		s.switchLevel(-1)
	case msg.String() == "right":
		s.switchLevel(1)
	}
	return s, nil
}

func (s *LocalState) updatePlaying(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := s.Session.CurrentGame
	st := g.State

	switch {
	case key.Matches(msg, keys.Back):
		s.Screen = screenTitle
		s.tickGen++
		return s, nil
	case key.Matches(msg, keys.Skip):
		g.HandleSkip()
		return s, s.afterEvent()
	case st.IsAwaitingTone():
		if key.Matches(msg, keys.Tone) {
			t, _ := strconv.Atoi(msg.String())
			g.HandleTone(pinyin.Tone(t))
			return s, s.afterEvent()
		}
		return s, nil
	case key.Matches(msg, keys.Submit):
		g.HandleSubmit(st.Input.Value())
		return s, s.afterEvent()
	}

	if !st.IsActive() {
		return s, nil
	}
	var cmd tea.Cmd
	st.Input, cmd = st.Input.Update(msg)
	return s, cmd
}

func (s *LocalState) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return s, tea.Quit
	case key.Matches(msg, keys.Restart):
		return s, s.startPlaying()
	case key.Matches(msg, keys.Back):
		s.Screen = screenTitle
	}
	return s, nil
}

func (s *LocalState) View() string {
	switch s.Screen {
	case screenPlaying:
		return s.viewPlaying()
	case screenResult:
		return s.viewResult()
	}
	return s.viewTitle()
}

func (s *LocalState) viewTitle() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(gameTitle) + "\n\n")

	if s.UseFiles {
		b.WriteString(fmt.Sprintf("  Deck: %s (%d questions)\n", boldStyle.Render(s.Session.Title), len(s.Session.Questions)))
	} else {
		var levels []string
		for _, l := range deck.Levels() {
			if l == s.Level {
				levels = append(levels, cursorStyle.Render(" "+l+" "))
			} else {
				levels = append(levels, dimStyle.Render(" "+l+" "))
			}
		}
		b.WriteString("  Level: " + strings.Join(levels, " ") + "\n")
	}

	opts := s.Session.GameOptions
	if opts.TimeLimit > 0 {
		b.WriteString(fmt.Sprintf("  Time: %s\n", formatClock(opts.TimeLimit)))
	}
	if opts.PerfectBonus {
		b.WriteString("  Perfect bonus: +" + fmt.Sprint(s.Session.CurrentGame.State.Score.Points("perfectBonus")) + "\n")
	}
	if s.Session.BestScore > 0 {
		b.WriteString(scoreStyle.Render(fmt.Sprintf("  Best this run: %d", s.Session.BestScore)) + "\n")
	}

	bindings := []key.Binding{keys.Start, keys.Quit}
	if !s.UseFiles {
		bindings = []key.Binding{keys.Start, keys.Level, keys.Quit}
	}
	b.WriteString("\n" + s.help.ShortHelpView(bindings))
	return b.String()
}

// RenderCard lays the hanzi out in cells, with the pinyin of solved
// characters underneath and a caret under the current one.
func (s *LocalState) RenderCard() string {
	st := s.Session.CurrentGame.State
	q := st.Question

	var top, bottom strings.Builder
	for i, h := range q.Hanzi {
		syl := q.Pinyin[i]
		if q.Tones[i] != pinyin.Neutral {
			syl += fmt.Sprint(int(q.Tones[i]))
		}
		w := max(runewidth.StringWidth(h), runewidth.StringWidth(syl)) + 2

		style := lipgloss.NewStyle()
		under := ""
		switch {
		case st.Solved[i]:
			style = greenStyle
			under = syl
		case i == st.CharIndex:
			style = boldStyle
			under = "^"
			if st.IsAwaitingTone() {
				under = q.Pinyin[i] + "?"
			}
		}

		top.WriteString(style.Render(center(h, w)))
		bottom.WriteString(style.Render(center(under, w)))
	}

	card := cardStyle
	switch st.Effect.Kind {
	case state.EffectShake:
		card = card.BorderForeground(lipgloss.Color("9")).MarginLeft(2)
	case state.EffectGlow, state.EffectScoreUp:
		card = card.BorderForeground(lipgloss.Color("10"))
	}
	return card.Render(top.String() + "\n" + bottom.String())
}

func (s *LocalState) RenderTones() string {
	st := s.Session.CurrentGame.State
	var parts []string
	for t := pinyin.First; t <= pinyin.Fourth; t++ {
		label := fmt.Sprintf("[%d] %s", int(t), t)
		if st.IsAwaitingTone() {
			parts = append(parts, boldStyle.Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (s *LocalState) viewPlaying() string {
	g := s.Session.CurrentGame
	st := g.State

	if st.FSM.Current() == state.PhaseReady {
		return titleStyle.Render(gameTitle) + "\n\n" +
			boldStyle.Render(fmt.Sprintf("  %d", st.Countdown)) + "\n\n" +
			s.help.ShortHelpView([]key.Binding{keys.Back, keys.Abort})
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("┃ %s | %d/%d\n", s.Session.Title, st.Deck.Presented(), st.Deck.Len()))
	b.WriteString(s.RenderCard() + "\n")

	if st.Effect.Kind == state.EffectShake {
		b.WriteString(redStyle.Render(st.Input.View()) + "\n\n")
	} else {
		b.WriteString(st.Input.View() + "\n\n")
	}
	b.WriteString(s.RenderTones() + "\n\n")

	statusLine := fmt.Sprintf("SCORE: %d | WORDS: %d | MISTAKES: %d | SKIPS: %d",
		st.Score.CurrentScore, st.Score.CompletedCount, st.Score.MistakeCount, st.Score.SkipCount)
	if st.Effect.Kind == state.EffectScoreUp {
		statusLine += " " + greenStyle.Render("+"+fmt.Sprint(st.Score.Points("wordComplete")))
	}
	b.WriteString(scoreStyle.Render(statusLine) + "\n")

	if st.TimerEnabled {
		timeColor := lipgloss.Color("11")
		if float64(st.TimeRemaining) <= float64(st.TimeLimit)/3.0 {
			timeColor = lipgloss.Color("9")
		}
		timeStyle := lipgloss.NewStyle().Foreground(timeColor)
		pct := float64(st.TimeRemaining) / float64(st.TimeLimit)
		b.WriteString(s.bar.ViewAs(pct) + " " + timeStyle.Render(formatClock(st.TimeRemaining)) + "\n")
	}

	if st.LastSkipped != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Skipped: %s = %s", st.LastSkipped.Word(), st.LastSkipped.Answer())) + "\n")
	}

	bindings := []key.Binding{keys.Submit, keys.Skip, keys.Back, keys.Abort}
	if st.IsAwaitingTone() {
		bindings = []key.Binding{keys.Tone, keys.Skip, keys.Back, keys.Abort}
	}
	b.WriteString("\n" + s.help.ShortHelpView(bindings))
	return b.String()
}

func (s *LocalState) viewResult() string {
	g := s.Session.CurrentGame
	st := g.State
	sc := st.Score

	var b strings.Builder
	if st.IsExpired() {
		b.WriteString(redStyle.Render("Time's up!") + "\n")
	} else {
		b.WriteString(greenStyle.Render("All questions answered!") + "\n")
	}
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Final score: %d (%d words, %d perfect)", sc.CurrentScore, sc.CompletedCount, sc.PerfectCount)) + "\n")

	if st.LastSkipped != nil {
		b.WriteString(fmt.Sprintf("Last skipped: %s = %s\n", st.LastSkipped.Word(), st.LastSkipped.Answer()))
	} else if st.IsExpired() && st.Question.Len() > 0 {
		b.WriteString(fmt.Sprintf("Answer: %s = %s\n", st.Question.Word(), st.Question.Answer()))
	}

	if sc.GetAttempts() > 0 && sc.CurrentScore > 0 && sc.GotHighScore() {
		b.WriteString(greenStyle.Render("New high score!") + "\n")
	}
	b.WriteString(fmt.Sprintf("Best this run: %d | Games: %d\n\n", s.Session.BestScore, s.Session.GamesPlayed))

	current := sc.CurrentEntry()
	rows := [][]string{}
	for i, entry := range sc.GetNScoreEntries(5) {
		mark := ""
		if current != nil && entry.ID == current.ID {
			mark = "←"
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), fmt.Sprint(entry.Score), fmt.Sprint(entry.Words), formatTimestamp(entry.Timestamp), mark})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "SCORE", "WORDS", "WHEN", "").
		Rows(rows...)
	b.WriteString(t.Render() + "\n\n")

	b.WriteString(s.help.ShortHelpView([]key.Binding{keys.Restart, keys.Back, keys.Quit}))
	return b.String()
}

func center(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04:05")
}

func capitalize(word string) string {
	if len(word) == 0 {
		return word
	}
	return strings.ToUpper(string(word[0])) + word[1:]
}

func titleCaseToTitle(input string) string {
	var result strings.Builder
	lastCharType := 0 // 0: none, 1: letter, 2: digit

	for i, r := range input {
		currentCharType := 0
		if unicode.IsUpper(r) || unicode.IsLower(r) {
			currentCharType = 1
		} else if unicode.IsDigit(r) {
			currentCharType = 2
		}

		if i > 0 && ((lastCharType == 1 && currentCharType == 2) || (lastCharType == 2 && currentCharType == 1) || (unicode.IsUpper(r) && unicode.IsLower(rune(input[i-1])))) {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
		lastCharType = currentCharType
	}

	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(result.String()))
	for i, word := range words {
		words[i] = capitalize(word)
	}

	return strings.Join(words, " ")
}

// timerFlag accepts seconds or MM:SS; 0 or "off" disables the timer.
type timerFlag int

func (t *timerFlag) String() string {
	return formatClock(int(*t))
}

func (t *timerFlag) Set(s string) error {
	if s == "off" || s == "false" {
		*t = 0
		return nil
	}

	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		*t = timerFlag(val)
		return nil
	}

	parts := strings.Split(s, ":")
	if len(parts) == 2 {
		min, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 == nil && err2 == nil && min >= 0 && sec >= 0 && sec < 60 {
			*t = timerFlag(min*60 + sec)
			return nil
		}
	}

	return fmt.Errorf("invalid timer format: %s (use 'MM:SS' or seconds)", s)
}

type strictIntFlag int

func (i *strictIntFlag) String() string {
	return fmt.Sprint(int(*i))
}

func (i *strictIntFlag) Set(s string) error {
	if s == "true" {
		return fmt.Errorf("value required (format: -flag=value)")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("must not be negative: %d", v)
	}
	*i = strictIntFlag(v)
	return nil
}

func (i *strictIntFlag) IsBoolFlag() bool { return true }

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(fs *flag.FlagSet, cfg *config.AppConfig, tFlag timerFlag, countdown strictIntFlag, level string, perfect, noShuffle bool) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "timer", "t":
			cfg.TimeLimit = int(tFlag)
		case "countdown":
			cfg.Countdown = int(countdown)
		case "level":
			cfg.Level = level
		case "perfect-bonus", "pb":
			cfg.PerfectBonus = perfect
		case "no-shuffle":
			cfg.Shuffle = !noShuffle
		}
	})
	if args := fs.Args(); len(args) > 0 {
		cfg.Decks = args
	}
}

func main() {
	var tFlag timerFlag
	var countdown strictIntFlag
	var level string
	var perfect bool
	var noShuffle bool
	var configFile string

	flag.Var(&tFlag, "timer", "Set round timer (e.g. 60 or 1:30, 0 to disable)")
	flag.Var(&tFlag, "t", "Set round timer (shorthand)")

	flag.Var(&countdown, "countdown", "Seconds of countdown before the round starts")
	flag.StringVar(&level, "level", "", fmt.Sprintf("Builtin deck level (%s)", strings.Join(deck.Levels(), ", ")))

	flag.BoolVar(&perfect, "perfect-bonus", false, "Award a bonus for words answered without mistakes")
	flag.BoolVar(&perfect, "pb", false, "Award a bonus for words answered without mistakes (shorthand)")
	flag.BoolVar(&noShuffle, "no-shuffle", false, "Present questions in file order")
	flag.StringVar(&configFile, "config", "", "Path to a config file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [deck files or dirs...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		fmt.Fprintf(os.Stderr, "    -t, --timer=value       Set round timer (e.g. 60 or 1:30, 0 to disable)\n")
		fmt.Fprintf(os.Stderr, "        --countdown=N       Seconds of countdown before the round starts\n")
		fmt.Fprintf(os.Stderr, "        --level=NAME        Builtin deck level (%s)\n", strings.Join(deck.Levels(), ", "))
		fmt.Fprintf(os.Stderr, "   -pb, --perfect-bonus     Award a bonus for words answered without mistakes\n")
		fmt.Fprintf(os.Stderr, "        --no-shuffle        Present questions in file order\n")
		fmt.Fprintf(os.Stderr, "        --config=FILE       Path to a config file\n")
		fmt.Fprintf(os.Stderr, "    -h, --help              Show this help message\n")
	}

	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(flag.CommandLine, cfg, tFlag, countdown, level, perfect, noShuffle)

	closer, err := logger.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	opts := state.GameOptions{
		TimeLimit:    cfg.TimeLimit,
		Countdown:    cfg.Countdown,
		PerfectBonus: cfg.PerfectBonus,
	}

	model, err := initialModel(cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing model: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("title", model.Session.Title).Int("time_limit", opts.TimeLimit).Msg("starting")

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error starting the program: %v\n", err)
	}

	if model.Session.BestScore > 0 {
		fmt.Printf("Best score: %d\n", model.Session.BestScore)
	}
}
