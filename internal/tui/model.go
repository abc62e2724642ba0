package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	"github.com/genchadt/damnsimple-blackjack/pkg/services/blackjack"
)

// Model is the Bubble Tea model for a table played against the local
// engine. All rules live in the engine; the model only translates
// keystrokes into facade calls and renders whatever state comes back.
type Model struct {
	game   *blackjack.Facade
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	betInput    textinput.Model

	// State
	gameLog  []string
	flips    chan blackjack.CardFlipEvent
	status   string
	quitting bool

	// Dimensions
	width       int
	height      int
	initialized bool
}

// flipMsg carries an engine card-flip event into the update loop.
type flipMsg blackjack.CardFlipEvent

// NewModel creates a TUI model around a game facade
func NewModel(game *blackjack.Facade, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(blackjack.MinBet)
	ti.CharLimit = 8
	ti.Width = 10
	ti.Prompt = "Bet: $"
	ti.PromptStyle = WarningStyle
	ti.Focus()

	m := &Model{
		game:        game,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		betInput:    ti,
		gameLog:     []string{},
		flips:       make(chan blackjack.CardFlipEvent, 64),
	}

	// Flip events arrive on the engine goroutine; buffer them for the
	// update loop and drop on overflow rather than block the engine.
	game.RegisterCardFlipCallback(func(ev blackjack.CardFlipEvent) {
		select {
		case m.flips <- ev:
		default:
		}
	})

	return m
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForFlips())
}

// listenForFlips returns a command that waits for the next flip event
func (m *Model) listenForFlips() tea.Cmd {
	return func() tea.Msg {
		return flipMsg(<-m.flips)
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case flipMsg:
		if msg.Card.FaceUp {
			m.addLog(fmt.Sprintf("Card revealed: %s", msg.Card))
		}
		cmds = append(cmds, m.listenForFlips())

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		default:
			cmds = append(cmds, m.handleKey(msg))
		}
	}

	var cmd tea.Cmd
	if m.betting() {
		m.betInput, cmd = m.betInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// betting reports whether the table is waiting for a bet
func (m *Model) betting() bool {
	switch m.game.GameState() {
	case entities.StateInitial, entities.StateBetting, entities.StateGameOver:
		return true
	}
	return false
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	ctx := context.Background()

	// Betting mode shares the keyboard with the bet input, so only
	// chords and enter act on the table.
	if m.betting() {
		switch msg.String() {
		case "enter":
			m.deal(ctx)
		case "ctrl+r":
			if m.game.ResetFunds(ctx) {
				m.addLog(fmt.Sprintf("Funds reset to $%d", m.game.PlayerFunds()))
			}
		}
		return nil
	}

	switch msg.String() {
	case "h":
		if m.game.Hit(ctx) {
			m.afterAction("Hit")
		}
	case "s":
		if m.game.Stand(ctx) {
			m.afterAction("Stand")
		}
	case "u":
		if m.game.DoubleDown(ctx) {
			m.afterAction("Double down")
		} else {
			m.status = ErrorStyle.Render("Cannot double down now")
		}
	case "p":
		if m.game.Split(ctx) {
			m.afterAction("Split")
		} else {
			m.status = ErrorStyle.Render("Cannot split this hand")
		}
	case "i":
		if m.game.TakeInsurance(ctx) {
			m.afterAction("Insurance taken")
		} else {
			m.status = ErrorStyle.Render("Insurance not available")
		}
	case "n":
		if m.game.DeclineInsurance(ctx) {
			m.afterAction("Insurance declined")
		}
	}
	return nil
}

// deal parses the bet input and starts a round
func (m *Model) deal(ctx context.Context) {
	bet := m.game.CurrentBet()
	if raw := strings.TrimSpace(m.betInput.Value()); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			m.status = ErrorStyle.Render("Bet must be a number")
			return
		}
		bet = parsed
	}
	if bet == 0 {
		bet = blackjack.MinBet
	}

	if !m.game.StartNewGame(ctx, bet) {
		m.status = ErrorStyle.Render(fmt.Sprintf("Bet rejected: $%d (min $%d, funds $%d)",
			bet, blackjack.MinBet, m.game.PlayerFunds()))
		return
	}
	m.betInput.SetValue("")
	m.addLog(fmt.Sprintf("New round, bet $%d", bet))
	m.afterAction("Deal")
}

// afterAction refreshes the status line and logs round results
func (m *Model) afterAction(action string) {
	m.status = InfoStyle.Render(action)

	if m.game.GameState() != entities.StateGameOver {
		return
	}

	result := m.game.GameResult()
	for i, hand := range m.game.PlayerHands() {
		m.addLog(fmt.Sprintf("Hand %d: %s (%d)", i+1, resultLabel(hand.Result), hand.Value()))
	}
	m.addLog(fmt.Sprintf("Round over: %s, funds $%d", resultLabel(result), m.game.PlayerFunds()))

	switch {
	case result.IsWin():
		m.status = SuccessStyle.Render(resultLabel(result))
	case result == entities.ResultPush:
		m.status = WarningStyle.Render(resultLabel(result))
	default:
		m.status = ErrorStyle.Render(resultLabel(result))
	}
}

func resultLabel(result entities.GameResult) string {
	switch result {
	case entities.ResultPlayerBlackjack:
		return "Blackjack!"
	case entities.ResultPlayerWins:
		return "You win"
	case entities.ResultDealerWins:
		return "Dealer wins"
	case entities.ResultPush:
		return "Push"
	}
	return "In progress"
}

// addLog appends an entry and scrolls the viewport to the bottom
func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	table := TableStyle.Width(m.width - 4).Render(m.renderTable())

	logHeight := m.height - lipgloss.Height(table) - 4
	if logHeight < 3 {
		logHeight = 3
	}
	m.logViewport.Width = m.width - 4
	m.logViewport.Height = logHeight
	if !m.initialized {
		m.logViewport.GotoBottom()
		m.initialized = true
	}
	logPane := TableStyle.Width(m.width - 4).Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Top, table, logPane)
}

// renderTable renders dealer and player hands plus the action line
func (m *Model) renderTable() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(" Blackjack "))
	b.WriteString("  ")
	b.WriteString(WarningStyle.Render(fmt.Sprintf("Funds: $%d", m.game.PlayerFunds())))
	if bet := m.game.CurrentBet(); bet > 0 && !m.betting() {
		b.WriteString("  ")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Bet: $%d", bet)))
	}
	b.WriteString("\n\n")

	b.WriteString("Dealer: ")
	b.WriteString(formatCards(m.game.DealerHand()))
	if value := visibleValue(m.game.DealerHand()); value > 0 {
		b.WriteString(fmt.Sprintf("  (%d)", value))
	}
	b.WriteString("\n")

	hands := m.game.PlayerHands()
	active := m.game.ActivePlayerHandIndex()
	for i, hand := range hands {
		label := "You:    "
		if len(hands) > 1 {
			label = fmt.Sprintf("Hand %d: ", i+1)
		}
		line := label + formatCards(hand.Cards) + fmt.Sprintf("  (%d)", hand.Value())
		if hand.IsResolved && hand.Result != entities.ResultInProgress {
			line += "  " + resultLabel(hand.Result)
		}
		if i == active && m.game.CanAct() {
			line = ActiveHandStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(m.renderActions())

	return b.String()
}

// renderActions renders the bet input or the available actions
func (m *Model) renderActions() string {
	if m.betting() {
		help := InfoStyle.Render("Enter to deal • Ctrl+R reset funds • q quit")
		return m.betInput.View() + "\n" + help
	}

	var actions []string
	if m.game.CanAct() {
		actions = append(actions,
			SuccessStyle.Render("[h]it"),
			ErrorStyle.Render("[s]tand"),
			WarningStyle.Render("do[u]ble"),
			WarningStyle.Render("s[p]lit"))
	}
	if m.game.IsInsuranceAvailable() {
		actions = append(actions,
			WarningStyle.Render("[i]nsurance"),
			InfoStyle.Render("[n]o insurance"))
	}
	if len(actions) == 0 {
		return InfoStyle.Render("Waiting for dealer...")
	}
	return strings.Join(actions, " ") + "  " + InfoStyle.Render("q quit")
}

// formatCards formats cards with colors, masking face-down cards
func formatCards(cards []*entities.Card) string {
	if len(cards) == 0 {
		return InfoStyle.Render("—")
	}

	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		switch {
		case !card.FaceUp:
			formatted = append(formatted, HiddenCardStyle.Render("[??]"))
		case card.Suit == entities.Hearts || card.Suit == entities.Diamonds:
			formatted = append(formatted, RedCardStyle.Render(cardLabel(card)))
		default:
			formatted = append(formatted, BlackCardStyle.Render(cardLabel(card)))
		}
	}
	return strings.Join(formatted, " ")
}

func cardLabel(card *entities.Card) string {
	return "[" + string(card.Rank) + suitSymbol(card.Suit) + "]"
}

func suitSymbol(suit entities.Suit) string {
	switch suit {
	case entities.Hearts:
		return "♥"
	case entities.Diamonds:
		return "♦"
	case entities.Clubs:
		return "♣"
	case entities.Spades:
		return "♠"
	}
	return "?"
}

// visibleValue scores only the face-up dealer cards
func visibleValue(cards []*entities.Card) int {
	visible := make([]*entities.Card, 0, len(cards))
	for _, card := range cards {
		if card.FaceUp {
			visible = append(visible, card)
		}
	}
	return blackjack.HandValue(visible)
}

// Run starts the TUI event loop and blocks until the player quits
func Run(game *blackjack.Facade, logger *log.Logger) error {
	program := tea.NewProgram(NewModel(game, logger), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
