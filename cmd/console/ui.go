package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/display"
	"github.com/jwebster45206/campaign-engine/pkg/prompts"
)

const PlaceHolderText = "Choice number or /command..."

// ConsoleUI is the BubbleTea model that runs the GM console.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config    *ConsoleConfig
	client    *http.Client
	genClient *http.Client // generation can take minutes
	sseClient *http.Client // no timeout, the event stream stays open

	graph *campaign.Graph
	state *StateView
	logs  []campaign.LogEntry

	sceneViewport viewport.Model
	metaViewport  viewport.Model
	textarea      textarea.Model
	ready         bool
	width         int
	height        int
	err           error
	loading       bool
	notice        string // transient status line under the scene

	// Campaign selection state
	showCampaignModal bool
	campaigns         []campaign.Summary
	selectedCampaign  int
	loadingCampaigns  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	sseEvents chan SSEEvent
	sseCancel context.CancelFunc
}

type campaignsLoadedMsg struct {
	campaigns []campaign.Summary
	err       error
}

type campaignOpenedMsg struct {
	graph *campaign.Graph
	state *StateView
	logs  []campaign.LogEntry
	err   error
}

type refreshMsg struct {
	state *StateView
	logs  []campaign.LogEntry
	err   error
}

type chooseResultMsg struct {
	state *StateView
	err   error
}

type resolveResultMsg struct {
	consequence string
	err         error
}

type checkResultMsg struct {
	entry *campaign.LogEntry
	err   error
}

type sseEventMsg struct {
	event SSEEvent
}

type sseClosedMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	scenePanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	sceneTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	sceneVp := viewport.New(50, 20)
	sceneVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:            cfg,
		client:            client,
		genClient:         &http.Client{Timeout: 10 * time.Minute},
		sseClient:         &http.Client{},
		textarea:          ta,
		sceneViewport:     sceneVp,
		metaViewport:      metaVp,
		ready:             false,
		showCampaignModal: true,
		loadingCampaigns:  true,
		selectedCampaign:  0,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showCampaignModal {
		return m.loadCampaigns()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	if m.showCampaignModal {
		return m.updateCampaignModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.sceneViewport, vpCmd = m.sceneViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.writeSceneContent()
		m.writeMetadata()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			return m.handleInput(input)
		default:
			// Quick yank: y on an empty input copies the scene's
			// player text to the clipboard.
			if msg.String() == "y" && strings.TrimSpace(m.textarea.Value()) == "" {
				m.yankSceneText()
				m.writeSceneContent()
				return m, nil
			}
		}

	case chooseResultMsg:
		m.loading = false
		if msg.err != nil {
			m.notice = errorStyle.Render("Error: " + msg.err.Error())
		} else {
			m.state = msg.state
			m.notice = ""
		}
		m.writeSceneContent()
		return m, m.refresh()

	case resolveResultMsg:
		m.loading = false
		if msg.err != nil {
			m.notice = errorStyle.Render("Error: " + msg.err.Error())
		} else if msg.consequence != "" {
			m.notice = sceneTextStyle.Render(msg.consequence)
		} else {
			m.notice = "Encounter resolved."
		}
		m.writeSceneContent()
		return m, m.refresh()

	case checkResultMsg:
		m.loading = false
		if msg.err != nil {
			m.notice = errorStyle.Render("Error: " + msg.err.Error())
		} else {
			m.notice = msg.entry.Content
		}
		m.writeSceneContent()
		return m, m.refresh()

	case refreshMsg:
		if msg.err == nil {
			if msg.state != nil {
				m.state = msg.state
			}
			if msg.logs != nil {
				m.logs = msg.logs
			}
			m.writeSceneContent()
			m.writeMetadata()
		}

	case sseEventMsg:
		cmds := []tea.Cmd{m.waitForSSE()}
		switch msg.event.Type {
		case "log.appended", "campaign.updated":
			cmds = append(cmds, m.refresh())
		}
		return m, tea.Batch(cmds...)

	case sseClosedMsg:
		if msg.err != nil && msg.err != context.Canceled {
			m.notice = promptStyle.Render("Event stream closed: " + msg.err.Error())
			m.writeSceneContent()
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeSceneContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.sceneViewport, vpCmd = m.sceneViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// layout recomputes panel dimensions from the window size.
func (m *ConsoleUI) layout() {
	sceneWidth := int(float64(m.width)*0.70) - 4
	metaWidth := m.width - sceneWidth - 6

	m.sceneViewport.Width = sceneWidth - 2
	m.sceneViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(sceneWidth - 4)
}

// handleInput dispatches one line of GM input: a bare number takes that
// choice, everything else is a slash command.
func (m ConsoleUI) handleInput(input string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	n, err := strconv.Atoi(input)
	if err != nil {
		m.notice = errorStyle.Render("Enter a choice number or a /command. Try /help.")
		m.writeSceneContent()
		return m, nil
	}

	scene := m.currentScene()
	if scene == nil || n < 1 || n > len(scene.Choices) {
		m.notice = errorStyle.Render(fmt.Sprintf("No choice %d in this scene.", n))
		m.writeSceneContent()
		return m, nil
	}

	choice := scene.Choices[n-1]
	m.loading = true
	m.progressTick = 0
	m.notice = ""
	m.writeSceneContent()
	return m, tea.Batch(m.takeChoice(choice.ID), progressTick())
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help":
		helpText := `
Commands:
• <number> - Take that choice
• /resolve <victory|draw|defeat|retreat> [notes] - Resolve the encounter
• /check <name> <skill> <target> - Roll d100 against target and log it
• y (on empty input) - Copy scene text to clipboard
• Ctrl+C - Quit

The panel on the right follows the campaign log live.
`
		currentContent := m.sceneViewport.View()
		m.sceneViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.sceneViewport.GotoBottom()
		return m, nil

	case "/resolve":
		scene := m.currentScene()
		if scene == nil || scene.Encounter == nil {
			m.notice = errorStyle.Render("No encounter in this scene.")
			m.writeSceneContent()
			return m, nil
		}
		if scene.Encounter.Status == campaign.EncounterResolved {
			m.notice = errorStyle.Render("Encounter already resolved.")
			m.writeSceneContent()
			return m, nil
		}
		if len(fields) < 2 {
			m.notice = errorStyle.Render("Usage: /resolve <victory|draw|defeat|retreat> [notes]")
			m.writeSceneContent()
			return m, nil
		}
		outcome, ok := campaign.ParseOutcome(fields[1])
		if !ok {
			m.notice = errorStyle.Render("Unknown outcome: " + fields[1])
			m.writeSceneContent()
			return m, nil
		}
		notes := strings.Join(fields[2:], " ")
		m.loading = true
		m.progressTick = 0
		m.writeSceneContent()
		return m, tea.Batch(m.resolve(scene.Encounter.ID, string(outcome), notes), progressTick())

	case "/check":
		if len(fields) < 4 {
			m.notice = errorStyle.Render("Usage: /check <name> <skill> <target>")
			m.writeSceneContent()
			return m, nil
		}
		target, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || target <= 0 {
			m.notice = errorStyle.Render("Target must be a positive number.")
			m.writeSceneContent()
			return m, nil
		}
		name := fields[1]
		skill := strings.Join(fields[2:len(fields)-1], " ")
		m.loading = true
		m.progressTick = 0
		m.writeSceneContent()
		return m, tea.Batch(m.rollCheck(name, skill, target), progressTick())

	default:
		m.notice = errorStyle.Render("Unknown command: " + cmd + ". Try /help.")
		m.writeSceneContent()
		return m, nil
	}
}

func (m *ConsoleUI) currentScene() *SceneView {
	if m.state == nil {
		return nil
	}
	return m.state.CurrentScene
}

func (m *ConsoleUI) yankSceneText() {
	scene := m.currentScene()
	if scene == nil || scene.PlayerText == "" {
		m.notice = promptStyle.Render("Nothing to copy.")
		return
	}
	if err := clipboard.WriteAll(scene.PlayerText); err != nil {
		m.notice = errorStyle.Render("Clipboard unavailable: " + err.Error())
		return
	}
	m.notice = promptStyle.Render("Scene text copied to clipboard.")
}

// writeSceneContent renders the current scene for the viewport width.
func (m *ConsoleUI) writeSceneContent() {
	sceneWidth := m.sceneViewport.Width - 6
	if sceneWidth < 20 {
		sceneWidth = 20
	}

	var content strings.Builder

	if m.graph != nil {
		header := m.graph.Campaign.Title
		if m.graph.Campaign.World != "" {
			header += " — " + m.graph.Campaign.World
		}
		content.WriteString(titleStyle.Render(strings.ToUpper(header)) + "\n\n")
		content.WriteString(separatorStyle.Render(strings.Repeat("─", sceneWidth)) + "\n\n")
	}

	scene := m.currentScene()
	if scene == nil {
		content.WriteString("No current scene. The campaign has no navigable position.\n")
	} else {
		content.WriteString(speakerStyle.Render(scene.Name))
		content.WriteString(promptStyle.Render("  [" + display.Label(string(scene.Kind)) + "]"))
		content.WriteString("\n\n")

		if loc := m.sceneLocation(scene); loc != nil {
			content.WriteString(promptStyle.Render("Location: "+loc.Name) + "\n")
			if loc.ASCIIMap != "" {
				// Maps are pre-formatted, never wrapped.
				content.WriteString(separatorStyle.Render(loc.ASCIIMap) + "\n")
			}
			content.WriteString("\n")
		}

		if scene.PlayerText != "" {
			content.WriteString(sceneTextStyle.Render(wordwrap.String(scene.PlayerText, sceneWidth)) + "\n\n")
		}
		if scene.GMNotes != "" {
			content.WriteString(promptStyle.Render(wordwrap.String("GM: "+scene.GMNotes, sceneWidth)) + "\n\n")
		}

		for _, d := range scene.Dialogues {
			content.WriteString(speakerStyle.Render(d.Speaker+": ") + wordwrap.String(d.Text, sceneWidth) + "\n")
		}
		if len(scene.Dialogues) > 0 {
			content.WriteString("\n")
		}

		if enc := scene.Encounter; enc != nil {
			content.WriteString(m.renderEncounter(enc, sceneWidth))
		}

		if len(scene.Choices) > 0 {
			content.WriteString(separatorStyle.Render(strings.Repeat("─", sceneWidth)) + "\n")
			for i, c := range scene.Choices {
				line := fmt.Sprintf("%d) %s", i+1, c.Label)
				if c.Description != "" {
					line += " — " + c.Description
				}
				content.WriteString(choiceStyle.Render(wordwrap.String(line, sceneWidth)) + "\n")
			}
			content.WriteString("\n")
		}
	}

	if m.notice != "" {
		content.WriteString(m.notice + "\n")
	}
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.sceneViewport.SetContent(content.String())
	m.sceneViewport.GotoBottom()
}

func (m *ConsoleUI) renderEncounter(enc *campaign.Encounter, width int) string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("⚔ Encounter") + promptStyle.Render("  ["+display.Label(string(enc.Status))+"]") + "\n")
	if enc.Objectives != "" {
		b.WriteString(wordwrap.String("Objectives: "+enc.Objectives, width) + "\n")
	}
	if enc.NPCSummary != "" {
		b.WriteString(wordwrap.String("Opposition: "+enc.NPCSummary, width) + "\n")
	}
	if enc.Status == campaign.EncounterResolved {
		b.WriteString(promptStyle.Render("Outcome: "+display.Label(string(enc.Outcome))) + "\n")
	} else {
		b.WriteString(promptStyle.Render("Resolve with /resolve <victory|draw|defeat|retreat> [notes]") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m *ConsoleUI) sceneLocation(scene *SceneView) *campaign.Location {
	if m.graph == nil || scene.LocationID == uuid.Nil {
		return nil
	}
	for i := range m.graph.Locations {
		if m.graph.Locations[i].ID == scene.LocationID {
			return &m.graph.Locations[i]
		}
	}
	return nil
}

// writeMetadata renders the right-hand panel: campaign facts plus the
// tail of the audit log.
func (m *ConsoleUI) writeMetadata() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CAMPAIGN") + "\n\n")

	if m.graph != nil {
		content.WriteString("ID:\n")
		content.WriteString(m.graph.Campaign.ID.String()[:8] + "...\n\n")
		content.WriteString(fmt.Sprintf("Scenes: %d\n", len(m.graph.Scenes)))
		content.WriteString(fmt.Sprintf("NPCs: %d\n\n", len(m.graph.NPCs)))
	}

	width := m.metaViewport.Width - 2
	if width < 16 {
		width = 16
	}

	content.WriteString(titleStyle.Render("LOG") + "\n\n")
	if len(m.logs) == 0 {
		content.WriteString("Empty.\n")
	} else {
		tail := m.logs
		if len(tail) > 30 {
			tail = tail[len(tail)-30:]
		}
		for _, entry := range tail {
			label := display.Label(string(entry.Kind))
			content.WriteString(speakerStyle.Render("• "+label) + "\n")
			content.WriteString(wordwrap.String(entry.Content, width) + "\n")
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")

	m.metaViewport.SetContent(content.String())
	m.metaViewport.GotoBottom()
}

func (m ConsoleUI) loadCampaigns() tea.Cmd {
	return func() tea.Msg {
		summaries, err := listCampaigns(m.client, m.config.APIBaseURL)
		return campaignsLoadedMsg{summaries, err}
	}
}

func (m ConsoleUI) openCampaign(summary campaign.Summary) tea.Cmd {
	return func() tea.Msg {
		g, err := getGraph(m.client, m.config.APIBaseURL, summary.ID)
		if err != nil {
			return campaignOpenedMsg{err: err}
		}
		sv, err := getState(m.client, m.config.APIBaseURL, summary.ID)
		if err != nil {
			return campaignOpenedMsg{err: err}
		}
		logs, err := getLogs(m.client, m.config.APIBaseURL, summary.ID)
		if err != nil {
			return campaignOpenedMsg{err: err}
		}
		return campaignOpenedMsg{graph: g, state: sv, logs: logs}
	}
}

func (m ConsoleUI) generateNewCampaign() tea.Cmd {
	return func() tea.Msg {
		g, err := generateCampaign(m.genClient, m.config.APIBaseURL, prompts.Brief{NumPlayers: 4})
		if err != nil {
			return campaignOpenedMsg{err: err}
		}
		sv, err := getState(m.client, m.config.APIBaseURL, g.Campaign.ID)
		if err != nil {
			return campaignOpenedMsg{err: err}
		}
		logs, err := getLogs(m.client, m.config.APIBaseURL, g.Campaign.ID)
		if err != nil {
			return campaignOpenedMsg{err: err}
		}
		return campaignOpenedMsg{graph: g, state: sv, logs: logs}
	}
}

func (m ConsoleUI) takeChoice(choiceID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		sv, err := chooseOption(m.client, m.config.APIBaseURL, m.graph.Campaign.ID, choiceID)
		return chooseResultMsg{sv, err}
	}
}

func (m ConsoleUI) resolve(encounterID uuid.UUID, outcome, notes string) tea.Cmd {
	return func() tea.Msg {
		text, err := resolveEncounter(m.client, m.config.APIBaseURL, encounterID, outcome, notes)
		return resolveResultMsg{text, err}
	}
}

func (m ConsoleUI) rollCheck(name, skill string, target int) tea.Cmd {
	return func() tea.Msg {
		roll := rand.Intn(100) + 1
		success := roll <= target
		degrees := (target - roll) / 10
		if degrees < 0 {
			degrees = -degrees
		}
		entry, err := recordCheck(m.client, m.config.APIBaseURL, m.graph.Campaign.ID, CheckRequest{
			Name:       name,
			Skill:      skill,
			Difficulty: target,
			Success:    success,
			Degrees:    &degrees,
			Notes:      fmt.Sprintf("rolled %d", roll),
		})
		return checkResultMsg{entry, err}
	}
}

func (m ConsoleUI) refresh() tea.Cmd {
	return func() tea.Msg {
		sv, err := getState(m.client, m.config.APIBaseURL, m.graph.Campaign.ID)
		if err != nil {
			return refreshMsg{err: err}
		}
		logs, err := getLogs(m.client, m.config.APIBaseURL, m.graph.Campaign.ID)
		if err != nil {
			return refreshMsg{err: err}
		}
		return refreshMsg{state: sv, logs: logs}
	}
}

func (m ConsoleUI) startSSE(ctx context.Context, campaignID uuid.UUID, events chan SSEEvent) tea.Cmd {
	return func() tea.Msg {
		err := listenToSSE(ctx, m.sseClient, m.config.APIBaseURL, campaignID, events)
		return sseClosedMsg{err}
	}
}

func (m ConsoleUI) waitForSSE() tea.Cmd {
	events := m.sseEvents
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return sseClosedMsg{nil}
		}
		return sseEventMsg{ev}
	}
}

func (m ConsoleUI) updateCampaignModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case campaignsLoadedMsg:
		m.loadingCampaigns = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.campaigns = msg.campaigns
		}

	case campaignOpenedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.graph = msg.graph
		m.state = msg.state
		m.logs = msg.logs
		m.showCampaignModal = false
		m.err = nil
		if m.width > 0 && m.height > 0 {
			m.layout()
		}
		m.writeSceneContent()
		m.writeMetadata()
		m.textarea.Focus()
		m.ready = true

		ctx, cancel := context.WithCancel(context.Background())
		m.sseCancel = cancel
		m.sseEvents = make(chan SSEEvent, 16)
		return m, tea.Batch(
			m.startSSE(ctx, m.graph.Campaign.ID, m.sseEvents),
			m.waitForSSE(),
			textarea.Blink,
		)

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			return m, progressTick()
		}

	case tea.KeyMsg:
		if m.loadingCampaigns || m.loading {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedCampaign > 0 {
				m.selectedCampaign--
			}
		case tea.KeyDown:
			// One extra row for "Generate new campaign".
			if m.selectedCampaign < len(m.campaigns) {
				m.selectedCampaign++
			}
		case tea.KeyEnter:
			m.err = nil
			m.loading = true
			m.progressTick = 0
			if m.selectedCampaign < len(m.campaigns) {
				return m, tea.Batch(m.openCampaign(m.campaigns[m.selectedCampaign]), progressTick())
			}
			return m, tea.Batch(m.generateNewCampaign(), progressTick())
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m.quit()
			case "n", "N":
				m.showQuitModal = false
				if m.showCampaignModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) quit() (tea.Model, tea.Cmd) {
	if m.sseCancel != nil {
		m.sseCancel()
	}
	return m, tea.Quit
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Console?"))
	content.WriteString("\n\n")
	content.WriteString("The campaign keeps its state on the server.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCampaignModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingCampaigns {
		content.WriteString(modalTitleStyle.Render("Loading Campaigns..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching campaigns from the server..."))
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Opening Campaign..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Generation can take a few minutes on a cold model."))
		content.WriteString("\n\n")
		content.WriteString(m.renderModalProgressBar())
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Campaign"))
		content.WriteString("\n\n")

		if m.err != nil {
			content.WriteString(errorStyle.Render(wordwrap.String(m.err.Error(), 56)))
			content.WriteString("\n\n")
		}

		for i, c := range m.campaigns {
			label := c.Title
			if c.World != "" {
				label += " (" + c.World + ")"
			}
			if i == m.selectedCampaign {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + label))
			} else {
				content.WriteString(modalItemStyle.Render("  " + label))
			}
			content.WriteString("\n")
		}

		if m.selectedCampaign == len(m.campaigns) {
			content.WriteString(modalSelectedItemStyle.Render("▶ Generate new campaign"))
		} else {
			content.WriteString(modalItemStyle.Render("  Generate new campaign"))
		}
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showCampaignModal {
		return m.renderCampaignModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	sceneWidth := int(float64(m.width)*0.70) - 4
	metaWidth := m.width - sceneWidth - 6

	scenePanel := scenePanelStyle.Width(sceneWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.sceneViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", sceneWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, scenePanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.sceneViewport.Width - 6
	return renderBar(usable, m.progressTick)
}

func (m ConsoleUI) renderModalProgressBar() string {
	return renderBar(54, m.progressTick)
}

func renderBar(usable, tick int) string {
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := tick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
