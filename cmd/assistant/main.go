package main

// Terminal client for the document assistant:
//   go run ./cmd/assistant -doc <document id> [-file contract.pdf] [-out ./out]

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"docassist-web/internal/analysis"
	"docassist-web/internal/backend"
	"docassist-web/internal/chat"
	"docassist-web/internal/detail"
	"docassist-web/internal/download"
	"docassist-web/internal/extract"
	"docassist-web/internal/progress"
	"docassist-web/internal/shared/config"
)

var (
	boldGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow     = color.New(color.FgYellow).SprintFunc()
	red        = color.New(color.FgRed).SprintFunc()
	faint      = color.New(color.Faint).SprintFunc()
	barWidth   = 30
	helpBanner = "Команды: /analyze, /generate <id>, /export json|txt, /reset, /quit. Строка с \\ в конце продолжает сообщение."
)

func main() {
	cfg := config.Load()
	docID := flag.String("doc", "", "Document ID on the analysis backend")
	filePath := flag.String("file", "", "Local PDF, DOCX or text file used when the document has no text")
	outDir := flag.String("out", ".", "Directory for generated documents and exports")
	user := flag.String("user", "cli", "User ID sent to the backend")
	flag.Parse()

	if strings.TrimSpace(*docID) == "" {
		log.Fatal("-doc is required")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.New(cfg.BackendOrigin, cfg.BackendAPIBase, cfg.BackendTimeout)
	out := color.Output
	view := detail.New(*user, *docID, detail.Deps{
		Documents: client,
		Analyzer:  client,
		Generator: client,
		Chat:      client,
		ChatRepo:  chat.NewMemoryRepo(),
	}, detail.WithOnChange(func(event string, data any) {
		if snap, ok := data.(progress.Snapshot); ok && event == detail.EventProgress && snap.Visible {
			fmt.Fprint(out, "\r"+progressLine(snap))
		}
	}))
	defer view.Close()

	if err := view.Mount(ctx); err != nil {
		log.Fatalf("load document: %v", err)
	}
	if *filePath != "" {
		if err := loadSource(ctx, view, *filePath); err != nil {
			log.Fatalf("read %s: %v", *filePath, err)
		}
	}

	doc := view.Document()
	fmt.Fprintf(out, "%s %s\n", boldCyan("Документ:"), doc.Name)
	if _, ok := view.Analysis(); !ok {
		runAnalysis(ctx, out, view)
	}
	printAnalysis(out, view)
	fmt.Fprintln(out, faint(helpBanner))

	sink := download.NewDir(*outDir)
	session := &repl{ctx: ctx, out: out, view: view, sink: sink}
	session.composer = chat.NewComposer(session.send, func() bool { return view.Chat().Busy() })
	if err := session.loop(os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("input: %v", err)
	}
}

func loadSource(ctx context.Context, view *detail.View, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := extract.ExtractTextFromBytes(ctx, data, "", path)
	if err != nil {
		return err
	}
	view.SetSourceText(path, text)
	return nil
}

func runAnalysis(ctx context.Context, out io.Writer, view *detail.View) {
	since := lastNoticeID(view)
	err := view.RunAnalysis(ctx)
	fmt.Fprintln(out)
	if err != nil {
		fmt.Fprintln(out, red(noticeText(view, since, err)))
	}
}

func lastNoticeID(view *detail.View) int64 {
	notices := view.Notices(0)
	if len(notices) == 0 {
		return 0
	}
	return notices[len(notices)-1].ID
}

// noticeText prefers the user-facing notice the view recorded after since.
func noticeText(view *detail.View, since int64, err error) string {
	notices := view.Notices(since)
	if len(notices) > 0 {
		return notices[len(notices)-1].Text
	}
	return err.Error()
}

// progressLine renders "[#####.....]  50% 🧠 Stage".
func progressLine(s progress.Snapshot) string {
	filled := s.Percent * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
	return fmt.Sprintf("[%s] %3d%% %s %s", boldGreen(bar), s.Percent, s.Stage.Icon, s.Stage.Name)
}

func printAnalysis(out io.Writer, view *detail.View) {
	v, ok := view.Analysis()
	if !ok {
		fmt.Fprintln(out, yellow("Анализ ещё не выполнен."))
		return
	}
	for _, cell := range v.Summary.Cells() {
		fmt.Fprintf(out, "  %-16s %s\n", cell.Label+":", boldCyan(cell.Value))
	}
	printRecommendations(out, v)
}

func printRecommendations(out io.Writer, v analysis.View) {
	if len(v.Recommendations) == 0 {
		return
	}
	fmt.Fprintln(out, boldCyan("Рекомендации:"))
	for _, rec := range v.Recommendations {
		marker := " "
		if rec.CanGenerateDocument {
			marker = boldGreen("*")
		}
		fmt.Fprintf(out, " %s %s  %s\n", marker, faint(rec.ID), rec.Title)
	}
}

type repl struct {
	ctx      context.Context
	out      io.Writer
	view     *detail.View
	sink     *download.Dir
	composer *chat.Composer
	quit     bool
}

func (r *repl) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	r.prompt()
	for !r.quit && scanner.Scan() {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		r.handleLine(scanner.Text())
		if !r.quit {
			r.prompt()
		}
	}
	return scanner.Err()
}

func (r *repl) prompt() {
	if r.composer.Input() == "" {
		fmt.Fprint(r.out, boldCyan("> "))
		return
	}
	fmt.Fprint(r.out, faint(". "))
}

// handleLine treats a trailing backslash as Shift+Enter.
func (r *repl) handleLine(line string) {
	if r.composer.Input() == "" {
		if cmd, arg, ok := parseCommand(line); ok {
			r.command(cmd, arg)
			return
		}
	}
	if strings.HasSuffix(line, `\`) {
		r.composer.SetInput(r.composer.Input() + strings.TrimSuffix(line, `\`))
		r.composer.KeyDown(chat.KeyEnter, true)
		return
	}
	r.composer.SetInput(r.composer.Input() + line)
	r.composer.KeyDown(chat.KeyEnter, false)
}

func (r *repl) send(text string) {
	reply, err := r.view.Chat().Send(r.ctx, text)
	if reply.Failed {
		fmt.Fprintln(r.out, red(reply.Content))
		return
	}
	if err != nil {
		fmt.Fprintln(r.out, red(err.Error()))
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", boldGreen("Ассистент:"), reply.Content)
}

func (r *repl) command(cmd, arg string) {
	switch cmd {
	case "quit", "exit":
		r.quit = true
	case "analyze":
		runAnalysis(r.ctx, r.out, r.view)
		printAnalysis(r.out, r.view)
	case "generate":
		if arg == "" {
			fmt.Fprintln(r.out, yellow("Укажите ID рекомендации."))
			return
		}
		fmt.Fprintln(r.out, faint(detail.LabelGenerating))
		since := lastNoticeID(r.view)
		doc, err := r.view.GenerateDocument(r.ctx, arg, detail.GuestUserInfo, r.sink)
		if err != nil {
			fmt.Fprintln(r.out, red(noticeText(r.view, since, err)))
			return
		}
		fmt.Fprintf(r.out, "%s %s\n", boldGreen(detail.MsgGenerated), r.lastSaved(doc.FileName))
	case "export":
		format := arg
		if format == "" {
			format = detail.FormatJSON
		}
		if err := r.view.ExportAnalysis(format, r.sink); err != nil {
			fmt.Fprintln(r.out, red(err.Error()))
			return
		}
		fmt.Fprintln(r.out, boldGreen(r.lastSaved("")))
	case "reset":
		if err := r.view.Chat().Reset(r.ctx); err != nil {
			fmt.Fprintln(r.out, red(err.Error()))
		}
	default:
		fmt.Fprintln(r.out, faint(helpBanner))
	}
}

func (r *repl) lastSaved(fallback string) string {
	if n := len(r.sink.Saved); n > 0 {
		return r.sink.Saved[n-1]
	}
	return fallback
}

// parseCommand splits "/cmd arg" lines.
func parseCommand(line string) (cmd, arg string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return "", "", false
	}
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return "", "", false
	}
	cmd = strings.ToLower(fields[0])
	if len(fields) > 1 {
		arg = fields[1]
	}
	return cmd, arg, true
}
