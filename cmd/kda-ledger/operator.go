package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/c-bata/go-prompt"
	"golang.org/x/term"
)

type Operator struct {
	app *App
	ctx context.Context

	exitCh chan struct{}
}

func NewOperator(ctx context.Context, app *App) *Operator {
	return &Operator{
		app:    app,
		ctx:    ctx,
		exitCh: make(chan struct{}),
	}
}

func (o *Operator) Complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(o.complete(d), d.GetWordBeforeCursor(), true)
}

func (o *Operator) complete(d prompt.Document) []prompt.Suggest {
	args := strings.Split(d.TextBeforeCursor(), " ")

	if len(args) < 2 {
		return []prompt.Suggest{
			{Text: "sign", Description: "Sign a transaction hash on the device"},
			{Text: "devices", Description: "List connected Ledger devices"},
			{Text: "history", Description: "Show recent signatures"},
			{Text: "accounts", Description: "List configured accounts"},
			{Text: "help", Description: "Show usage"},
			{Text: "exit", Description: "Exit the application"},
		}
	}

	switch args[0] {
	case "sign":
		switch len(args) {
		case 2:
			return o.accountSuggestions()
		case 3:
			return nil // Hash
		default:
			if args[len(args)-2] == "-o" {
				return []prompt.Suggest{
					{Text: string(formatText), Description: "Bare hex signature"},
					{Text: string(formatJSON), Description: "JSON document"},
					{Text: string(formatYAML), Description: "YAML document"},
					{Text: string(formatTable), Description: "Table"},
				}
			}
			return []prompt.Suggest{{Text: "-o", Description: "Output format"}}
		}
	case "history":
		if len(args) == 2 {
			return []prompt.Suggest{
				{Text: "10", Description: "Last 10 signatures"},
				{Text: "50", Description: "Last 50 signatures"},
			}
		}
	}
	return nil
}

func (o *Operator) accountSuggestions() []prompt.Suggest {
	accounts := o.app.cfg.Accounts().Accounts
	suggestions := make([]prompt.Suggest, 0, len(accounts)+1)
	for _, account := range accounts {
		suggestions = append(suggestions, prompt.Suggest{Text: account.Name, Description: account.Path})
	}
	return append(suggestions, prompt.Suggest{Text: "44'/626'/0'/0/0", Description: "Default Kadena account"})
}

func (o *Operator) Execute(s string) {
	args := strings.Fields(s)
	if len(args) == 0 {
		return
	}

	if args[0] == "exit" {
		o.exit()
		return
	}
	if err := o.app.Run(o.ctx, args); err != nil {
		fmt.Printf("Error: %s\n", err.Error())
	}
}

func (o *Operator) Wait() <-chan struct{} {
	return o.exitCh
}

func (o *Operator) exit() {
	select {
	case <-o.exitCh:
	default:
		close(o.exitCh)
	}
}

// Prefix shows the transport the REPL signs through.
func (o *Operator) Prefix() string {
	return fmt.Sprintf("kda[%s]> ", o.app.cfg.Transport)
}

// terminalState restores stdin to the mode it had before go-prompt switched
// it to raw input.
type terminalState struct {
	fd    int
	state *term.State
}

func saveTerminal() terminalState {
	fd := int(os.Stdin.Fd())
	state, _ := term.GetState(fd)
	return terminalState{fd: fd, state: state}
}

func (ts terminalState) restore() {
	if ts.state != nil {
		_ = term.Restore(ts.fd, ts.state)
	}
	_ = exec.Command("stty", "sane").Run()
}

func runPrompt(ctx context.Context, app *App) {
	operator := NewOperator(ctx, app)
	ts := saveTerminal()

	p := prompt.New(operator.Execute, operator.Complete, promptOptions(operator)...)

	promptExitCh := make(chan struct{})
	go func() {
		p.Run()
		close(promptExitCh)
	}()

	select {
	case <-ctx.Done():
	case <-operator.Wait():
	case <-promptExitCh:
	}
	ts.restore()
	fmt.Println("Exiting kda-ledger.")
}

// promptOptions binds Ctrl+C to a clean exit so deferred cleanup in main
// still runs, and disables Ctrl+D.
func promptOptions(o *Operator) []prompt.Option {
	return []prompt.Option{
		prompt.OptionTitle("kda-ledger"),
		prompt.OptionLivePrefix(func() (string, bool) { return o.Prefix(), true }),
		prompt.OptionPrefixTextColor(prompt.Turquoise),
		prompt.OptionSelectedSuggestionBGColor(prompt.DarkGray),
		prompt.OptionSelectedSuggestionTextColor(prompt.White),
		prompt.OptionShowCompletionAtStart(),
		prompt.OptionAddKeyBind(
			prompt.KeyBind{Key: prompt.ControlC, Fn: func(*prompt.Buffer) { o.exit() }},
			prompt.KeyBind{Key: prompt.ControlD, Fn: func(*prompt.Buffer) {}},
		),
	}
}
