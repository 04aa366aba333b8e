package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"github.com/skybi/metaview/internal/config"
	"github.com/skybi/metaview/internal/home"
	"github.com/skybi/metaview/internal/identity"
	"github.com/skybi/metaview/internal/meta"
	"github.com/skybi/metaview/internal/session"
	"github.com/skybi/metaview/internal/storage/drivers"
)

// Runner executes metactl commands against the session store
type Runner struct {
	store   *session.Store
	fetcher home.Fetcher
	out     io.Writer
}

// Run parses the given arguments and executes the selected command
func Run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	options.apply(cfg)

	driver, err := drivers.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close()

	runner := &Runner{
		store:   session.NewStore(driver.Cells(), cfg.SessionKey),
		fetcher: meta.NewClient(cfg.MetaEndpoint(), cfg.FetchTimeout),
		out:     out,
	}
	command := activeCommand(parser)
	var commandArgs []string
	if command == "token set" {
		commandArgs = append(commandArgs, options.Token.Set.Args.Value)
	}
	return runner.Execute(ctx, command, commandArgs...)
}

// Execute runs the command with the given space-separated name
func (runner *Runner) Execute(ctx context.Context, command string, args ...string) error {
	switch command {
	case "token get":
		return runner.tokenGet(ctx)
	case "token set":
		if len(args) != 1 {
			return errors.New("token set expects exactly one value")
		}
		return runner.store.Set(ctx, args[0])
	case "token inspect":
		return runner.tokenInspect(ctx)
	case "meta":
		return runner.meta(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (runner *Runner) tokenGet(ctx context.Context) error {
	token, err := runner.store.Get(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(runner.out, token)
	return err
}

func (runner *Runner) tokenInspect(ctx context.Context) error {
	token, err := runner.store.Get(ctx)
	if err != nil {
		return err
	}
	claims, err := identity.Describe(token)
	if err != nil {
		if errors.Is(err, identity.ErrNoCredential) {
			_, err = fmt.Fprintln(runner.out, "no credential stored")
			return err
		}
		return fmt.Errorf("decoding credential: %w", err)
	}
	encoded, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(runner.out, string(encoded))
	return err
}

// meta runs the home view headless; failures are logged by the controller and nothing is printed
func (runner *Runner) meta(ctx context.Context) error {
	controller := home.NewController(runner.store, runner.fetcher, nil)
	if err := controller.Mount(ctx); err != nil {
		return err
	}
	defer controller.Unmount()
	if err := controller.Wait(ctx); err != nil {
		return err
	}

	snapshot := controller.Snapshot()
	if snapshot.State != home.StateDisplayed {
		log.Debug().Str("state", string(snapshot.State)).Msg("no metadata to display")
		return nil
	}
	_, err := fmt.Fprintln(runner.out, snapshot.Content)
	return err
}

func activeCommand(parser *flags.Parser) string {
	var names []string
	for command := parser.Active; command != nil; command = command.Active {
		names = append(names, command.Name)
	}
	return strings.Join(names, " ")
}
