package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/scanbots/arena/internal/arena"
	"github.com/scanbots/arena/internal/storage"
	"github.com/scanbots/arena/pkg/core"
)

// newCommand builds a flag set with the shared config flags attached.
func newCommand(name string, out io.Writer) (*pflag.FlagSet, *pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: %s %s [flags]\n\nFlags:\n", AppName, name)
		fs.PrintDefaults()
	}
	cfgFlags, configDir := configFlags()
	fs.AddFlagSet(cfgFlags)
	return fs, cfgFlags, configDir
}

// errHelp stops a command after --help printed its usage.
var errHelp = errors.New("help requested")

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runSimulate(args []string, out io.Writer) error {
	fs, cfgFlags, configDir := newCommand("simulate", out)
	pathA := fs.String("a", "", "robot A record (JSON file)")
	pathB := fs.String("b", "", "robot B record (JSON file)")
	cheerA := fs.Bool("cheer-a", false, "cheer for robot A")
	cheerB := fs.Bool("cheer-b", false, "cheer for robot B")
	itemA := fs.String("item-a", "", "item for robot A (BOOST, REPAIR, BARRIER)")
	itemB := fs.String("item-b", "", "item for robot B (BOOST, REPAIR, BARRIER)")
	seed := fs.String("seed", "", "battle seed (default: derived from the robot ids)")
	viewer := fs.String("viewer", "", "robot id whose point of view is shown (default: A)")
	playBack := fs.Bool("play", false, "play the battle back after simulating")
	skip := fs.Bool("skip", false, "skip playback pacing")
	asJSON := fs.Bool("json", false, "print the archived record as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *pathA == "" || *pathB == "" {
		fs.Usage()
		return fmt.Errorf("%w: --a and --b are required", errUsage)
	}

	a, err := readCombatant(*pathA)
	if err != nil {
		return err
	}
	b, err := readCombatant(*pathB)
	if err != nil {
		return err
	}

	application, err := newApp(*configDir, cfgFlags)
	if err != nil {
		return err
	}
	defer application.close()

	ctx, stop := signalContext()
	defer stop()

	match, err := application.service.RunTraining(ctx, arena.Request{
		A:        a,
		B:        b,
		InputsA:  core.SideInputs{Cheer: *cheerA, Item: core.ItemKind(strings.ToUpper(*itemA))},
		InputsB:  core.SideInputs{Cheer: *cheerB, Item: core.ItemKind(strings.ToUpper(*itemB))},
		ViewerID: *viewer,
		Seed:     *seed,
	})
	if err != nil {
		return err
	}

	application.logManager.Battle().Set(match.Record.BattleID, match.Record.ViewerID)
	defer application.logManager.Battle().Clear()

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(match.Record)
	}

	printSummary(out, match.Record)
	if *playBack {
		return play(ctx, out, match.Events, *skip, application.dbLog, application.logManager.Battle())
	}
	return nil
}

func runReplay(args []string, out io.Writer) error {
	fs, cfgFlags, configDir := newCommand("replay", out)
	skip := fs.Bool("skip", false, "skip playback pacing")
	quiet := fs.Bool("summary", false, "print the summary only")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: replay takes exactly one battle id", errUsage)
	}

	application, err := newApp(*configDir, cfgFlags)
	if err != nil {
		return err
	}
	defer application.close()

	ctx, stop := signalContext()
	defer stop()

	match, err := application.service.Replay(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	application.logManager.Battle().Set(match.Record.BattleID, match.Record.ViewerID)
	defer application.logManager.Battle().Clear()

	printSummary(out, match.Record)
	if *quiet {
		return nil
	}
	return play(ctx, out, match.Events, *skip, application.dbLog, application.logManager.Battle())
}

func runList(args []string, out io.Writer) error {
	fs, cfgFlags, configDir := newCommand("list", out)
	limit := fs.Int("limit", 20, "maximum battles to show (0 for all)")
	if err := parse(fs, args); err != nil {
		return err
	}

	application, err := newApp(*configDir, cfgFlags)
	if err != nil {
		return err
	}
	defer application.close()

	lister, ok := application.storage.(storage.Lister)
	if !ok {
		return errors.New("storage backend cannot list battles")
	}
	battles, err := lister.ListBattles(*limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BATTLE\tP1\tP2\tWINNER\tTURNS\tSUDDEN DEATH\tCREATED")
	for _, b := range battles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
			b.BattleID, b.P1ID, b.P2ID, b.WinnerID, b.Turns, b.SuddenDeath, b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func readCombatant(path string) (core.CombatantRecord, error) {
	var rec core.CombatantRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("reading robot: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decoding robot %s: %w", path, err)
	}
	return rec, nil
}

func printSummary(out io.Writer, rec *core.BattleRecord) {
	res := rec.Result
	winner, _ := res.Combatant(res.WinnerID)
	fmt.Fprintf(out, "battle   %s\n", rec.BattleID)
	fmt.Fprintf(out, "fighters %s vs %s\n", res.P1.DisplayName(), res.P2.DisplayName())
	fmt.Fprintf(out, "winner   %s after %d turns", winner.DisplayName(), res.Turns)
	if res.SuddenDeath() {
		fmt.Fprint(out, " (sudden death)")
	}
	fmt.Fprintln(out)
}
