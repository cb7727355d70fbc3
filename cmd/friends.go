package cmd

import (
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/swbridge/internal/friends"
	"github.com/Norgate-AV/swbridge/internal/steamid"
)

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "Query the friend list",
}

var friendsListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List friends matching a relationship filter",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNative: "true"},
	RunE:        guarded(runFriendsList),
}

var friendsNameCmd = &cobra.Command{
	Use:         "name <steamid64>",
	Short:       "Print the persona name of an account",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNative: "true"},
	RunE:        guarded(runFriendsName),
}

var friendsFlagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Print the friend flag table",
	Args:  cobra.NoArgs,
	RunE:  guarded(runFriendsFlags),
}

func init() {
	friendsListCmd.Flags().StringP("flags", "f", "immediate",
		"relationship filter: names or numbers joined by '|' or ',' ("+strings.Join(friends.FlagNames(), ", ")+")")

	friendsCmd.AddCommand(friendsListCmd, friendsNameCmd, friendsFlagsCmd)
	RootCmd.AddCommand(friendsCmd)
}

func runFriendsList(cmd *cobra.Command, ex *ExecutionContext, _ []string) error {
	raw, _ := cmd.Flags().GetString("flags")

	flags, err := friends.ParseFlags(raw)
	if err != nil {
		return err
	}

	ex.log.Debug("Listing friends", slog.String("flags", flags.String()))
	list := ex.api.GetFriends(int32(flags))

	if ex.cfg.JSON {
		return printJSON(cmd.OutOrStdout(), list)
	}

	if len(list) == 0 {
		ex.log.Info("No friends match filter", slog.String("flags", flags.String()))
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, f := range list {
		rows = append(rows, []string{f.SteamID.String(), f.Name})
	}

	return printTable(cmd.OutOrStdout(), []string{"STEAM ID", "NAME"}, rows)
}

// parseSteamID64 reads a decimal account id without going through float64.
func parseSteamID64(s string) (*big.Int, error) {
	id, err := steamid.Parse(s)
	if err != nil {
		return nil, err
	}

	return id.BigInt(), nil
}

func runFriendsName(cmd *cobra.Command, ex *ExecutionContext, args []string) error {
	id, err := parseSteamID64(args[0])
	if err != nil {
		return err
	}

	name := ex.api.GetFriendName(id)
	if name == "" {
		ex.log.Warn("Account name not known", slog.String("steamId", id.String()))
	}

	if ex.cfg.JSON {
		return printJSON(cmd.OutOrStdout(), struct {
			SteamID *big.Int `json:"steamId"`
			Name    string   `json:"name"`
		}{id, name})
	}

	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}

func runFriendsFlags(cmd *cobra.Command, ex *ExecutionContext, _ []string) error {
	if ex.cfg.JSON {
		return printJSON(cmd.OutOrStdout(), ex.api.FriendFlags())
	}

	table := friends.FlagTable()
	names := friends.FlagNames()

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, fmt.Sprintf("0x%04X", uint16(table[name]))})
	}

	return printTable(cmd.OutOrStdout(), []string{"FLAG", "VALUE"}, rows)
}
