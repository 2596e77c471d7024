package main

import "fmt"

// Commands the bot understands. Buy is the default when no command
// flag is given.
const (
	cmdBuy      = "buy"
	cmdMonitor  = "monitor"
	cmdSnipe    = "snipe"
	cmdCopy     = "copy"
	cmdLogPools = "log-pools"
)

// Flag aliases per command.
var cliCommands = map[string][]string{
	cmdLogPools: {"-log-pools", "--log-pools", "-lp", "--lp"},
	cmdMonitor:  {"-monitor", "--monitor", "-m", "--m"},
	cmdSnipe:    {"-snipe", "--snipe", "-s", "--s"},
	cmdCopy:     {"--copy", "-copy", "-c", "--c"},
}

var tokenFlags = []string{"--token", "-t", "--t"}

// cliOptions is the parsed command line.
type cliOptions struct {
	command string
	token   string
	wallet  string
	params  []string
}

func matches(arg string, aliases []string) bool {
	for _, a := range aliases {
		if arg == a {
			return true
		}
	}
	return false
}

// parseArgs walks the argument list the same way regardless of flag
// order. The copy command consumes the following argument as the wallet
// to follow; the token flag consumes the following argument as a mint.
func parseArgs(args []string) (cliOptions, error) {
	opts := cliOptions{command: cmdBuy}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case matches(arg, tokenFlags):
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("%s requires a token address", arg)
			}
			opts.token = args[i]
		case matches(arg, cliCommands[cmdLogPools]):
			opts.command = cmdLogPools
		case matches(arg, cliCommands[cmdMonitor]):
			opts.command = cmdMonitor
		case matches(arg, cliCommands[cmdSnipe]):
			opts.command = cmdSnipe
		case matches(arg, cliCommands[cmdCopy]):
			opts.command = cmdCopy
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("%s requires the wallet address to copy", arg)
			}
			opts.wallet = args[i]
		default:
			opts.params = append(opts.params, arg)
		}
	}

	return opts, nil
}
