/*
Package runner drives a wizard session from a terminal or a pipe.

It bridges the stateless engine and the outside world: the Runner renders
the current view, hands it to a pluggable IOHandler, translates the reply
into commands, dispatches them and persists the result.

# Key Components

  - Runner: the Render -> Output -> Input -> Dispatch -> Save loop.
  - TextHandler: interactive line prompts with numbered options and the
    :back, :next, :jump N, :resend and :otp meta-commands.
  - JSONHandler: NDJSON views out, NDJSON commands in, for scripting.
  - SanitizeInput: size, UTF-8 and control-character policy for every line.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(wizard),
		runner.WithSessionID("user-1"),
		runner.WithStore(store),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	state, err := r.Run(ctx)
*/
package runner
