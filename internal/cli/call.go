package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/rpc"
	"github.com/roach88/shareserver/internal/session"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Params    string
	UserID    int64
	Privilege string
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <Service.procedure>",
		Short: "Dispatch one procedure call in-process",
		Long: `Dispatch one procedure call against the configured database and blob
directory without starting the HTTP server, then print the envelope.

Without --user the call is made anonymously. Byte parameters are given
as base64 strings.

Example:
  shareserver call SystemService.listProcedures
  shareserver call PictureService.getPictures --params '{"pictureIds":[1,2]}'
  shareserver call PictureService.deletePicture --params '{"pictureId":3}' --user 7`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Params, "params", "{}", "procedure parameters as a JSON object")
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "call as this logged-in user id (0 = anonymous)")
	cmd.Flags().StringVar(&opts.Privilege, "privilege", "logged", "privilege of --user (logged|admin)")

	return cmd
}

func runCall(opts *CallOptions, method string, cmd *cobra.Command) error {
	service, procedure, err := rpc.ParseMethod(method)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid method", err)
	}

	p, err := envelope.JSON.DecodeParams([]byte(fmt.Sprintf(`{"params":%s}`, opts.Params)))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --params JSON", err)
	}

	sess := session.Anonymous()
	if opts.UserID != 0 {
		privilege, err := session.ParsePrivilege(opts.Privilege)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --privilege", err)
		}
		sess = session.LoggedInAs(opts.UserID, privilege)
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	env := rt.dispatcher.Dispatch(cmd.Context(), rpc.NewCall(service, procedure, sess, p))
	if err := newPrinter(opts.RootOptions, cmd).envelope(env); err != nil {
		return WrapExitError(ExitCommandError, "failed to print envelope", err)
	}

	if !env.Success {
		return NewExitError(ExitFailure, fmt.Sprintf("%s failed: %s", method, env.ErrorCode))
	}
	return nil
}
