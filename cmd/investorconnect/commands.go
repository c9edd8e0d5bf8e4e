package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"investorconnect/internal/app/submission"
	"investorconnect/internal/core/domain"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open [route]",
	Short: "Render a page",
	Long: `Render the page at route. Without a route the home page is shown.

Routes:
  /  /login  /register  /dashboard  /test-firebase
  /business-proposals  /investor-proposals  /loan-details  /info
  <list route>/new  <list route>/<id>`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := "/"
		if len(args) == 1 {
			route = args[0]
		}
		page, err := rt.app.Open(cmd.Context(), route)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rt.app.Render(page))
		return nil
	},
}

var (
	regEmail, regPassword, regName, regRole string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := domain.ParseRole(regRole)
		if err != nil {
			return err
		}
		password, err := readPassword(cmd, regPassword)
		if err != nil {
			return err
		}
		if err := rt.session.Register(cmd.Context(), regEmail, password, regName, role); err != nil {
			return err
		}
		return showDashboard(cmd)
	},
}

var (
	loginEmail, loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd, loginPassword)
		if err != nil {
			return err
		}
		if err := rt.session.Login(cmd.Context(), loginEmail, password); err != nil {
			return err
		}
		return showDashboard(cmd)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := rt.session.Logout(cmd.Context())
		page, openErr := rt.app.Open(cmd.Context(), "/")
		if openErr != nil {
			return openErr
		}
		fmt.Fprint(cmd.OutOrStdout(), rt.app.Render(page))
		return err
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account and role",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := rt.session.Current()
		out := cmd.OutOrStdout()
		if !st.SignedIn() {
			fmt.Fprintln(out, "Not signed in.")
			return nil
		}
		fmt.Fprintf(out, "uid:   %s\nemail: %s\nname:  %s\n", st.Identity.UID, st.Identity.Email, st.Identity.DisplayName)
		if st.Role != nil {
			fmt.Fprintf(out, "role:  %s\n", *st.Role)
		} else {
			fmt.Fprintln(out, "role:  (none)")
		}
		return nil
	},
}

var submitFields []string

var submitCmd = &cobra.Command{
	Use:   "submit <kind|route>",
	Short: "Post a listing",
	Long: `Post a listing of the given kind. The kind may be its identifier
(business-proposal, investor-proposal, loan-detail, business-info) or its
route (/loan-details). Fields are passed as --field name=value; list fields
take comma-separated values.

Run "investorconnect open <route>/new" to see the fields of a form.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := resolveKind(args[0])
		if err != nil {
			return err
		}
		input, err := parseFields(submitFields)
		if err != nil {
			return err
		}
		page, err := rt.app.Submit(cmd.Context(), k, input)
		if err != nil {
			var verr *submission.ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("%s", strings.Join(verr.Problems, "\n"))
			}
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rt.app.Render(page))
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&regEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&regPassword, "password", "", "password (read from stdin when empty)")
	registerCmd.Flags().StringVar(&regName, "name", "", "display name")
	registerCmd.Flags().StringVar(&regRole, "role", "", "investor, business, banker, advisor or user")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("role")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (read from stdin when empty)")
	_ = loginCmd.MarkFlagRequired("email")

	submitCmd.Flags().StringArrayVarP(&submitFields, "field", "f", nil, "form field as name=value (repeatable)")
}

func showDashboard(cmd *cobra.Command) error {
	page, err := rt.app.Open(cmd.Context(), "/dashboard")
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), rt.app.Render(page))
	return nil
}

// readPassword returns flag, or the first line of stdin
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return firstLine(cmd.InOrStdin())
}

func firstLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

// resolveKind accepts a kind identifier or a list route
func resolveKind(arg string) (domain.KindSpec, error) {
	if strings.HasPrefix(arg, "/") {
		if k, ok := domain.KindForRoute(strings.TrimSuffix(arg, "/new")); ok {
			return k, nil
		}
		return domain.KindSpec{}, fmt.Errorf("%w: %q", domain.ErrUnknownKind, arg)
	}
	return domain.LookupKind(domain.Kind(arg))
}

func parseFields(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("field %q must be name=value", kv)
		}
		out[name] = value
	}
	return out, nil
}
