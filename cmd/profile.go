package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/habedi/voxbridge/api"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/habedi/voxbridge/pkg/validation"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func profileCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
	}
	cmd.AddCommand(profileShowCmd(c), profileSetupCmd(c), profileUpdateCmd(c))
	return cmd
}

func profileShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			p, err := a.api.Users.Profile(cmd.Context())
			if err != nil {
				return err
			}
			renderProfile(cmd.OutOrStdout(), p)
			return printAccountStatus(cmd, a)
		},
	}
}

// printAccountStatus reports whether onboarding is done and whether the user
// belongs to a workspace.
func printAccountStatus(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	onboarded, err := a.api.Users.OnboardingCompleted(ctx)
	if err != nil {
		return err
	}
	inWorkspace, err := a.api.Users.InWorkspace(ctx)
	if err != nil {
		return err
	}
	cmd.Println("Onboarding completed:", yesNo(onboarded))
	cmd.Println("In a workspace:", yesNo(inWorkspace))
	if !onboarded {
		cmd.Println("Run 'voxbridge profile setup' to complete your profile.")
	}
	if !inWorkspace {
		cmd.Println("Join a workspace with 'voxbridge workspace join <code>'.")
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// profileSetupCmd sends the complete profile, asking for any field not given
// as a flag.
func profileSetupCmd(c *cli) *cobra.Command {
	var in api.ProfileUpdate
	var birthYear string

	cmd := &cobra.Command{
		Use:     "setup",
		Aliases: []string{"onboarding"},
		Short:   "Fill in your whole profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			p := newPrompter(cmd)
			flags := cmd.Flags()
			ask := func(flag, prompt string, dst *string) error {
				if flags.Changed(flag) {
					return nil
				}
				v, err := p.promptForInput(prompt)
				if err != nil {
					return clierr.New(clierr.Validation, "Missing "+flag+".", err)
				}
				*dst = v
				return nil
			}

			if err := ask("name", "Name: ", &in.Name); err != nil {
				return err
			}
			if err := ask("birth-year", "Birth year: ", &birthYear); err != nil {
				return err
			}
			if err := ask("nationality", "Nationality: ", &in.Nationality); err != nil {
				return err
			}
			if err := ask("city", "City you work in: ", &in.CurrentCity); err != nil {
				return err
			}
			if !flags.Changed("language") {
				in.MainLanguage = a.cfg.Language
				v, err := p.promptForInput(fmt.Sprintf("Main language [%s]: ", in.MainLanguage))
				if err == nil && v != "" {
					in.MainLanguage = v
				}
			}

			for _, f := range []struct{ name, value string }{
				{"name", in.Name}, {"nationality", in.Nationality}, {"city", in.CurrentCity},
			} {
				if err := validation.ValidateNonEmptyString(f.name, f.value); err != nil {
					return clierr.New(clierr.Validation, err.Error(), err)
				}
			}
			year, err := strconv.Atoi(strings.TrimSpace(birthYear))
			if err != nil {
				return clierr.New(clierr.Validation, "Birth year must be a number.", err)
			}
			if err := validation.ValidateBirthYear(year); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			in.BirthYear = year
			if err := validation.ValidateLanguageCode(in.MainLanguage, validation.Languages); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}

			profile, err := a.api.Users.UpdateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Println("Profile saved.")
			renderProfile(cmd.OutOrStdout(), profile)
			return printAccountStatus(cmd, a)
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&birthYear, "birth-year", "", "Year of birth")
	cmd.Flags().StringVar(&in.Nationality, "nationality", "", "Nationality")
	cmd.Flags().StringVar(&in.CurrentCity, "city", "", "City you work in")
	cmd.Flags().StringVar(&in.MainLanguage, "language", "", "Main language code")
	return cmd
}

// profileUpdateCmd patches only the fields given on the command line.
func profileUpdateCmd(c *cli) *cobra.Command {
	var name, nationality, city, language string
	var birthYear int

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update fields of your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch api.ProfilePatch
			if flags.Changed("name") {
				if err := validation.ValidateNonEmptyString("name", name); err != nil {
					return clierr.New(clierr.Validation, err.Error(), err)
				}
				patch.Name = &name
			}
			if flags.Changed("birth-year") {
				if err := validation.ValidateBirthYear(birthYear); err != nil {
					return clierr.New(clierr.Validation, err.Error(), err)
				}
				patch.BirthYear = &birthYear
			}
			if flags.Changed("nationality") {
				patch.Nationality = &nationality
			}
			if flags.Changed("city") {
				patch.CurrentCity = &city
			}
			if flags.Changed("language") {
				if err := validation.ValidateLanguageCode(language, validation.Languages); err != nil {
					return clierr.New(clierr.Validation, err.Error(), err)
				}
				patch.MainLanguage = &language
			}
			if patch == (api.ProfilePatch{}) {
				return clierr.New(clierr.Validation, "Nothing to update. Pass at least one field flag.", nil)
			}

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			p, err := a.api.Users.PatchProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}
			cmd.Println("Profile updated.")
			renderProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().IntVar(&birthYear, "birth-year", 0, "Year of birth")
	cmd.Flags().StringVar(&nationality, "nationality", "", "Nationality")
	cmd.Flags().StringVar(&city, "city", "", "City you live in")
	cmd.Flags().StringVar(&language, "language", "", "Main language code")
	return cmd
}

func renderProfile(w io.Writer, p api.UserProfile) {
	table := newTable(w, []string{"Field", "Value"})
	table.Append([]string{"ID", p.ID})
	table.Append([]string{"Name", p.Name})
	table.Append([]string{"Birth year", strconv.Itoa(p.BirthYear)})
	table.Append([]string{"Nationality", p.Nationality})
	table.Append([]string{"City", p.CurrentCity})
	table.Append([]string{"Main language", p.MainLanguage})
	table.Render()
}

// newTable creates a left aligned table without wrapping or row lines.
func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)       // Align all columns to the left
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT) // Align headers to the left
	table.SetAutoWrapText(false)                     // Disable text wrapping in all columns
	table.SetRowLine(false)                          // Disable row line breaks
	return table
}
